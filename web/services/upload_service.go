package services

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"csv-insights/dataset"
	apperrors "csv-insights/errors"
	"csv-insights/utils"
)

// ErrUploadTooLarge is returned when an upload exceeds the configured size.
var ErrUploadTooLarge = errors.New("file too large")

// Upload is a file received from the browser, normalised from either a
// multipart part or a data URI form field.
type Upload struct {
	Filename string
	Data     []byte
	// dataURI is kept verbatim when the file arrived as a data URI.
	dataURI string
}

// DataURI returns the upload as a "<mime>;base64,<payload>" string, the form
// the table loader accepts.
func (u *Upload) DataURI() string {
	if u.dataURI != "" {
		return u.dataURI
	}
	return dataset.EncodeDataURI(dataset.MIMEForFilename(u.Filename), u.Data)
}

// Bytes returns the raw file contents.
func (u *Upload) Bytes() ([]byte, error) {
	if u.dataURI == "" {
		return u.Data, nil
	}
	_, data, err := dataset.DecodeDataURI(u.dataURI)
	return data, err
}

// Ext returns the lower-cased file extension, defaulting to .csv.
func (u *Upload) Ext() string {
	ext := strings.ToLower(filepath.Ext(u.Filename))
	if ext != ".xlsx" {
		return ".csv"
	}
	return ext
}

// UploadFromDataURI wraps a data URI form field under the same rules as a
// multipart upload: an allowed extension when a filename is given, and a
// decoded size of at most maxBytes.
func UploadFromDataURI(filename, uri string, maxBytes int64) (*Upload, error) {
	if !utils.IsAllowedUpload(filename) {
		return nil, fmt.Errorf("%w: invalid file type. Please upload a CSV or Excel (.xlsx) file", apperrors.ErrInvalidInput)
	}
	if maxBytes > 0 && decodedSize(uri) > maxBytes {
		return nil, fmt.Errorf("%w: maximum size is %d bytes", ErrUploadTooLarge, maxBytes)
	}
	return &Upload{Filename: utils.SanitizeFilename(filename), dataURI: uri}, nil
}

// decodedSize is the byte length of a base64 data URI payload, without
// decoding it.
func decodedSize(uri string) int64 {
	payload := uri
	if _, after, ok := strings.Cut(uri, ","); ok {
		payload = after
	}
	payload = strings.TrimSpace(payload)
	padding := len(payload) - len(strings.TrimRight(payload, "="))
	return int64(base64.StdEncoding.DecodedLen(len(payload)) - padding)
}

// ReadMultipartFile reads an uploaded part, refusing anything over maxBytes.
func ReadMultipartFile(file *multipart.FileHeader, maxBytes int64) (*Upload, error) {
	if !utils.IsAllowedUpload(file.Filename) {
		return nil, fmt.Errorf("%w: invalid file type. Please upload a CSV or Excel (.xlsx) file", apperrors.ErrInvalidInput)
	}
	if maxBytes > 0 && file.Size > maxBytes {
		return nil, fmt.Errorf("%w: maximum size is %d bytes", ErrUploadTooLarge, maxBytes)
	}

	src, err := file.Open()
	if err != nil {
		return nil, apperrors.WrapError(err, "failed to open uploaded file")
	}
	defer src.Close()

	var r io.Reader = src
	if maxBytes > 0 {
		r = io.LimitReader(src, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.WrapError(err, "failed to read uploaded file")
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: maximum size is %d bytes", ErrUploadTooLarge, maxBytes)
	}
	return &Upload{Filename: utils.SanitizeFilename(file.Filename), Data: data}, nil
}
