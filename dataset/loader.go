package dataset

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	apperrors "csv-insights/errors"

	"golang.org/x/text/encoding/charmap"
)

const (
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeXLS  = "application/vnd.ms-excel"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseDataURI decodes a "<mime>;base64,<payload>" string into a table. Every
// failure is wrapped in ErrInvalidInput so callers can show it to the user.
func ParseDataURI(uri string) (*Table, error) {
	mime, data, err := DecodeDataURI(uri)
	if err != nil {
		return nil, err
	}

	var t *Table
	if isSpreadsheet(mime, data) {
		t, err = ParseXLSX(data)
	} else {
		t, err = ParseCSV(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	return t, nil
}

// DecodeDataURI splits a data URI into its media type and decoded bytes.
func DecodeDataURI(uri string) (string, []byte, error) {
	meta, payload, ok := strings.Cut(uri, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: data URI has no comma separator", apperrors.ErrInvalidInput)
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return "", nil, fmt.Errorf("%w: invalid base64 payload: %v", apperrors.ErrInvalidInput, err)
	}
	return MIMEType(meta), data, nil
}

// MIMEType extracts the media type from the part of a data URI before the comma.
func MIMEType(meta string) string {
	meta = strings.TrimPrefix(meta, "data:")
	mime, _, _ := strings.Cut(meta, ";")
	return strings.ToLower(strings.TrimSpace(mime))
}

// EncodeDataURI builds a base64 data URI for the given bytes.
func EncodeDataURI(mime string, data []byte) string {
	if mime == "" {
		mime = "text/csv"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// MIMEForFilename picks the data URI media type for an uploaded file name.
func MIMEForFilename(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return mimeXLSX
	case ".xls":
		return mimeXLS
	default:
		return "text/csv"
	}
}

func isSpreadsheet(mime string, data []byte) bool {
	if mime == mimeXLSX {
		return true
	}
	// Browsers report .xlsx as ms-excel on some platforms; a zip header settles it.
	return mime == mimeXLS && bytes.HasPrefix(data, []byte("PK\x03\x04"))
}

// DecodeText turns raw bytes into text, trying UTF-8 first and falling back
// to Latin-1, which accepts any byte sequence.
func DecodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode latin-1: %w", err)
	}
	return string(decoded), nil
}

// ParseCSV parses comma-separated text with a header row.
func ParseCSV(data []byte) (*Table, error) {
	text, err := DecodeText(data)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, fmt.Errorf("no columns to parse from file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, rec)
	}
	return New(header, rows)
}

// LoadFile reads a CSV or XLSX file from disk.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ParseXLSX(data)
	}
	return ParseCSV(data)
}
