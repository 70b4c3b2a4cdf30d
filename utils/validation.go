package utils

import (
	"path/filepath"
	"strings"
)

// SanitizeFilename reduces a client-supplied file name to its base name with
// only letters, digits, '-' and '_' before the extension, capped at 255 bytes.
// An unusable name becomes "upload.csv".
func SanitizeFilename(filename string) string {
	// Browsers may send a full client path.
	filename = filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	sanitized := strings.Trim(filename, " .")
	sanitized = strings.ReplaceAll(sanitized, "..", "")

	ext := filepath.Ext(sanitized)
	name := replaceSpecialChars(strings.TrimSuffix(sanitized, ext))
	sanitized = name + ext

	if len(sanitized) > 255 {
		if maxNameLen := 255 - len(ext); maxNameLen > 0 {
			sanitized = name[:maxNameLen] + ext
		} else {
			sanitized = sanitized[:255]
		}
	}
	if sanitized == "" || sanitized == "/" {
		return "upload.csv"
	}
	return sanitized
}

func replaceSpecialChars(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

// IsAllowedUpload reports whether the extension is one the table loader reads.
// Files without an extension are accepted and parsed as CSV.
func IsAllowedUpload(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case "", ".csv", ".txt", ".xlsx":
		return true
	default:
		return false
	}
}
