package utils

import (
	"testing"
	"unicode/utf8"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "sales.csv", "sales.csv"},
		{"spaces_and_parens", "my data (1).csv", "my_data__1_.csv"},
		{"windows_path", `C:\Users\me\report.xlsx`, "report.xlsx"},
		{"traversal", "../../etc/passwd", "passwd"},
		{"empty", "", "upload.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.in); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsAllowedUpload(t *testing.T) {
	tests := map[string]bool{
		"a.csv":  true,
		"a.CSV":  true,
		"a.xlsx": true,
		"a.txt":  true,
		"noext":  true,
		"a.exe":  false,
		"a.xls":  false,
	}
	for name, want := range tests {
		if got := IsAllowedUpload(name); got != want {
			t.Errorf("IsAllowedUpload(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestTruncateBytes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "abc", 10, "abc"},
		{"exact", "abc", 3, "abc"},
		{"ascii_cut", "abcdef", 4, "abcd"},
		{"before_two_byte_rune", "café", 4, "caf"},
		{"inside_three_byte_rune", "a€b", 2, "a"},
		{"after_three_byte_rune", "a€b", 4, "a€"},
		{"inside_four_byte_rune", "\U0001F600x", 3, ""},
		{"zero", "abc", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateBytes(tt.in, tt.n)
			if got != tt.want {
				t.Errorf("TruncateBytes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("TruncateBytes(%q, %d) returned invalid UTF-8", tt.in, tt.n)
			}
		})
	}
}
