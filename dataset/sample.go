package dataset

import (
	"bytes"
	"fmt"
	"os"
)

var (
	sampleHeader = []string{"Category", "Sales", "Profit"}
	sampleRows   = [][]string{
		{"A", "100", "20"},
		{"B", "200", "50"},
		{"C", "150", "30"},
		{"D", "300", "70"},
	}
)

// Sample returns the built-in four-row table used when nothing is uploaded.
// Each call returns a fresh copy.
func Sample() *Table {
	t, err := New(sampleHeader, sampleRows)
	if err != nil {
		// The fixture is static; failing here is a programming error.
		panic(fmt.Sprintf("dataset: invalid sample fixture: %v", err))
	}
	return t
}

// SampleCSV returns the sample table serialized as CSV.
func SampleCSV() []byte {
	var buf bytes.Buffer
	_ = Sample().WriteCSV(&buf)
	return buf.Bytes()
}

// WriteSampleCSV (re)writes the sample dataset to path.
func WriteSampleCSV(path string) error {
	if err := os.WriteFile(path, SampleCSV(), 0o644); err != nil {
		return fmt.Errorf("write sample dataset: %w", err)
	}
	return nil
}
