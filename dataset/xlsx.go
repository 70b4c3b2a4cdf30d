package dataset

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ParseXLSX reads the first sheet of a workbook; the first row is the header.
func ParseXLSX(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no columns to parse from file")
	}

	header := rows[0]
	body := rows[1:]
	// excelize trims trailing empty cells, so a row may be wider than a short header
	// only when the sheet genuinely has extra data; widen the header to keep it.
	width := len(header)
	for _, r := range body {
		if len(r) > width {
			width = len(r)
		}
	}
	for len(header) < width {
		header = append(header, "")
	}
	return New(header, body)
}
