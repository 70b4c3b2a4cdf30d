// Package export writes a CSV file out as a plain paginated PDF listing.
package export

import (
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"csv-insights/dataset"
	apperrors "csv-insights/errors"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

// Layout in points on a US-Letter page, measured from the bottom edge.
const (
	pageHeight   = 792.0
	topY         = pageHeight - 36 // header baseline, 0.5in from the top
	leftX        = 36.0            // first column, 0.5in from the left
	columnStep   = 108.0           // 1.5in per column
	lineHeight   = 18.0            // 0.25in per row
	bottomMargin = 72.0            // 1in
	fontSize     = 12.0
)

// Exporter renders CSV files to PDF. Columns are placed at fixed offsets with
// no width measurement, so long cells can overlap the next column.
type Exporter struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// Export writes csvPath to pdfPath and reports whether it succeeded. Failures
// are logged and never returned.
func (e *Exporter) Export(csvPath, pdfPath string) bool {
	if err := e.export(csvPath, pdfPath); err != nil {
		e.logger.Error("CSV export failed",
			zap.String("csv", csvPath),
			zap.String("pdf", pdfPath),
			zap.Error(err))
		return false
	}
	e.logger.Info("CSV exported to PDF",
		zap.String("csv", csvPath),
		zap.String("pdf", pdfPath))
	return true
}

func (e *Exporter) export(csvPath, pdfPath string) error {
	data, err := os.ReadFile(csvPath)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("the file %s does not exist", csvPath)
		}
		return fmt.Errorf("read csv: %w", err)
	}
	text, err := dataset.DecodeText(data)
	if err != nil {
		return err
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetFont("Helvetica", "", fontSize)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	drawRow := func(y float64, row []string) {
		for i, cell := range row {
			pdf.Text(leftX+float64(i)*columnStep, pageHeight-y, tr(cell))
		}
	}

	header, err := r.Read()
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			return fmt.Errorf("csv file %s is empty", csvPath)
		}
		return apperrors.WrapError(err, "read header")
	}
	// The header sits alone on page 1; rows start on page 2.
	drawRow(topY, header)
	newPage := true

	rows := 0
	y := topY
	for {
		rec, err := r.Read()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return apperrors.WrapErrorf(err, "read row %d", rows+1)
		}
		if newPage {
			pdf.AddPage()
			y = topY
			newPage = false
		}
		drawRow(y, rec)
		y -= lineHeight
		rows++
		if y < bottomMargin {
			newPage = true
		}
	}

	if err := pdf.OutputFileAndClose(pdfPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	e.logger.Debug("PDF layout complete",
		zap.Int("rows", rows),
		zap.Int("pages", pdf.PageCount()))
	return nil
}
