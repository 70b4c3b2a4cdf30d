package export

import (
	"fmt"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// Info describes a written PDF.
type Info struct {
	Pages int
	// Characters is the amount of text that could be extracted, summed over pages.
	Characters int
}

// Inspect re-opens a PDF and counts its pages and extractable text.
func (e *Exporter) Inspect(pdfPath string) (*Info, error) {
	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	info := &Info{Pages: r.NumPage()}
	for pageNum := 1; pageNum <= info.Pages; pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Warn("Failed to extract text from page",
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}
		info.Characters += len(text)
	}
	return info, nil
}
