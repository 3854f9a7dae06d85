// Package pdftext pulls page-level text out of an uploaded PDF byte stream.
package pdftext

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/GreenhouseOperations/packingslip-parser/internal/common"
)

// Page is one page of extracted text. Pages with nothing extractable keep an
// empty Text so downstream page counts stay consistent with the document.
type Page struct {
	Number int // 1-based
	Text   string
}

// ExtractedText is the ordered page sequence for one document.
type ExtractedText struct {
	Pages []Page
}

// NonEmpty returns the pages that actually carry text, in document order.
func (e ExtractedText) NonEmpty() []Page {
	out := make([]Page, 0, len(e.Pages))
	for _, p := range e.Pages {
		if strings.TrimSpace(p.Text) != "" {
			out = append(out, p)
		}
	}
	return out
}

// Extractor reads PDFs handed to it as in-memory buffers. It never touches
// the filesystem and holds no state between documents.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract validates the buffer as a well-formed PDF and returns its pages.
// Malformed input fails with common.ErrDocumentFormat.
func (e *Extractor) Extract(data []byte) (ExtractedText, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return ExtractedText{}, fmt.Errorf("missing PDF header: %w", common.ErrDocumentFormat)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return ExtractedText{}, fmt.Errorf("pdf structure validation: %v: %w", err, common.ErrDocumentFormat)
	}
	if err := pctx.EnsurePageCount(); err != nil {
		return ExtractedText{}, fmt.Errorf("pdf page count: %v: %w", err, common.ErrDocumentFormat)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ExtractedText{}, fmt.Errorf("open pdf: %v: %w", err, common.ErrDocumentFormat)
	}

	total := reader.NumPage()
	pages := make([]Page, 0, total)
	for num := 1; num <= total; num++ {
		page := reader.Page(num)
		if page.V.IsNull() {
			pages = append(pages, Page{Number: num})
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// One broken page must not sink the document; it stays as an
			// empty block.
			e.logger.Warn("pdftext.page.extract_failed", "page", num, "error", err)
			pages = append(pages, Page{Number: num})
			continue
		}
		pages = append(pages, Page{Number: num, Text: text})
	}

	e.logger.Info("pdftext.extract.ok", "pages", total, "bytes", len(data))
	return ExtractedText{Pages: pages}, nil
}
