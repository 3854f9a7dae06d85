// Package export renders derived records as downloadable documents.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/GreenhouseOperations/packingslip-parser/internal/slip"
)

const filenameBase = "packing_slip_data"

// Document is a rendered export: bytes, a download filename carrying a
// generation marker so repeated uploads don't collide client-side, and the
// media type to serve it under.
type Document struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Assembler writes records under a fixed, versioned column order. The header
// row is always present; zero records is a legitimate, empty-but-valid export.
type Assembler struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewAssembler(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{logger: logger, now: time.Now}
}

// header builds the column list. Address lines are flattened into as many
// columns as the widest record needs (at least one) so multi-line addresses
// are never truncated.
func header(addressCols int) []string {
	cols := []string{"customer_id", "company_name"}
	for i := 1; i <= addressCols; i++ {
		cols = append(cols, fmt.Sprintf("address_line_%d", i))
	}
	return append(cols,
		"city", "province", "postal_code", "phone",
		"quantity", "packages", "total_weight_kg", "service_type")
}

func addressWidth(records []slip.DerivedRecord) int {
	width := 1
	for _, r := range records {
		if len(r.AddressLines) > width {
			width = len(r.AddressLines)
		}
	}
	return width
}

func row(r slip.DerivedRecord, addressCols int) []string {
	out := []string{r.CustomerID, r.CompanyName}
	for i := 0; i < addressCols; i++ {
		if i < len(r.AddressLines) {
			out = append(out, r.AddressLines[i])
		} else {
			out = append(out, "")
		}
	}
	return append(out,
		r.City,
		r.Province,
		r.PostalCode,
		slip.FormatPhone(r.Phone),
		strconv.Itoa(r.Quantity),
		strconv.Itoa(r.Packages),
		fmt.Sprintf("%.1f", r.TotalWeightKg),
		r.ServiceType)
}

// AssembleCSV serializes the records in the order given; the pipeline already
// fixed that order and it is not re-sorted here.
func (a *Assembler) AssembleCSV(records []slip.DerivedRecord) (Document, error) {
	width := addressWidth(records)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header(width)); err != nil {
		return Document{}, fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(row(r, width)); err != nil {
			return Document{}, fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return Document{}, fmt.Errorf("flush csv: %w", err)
	}

	doc := Document{
		Data:        buf.Bytes(),
		Filename:    a.filename("csv"),
		ContentType: "text/csv",
	}
	a.logger.Info("export.csv.ok", "rows", len(records), "bytes", len(doc.Data), "filename", doc.Filename)
	return doc, nil
}

func (a *Assembler) filename(ext string) string {
	return fmt.Sprintf("%s_%s.%s", filenameBase, a.now().UTC().Format("20060102T150405Z"), ext)
}
