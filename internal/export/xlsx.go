package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/GreenhouseOperations/packingslip-parser/internal/slip"
)

// AssembleXLSX renders the same grid as AssembleCSV into a workbook, for
// operations folks who open the export straight in a spreadsheet.
func (a *Assembler) AssembleXLSX(records []slip.DerivedRecord) (Document, error) {
	start := time.Now()
	width := addressWidth(records)

	f := excelize.NewFile()
	const sheet = "PackingSlips"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return Document{}, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if index, _ := f.GetSheetIndex("Sheet1"); index != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	for i, h := range header(width) {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for rowIdx, r := range records {
		for colIdx, v := range row(r, width) {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	// Widen the identity and address columns
	_ = f.SetColWidth(sheet, "A", "A", 14)
	_ = f.SetColWidth(sheet, "B", "B", 28)
	if lastAddr, err := excelize.ColumnNumberToName(2 + width); err == nil {
		_ = f.SetColWidth(sheet, "C", lastAddr, 32)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return Document{}, fmt.Errorf("xlsx write: %w", err)
	}

	doc := Document{
		Data:        buf.Bytes(),
		Filename:    a.filename("xlsx"),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	}
	a.logger.Info("export.xlsx.ok",
		"rows", len(records),
		"bytes", len(doc.Data),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}
