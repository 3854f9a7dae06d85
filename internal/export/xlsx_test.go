package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/GreenhouseOperations/packingslip-parser/internal/slip"
)

func TestAssembleXLSX_GridMatchesRecords(t *testing.T) {
	records := []slip.DerivedRecord{
		sampleRecord("1234567890", 3),
		sampleRecord("9876543210", 1),
	}
	doc, err := fixedAssembler().AssembleXLSX(records)
	require.NoError(t, err)
	assert.Equal(t, "packing_slip_data_20250601T123000Z.xlsx", doc.Filename)

	f, err := excelize.OpenReader(bytes.NewReader(doc.Data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("PackingSlips")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "customer_id", rows[0][0])
	assert.Equal(t, "1234567890", rows[1][0])
	assert.Equal(t, "9876543210", rows[2][0])
	assert.Equal(t, "27.0", rows[1][9])
}
