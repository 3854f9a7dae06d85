package export

import (
	"encoding/csv"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GreenhouseOperations/packingslip-parser/internal/slip"
)

func fixedAssembler() *Assembler {
	a := NewAssembler(nil)
	a.now = func() time.Time {
		return time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	}
	return a
}

func sampleRecord(id string, qty int) slip.DerivedRecord {
	return slip.DerivedRecord{
		ValidatedRecord: slip.ValidatedRecord{
			CustomerID:   id,
			CompanyName:  "Acme Corp",
			AddressLines: []string{"12 Main St"},
			City:         "Montreal",
			Province:     "QC",
			PostalCode:   "H2X 1Y4",
			Phone:        "5145550123",
			Quantity:     qty,
			ServiceType:  "UPS Express Saver",
		},
		Packages:      2 * qty,
		TotalWeightKg: float64(2*qty) * 4.5,
	}
}

func TestAssembleCSV_ZeroRecordsIsHeaderOnly(t *testing.T) {
	doc, err := fixedAssembler().AssembleCSV(nil)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(doc.Data), "\n"), "\n")
	require.Len(t, lines, 1)
	assert.Equal(t,
		"customer_id,company_name,address_line_1,city,province,postal_code,phone,quantity,packages,total_weight_kg,service_type",
		lines[0])
}

func TestAssembleCSV_RoundTrip(t *testing.T) {
	records := []slip.DerivedRecord{
		sampleRecord("1234567890", 3),
		sampleRecord("9876543210", 1),
	}
	doc, err := fixedAssembler().AssembleCSV(records)
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(string(doc.Data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per record")

	first := rows[1]
	assert.Equal(t, "1234567890", first[0])
	assert.Equal(t, "Acme Corp", first[1])
	assert.Equal(t, "12 Main St", first[2])
	assert.Equal(t, "Montreal", first[3])
	assert.Equal(t, "QC", first[4])
	assert.Equal(t, "H2X 1Y4", first[5])
	assert.Equal(t, "(514) 555-0123", first[6])
	assert.Equal(t, "3", first[7])
	assert.Equal(t, "6", first[8])
	assert.Equal(t, "27.0", first[9])
	assert.Equal(t, "UPS Express Saver", first[10])
}

func TestAssembleCSV_RowCountMatchesInput(t *testing.T) {
	var records []slip.DerivedRecord
	for i := 0; i < 25; i++ {
		records = append(records, sampleRecord("1234567890", i))
	}
	doc, err := fixedAssembler().AssembleCSV(records)
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(string(doc.Data))).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 26)
}

func TestAssembleCSV_MultiLineAddressesWidenTheGrid(t *testing.T) {
	short := sampleRecord("1234567890", 1)
	long := sampleRecord("9876543210", 2)
	long.AddressLines = []string{"Unit 7", "88 Henderson Hwy", "Buzzer 14"}

	doc, err := fixedAssembler().AssembleCSV([]slip.DerivedRecord{short, long})
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(string(doc.Data))).ReadAll()
	require.NoError(t, err)

	header := rows[0]
	assert.Contains(t, header, "address_line_1")
	assert.Contains(t, header, "address_line_3")

	// Short record pads; long record keeps every line.
	assert.Equal(t, []string{"12 Main St", "", ""}, rows[1][2:5])
	assert.Equal(t, []string{"Unit 7", "88 Henderson Hwy", "Buzzer 14"}, rows[2][2:5])
}

func TestAssembleCSV_FilenameCarriesGenerationMarker(t *testing.T) {
	doc, err := fixedAssembler().AssembleCSV(nil)
	require.NoError(t, err)

	assert.Equal(t, "packing_slip_data_20250601T123000Z.csv", doc.Filename)
	assert.Regexp(t, regexp.MustCompile(`^packing_slip_data_\d{8}T\d{6}Z\.csv$`), doc.Filename)
	assert.Equal(t, "text/csv", doc.ContentType)
}
