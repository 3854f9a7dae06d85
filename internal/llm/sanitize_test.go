package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GreenhouseOperations/packingslip-parser/internal/slip"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "no fences", in: `[{"a":1}]`, want: `[{"a":1}]`},
		{name: "json fence", in: "```json\n[{\"a\":1}]\n```", want: `[{"a":1}]`},
		{name: "bare fence", in: "```\n[{\"a\":1}]\n```", want: `[{"a":1}]`},
		{name: "surrounding whitespace", in: "  \n```json\n[]\n```\n ", want: `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFences(tt.in))
		})
	}
}

func TestNormalizeCandidateJSON_ObjectBecomesArray(t *testing.T) {
	out, adjusted, err := NormalizeCandidateJSON([]byte(`{"customer_id":"1234567890"}`))
	require.NoError(t, err)
	assert.Empty(t, adjusted)

	var records []slip.CandidateRecord
	require.NoError(t, json.Unmarshal(out, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "1234567890", records[0].CustomerID)
}

func TestNormalizeCandidateJSON_CamelCaseSynonyms(t *testing.T) {
	in := []byte(`[{
		"customerId": "1234567890",
		"companyName": "Acme Corp",
		"address1": "12 Main St",
		"cityOrTown": "Montreal",
		"stateProvinceCounty": "QC",
		"postalCode": "H2X1Y4",
		"telephone": "514-555-0123",
		"upsService": "UPS Express Saver",
		"quantity": "3"
	}]`)

	out, adjusted, err := NormalizeCandidateJSON(in)
	require.NoError(t, err)
	assert.NotEmpty(t, adjusted)

	var records []slip.CandidateRecord
	require.NoError(t, json.Unmarshal(out, &records))
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "1234567890", r.CustomerID)
	assert.Equal(t, "Acme Corp", r.CompanyName)
	assert.Equal(t, []string{"12 Main St"}, r.AddressLines)
	assert.Equal(t, "Montreal", r.City)
	assert.Equal(t, "QC", r.Province)
	assert.Equal(t, "H2X1Y4", r.PostalCode)
	assert.Equal(t, "514-555-0123", r.Phone)
	assert.Equal(t, "UPS Express Saver", r.ServiceType)
	assert.Equal(t, json.Number("3"), r.Quantity)
}

func TestNormalizeCandidateJSON_RejectsNonObjects(t *testing.T) {
	_, _, err := NormalizeCandidateJSON([]byte(`"just a string"`))
	assert.Error(t, err)

	_, _, err = NormalizeCandidateJSON([]byte(`[1, 2]`))
	assert.Error(t, err)

	_, _, err = NormalizeCandidateJSON([]byte(`not json at all`))
	assert.Error(t, err)
}

func TestValidateJSONAgainstSchema(t *testing.T) {
	schema := BuildSlipJSONSchema()

	valid := []byte(`[{
		"customer_id": "1234567890",
		"ship_to_address_lines": ["12 Main St"],
		"postal_code": "H2X 1Y4",
		"province": "QC",
		"phone": "514-555-0123",
		"quantity": 3
	}]`)
	assert.NoError(t, ValidateJSONAgainstSchema(schema, valid))

	// quantity may arrive as a string; the validator decides if it parses
	stringQty := []byte(`[{
		"customer_id": "1234567890",
		"ship_to_address_lines": ["12 Main St"],
		"postal_code": "H2X 1Y4",
		"province": "QC",
		"phone": "514-555-0123",
		"quantity": "3"
	}]`)
	assert.NoError(t, ValidateJSONAgainstSchema(schema, stringQty))

	missingRequired := []byte(`[{"customer_id": "1234567890"}]`)
	assert.Error(t, ValidateJSONAgainstSchema(schema, missingRequired))

	notAnArray := []byte(`{"customer_id": "1234567890"}`)
	assert.Error(t, ValidateJSONAgainstSchema(schema, notAnArray))
}

func TestBuildBatchPrompt(t *testing.T) {
	req := ExtractRequest{
		Pages: []PageText{
			{Number: 1, Text: "page one text"},
			{Number: 2, Text: "page two text"},
		},
	}
	p := BuildBatchPrompt(req)
	assert.Contains(t, p, "PACKING SLIP 1 (Page 1)")
	assert.Contains(t, p, "PACKING SLIP 2 (Page 2)")
	assert.Contains(t, p, "page two text")
	assert.NotContains(t, p, "previous attempt")

	req.Hint = `field "postal_code": does not match`
	p = BuildBatchPrompt(req)
	assert.Contains(t, p, "A previous attempt at this document failed")
	assert.Contains(t, p, "postal_code")
}
