package slip

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerive_DefaultPolicy(t *testing.T) {
	d := NewDeriver(0, 0)

	for _, qty := range []int{0, 1, 3, 7, 100} {
		rec := d.Derive(ValidatedRecord{Quantity: qty})
		assert.Equal(t, 2*qty, rec.Packages, "qty %d", qty)
		assert.Equal(t, float64(2*qty)*4.5, rec.TotalWeightKg, "qty %d", qty)
	}
}

func TestDerive_ConfiguredMultipliers(t *testing.T) {
	d := NewDeriver(3, 2.25)

	rec := d.Derive(ValidatedRecord{Quantity: 4})
	assert.Equal(t, 12, rec.Packages)
	assert.Equal(t, 27.0, rec.TotalWeightKg)
}

func TestDerive_PreservesValidatedFields(t *testing.T) {
	d := NewDeriver(0, 0)

	in := ValidatedRecord{
		CustomerID:  "1234567890",
		CompanyName: "Acme Corp",
		PostalCode:  "H2X 1Y4",
		Quantity:    3,
	}
	out := d.Derive(in)
	assert.Equal(t, in, out.ValidatedRecord)
	assert.Equal(t, 6, out.Packages)
	assert.Equal(t, 27.0, out.TotalWeightKg)
}
