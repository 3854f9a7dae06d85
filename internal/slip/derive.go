package slip

// Deriver computes the dependent shipping fields from validated quantity data.
// The multipliers are business policy and arrive from configuration; they are
// not hard-wired anywhere else.
type Deriver struct {
	PackagesPerUnit int
	PackageWeightKg float64
}

// NewDeriver applies the standard policy (2 packages per unit, 4.5 kg each)
// for any multiplier left at zero.
func NewDeriver(packagesPerUnit int, packageWeightKg float64) *Deriver {
	if packagesPerUnit <= 0 {
		packagesPerUnit = 2
	}
	if packageWeightKg <= 0 {
		packageWeightKg = 4.5
	}
	return &Deriver{PackagesPerUnit: packagesPerUnit, PackageWeightKg: packageWeightKg}
}

// Derive is a pure function of the record's Quantity. Input is already
// validated, so there is no failure path.
func (d *Deriver) Derive(r ValidatedRecord) DerivedRecord {
	packages := d.PackagesPerUnit * r.Quantity
	return DerivedRecord{
		ValidatedRecord: r,
		Packages:        packages,
		TotalWeightKg:   float64(packages) * d.PackageWeightKg,
	}
}
