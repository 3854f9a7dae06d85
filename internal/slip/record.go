package slip

import "encoding/json"

// CandidateRecord is the raw shape proposed by the extraction collaborator.
// Nothing about it is trusted until it passes the Validator.
type CandidateRecord struct {
	CustomerID     string      `json:"customer_id"`
	CompanyName    string      `json:"company_name"`
	Attention      string      `json:"attention,omitempty"`
	AddressLines   []string    `json:"ship_to_address_lines"`
	City           string      `json:"city"`
	Province       string      `json:"province"`
	PostalCode     string      `json:"postal_code"`
	Phone          string      `json:"phone"`
	Quantity       json.Number `json:"quantity"`
	ServiceType    string      `json:"service_type"`
	PageNumber     int         `json:"page_number,omitempty"`
}

// ValidatedRecord is a CandidateRecord whose every field passed format checks.
// Only Validator.Validate constructs one; postal code is in canonical "A1A 1A1"
// form and phone is digits-only.
type ValidatedRecord struct {
	CustomerID   string
	CompanyName  string
	Attention    string
	AddressLines []string
	City         string
	Province     string
	PostalCode   string
	Phone        string
	Quantity     int
	ServiceType  string
}

// DerivedRecord extends a ValidatedRecord with fields that are an exact
// function of Quantity. They are never set independently of Derive.
type DerivedRecord struct {
	ValidatedRecord
	Packages      int
	TotalWeightKg float64
}
