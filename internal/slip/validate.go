package slip

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/GreenhouseOperations/packingslip-parser/constants"
)

// FieldValidationError reports the first field of a candidate record that
// failed format checks, with a reason suitable for a retry prompt.
type FieldValidationError struct {
	Field  string
	Reason string
}

func (e *FieldValidationError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

var (
	reDigits = regexp.MustCompile(`\D`)
	rePostal = regexp.MustCompile(`^[A-Z]\d[A-Z]\d[A-Z]\d$`)
)

const notFound = "Not found"

// Validator checks candidate records field by field. Checks run in a fixed
// order and stop at the first failure, so a malformed record always reports
// the same field first. Values are normalized (whitespace, case, formatting)
// but never invented.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns a ValidatedRecord or a *FieldValidationError for the first
// failing field.
func (v *Validator) Validate(c CandidateRecord) (ValidatedRecord, error) {
	var out ValidatedRecord

	id := reDigits.ReplaceAllString(c.CustomerID, "")
	if len(id) != 10 {
		return out, &FieldValidationError{
			Field:  "customer_id",
			Reason: fmt.Sprintf("must contain exactly 10 digits, got %d in %q", len(id), c.CustomerID),
		}
	}

	lines := make([]string, 0, len(c.AddressLines))
	for _, l := range c.AddressLines {
		if l = strings.TrimSpace(l); l != "" && l != notFound {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return out, &FieldValidationError{
			Field:  "ship_to_address_lines",
			Reason: "at least one non-empty address line is required",
		}
	}

	postal := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(c.PostalCode), " ", ""))
	if !rePostal.MatchString(postal) {
		return out, &FieldValidationError{
			Field:  "postal_code",
			Reason: fmt.Sprintf("%q does not match the Canadian format A1A 1A1", c.PostalCode),
		}
	}

	prov := strings.ToUpper(strings.TrimSpace(c.Province))
	if !constants.IsProvince(prov) {
		return out, &FieldValidationError{
			Field:  "province",
			Reason: fmt.Sprintf("%q is not a recognized Canadian province or territory code", c.Province),
		}
	}

	phone := reDigits.ReplaceAllString(c.Phone, "")
	if len(phone) == 11 && phone[0] == '1' {
		phone = phone[1:]
	}
	if len(phone) < 10 {
		return out, &FieldValidationError{
			Field:  "phone",
			Reason: fmt.Sprintf("must contain at least 10 digits, got %d in %q", len(phone), c.Phone),
		}
	}

	qty, err := strconv.Atoi(strings.TrimSpace(c.Quantity.String()))
	if err != nil || qty < 0 {
		return out, &FieldValidationError{
			Field:  "quantity",
			Reason: fmt.Sprintf("%q is not a non-negative integer", c.Quantity.String()),
		}
	}

	company := strings.TrimSpace(c.CompanyName)
	attention := strings.TrimSpace(c.Attention)
	if company == "" || company == notFound {
		// The source document often has no business name; the collaborator
		// reports the person instead. Both values came from the document.
		company = attention
	}

	out = ValidatedRecord{
		CustomerID:   id,
		CompanyName:  company,
		Attention:    attention,
		AddressLines: lines,
		City:         strings.TrimSpace(c.City),
		Province:     prov,
		PostalCode:   postal[:3] + " " + postal[3:],
		Phone:        phone,
		Quantity:     qty,
		ServiceType:  strings.TrimSpace(c.ServiceType),
	}
	return out, nil
}

// FormatPhone renders a digits-only phone in the fixed display format.
// Numbers longer than 10 digits keep the extra digits as a suffix.
func FormatPhone(digits string) string {
	if len(digits) < 10 {
		return digits
	}
	s := fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:10])
	if len(digits) > 10 {
		s += " x" + digits[10:]
	}
	return s
}
