package llm

import (
	"fmt"
	"strings"

	"github.com/GreenhouseOperations/packingslip-parser/constants"
)

// BuildBatchPrompt composes a single extraction request covering every page of
// the document, so the collaborator can resolve records that continue across a
// page boundary. Hint, when set, is the parse or validation failure from the
// previous attempt.
func BuildBatchPrompt(req ExtractRequest) string {
	var b strings.Builder
	b.WriteString("You are an expert data extraction system for bilingual (French/English) Canadian packing slips. ")
	b.WriteString("Process ALL packing slips below and return a JSON array with one object per packing slip.\n\n")
	b.WriteString("For each packing slip, extract these fields:\n")
	b.WriteString(`{
    "customer_id": "10-digit customer number (NOT the purchase order number)",
    "company_name": "Company name if present, otherwise the person's name",
    "attention": "Person's name (first and last name)",
    "ship_to_address_lines": ["Street address with apartment/unit/buzzer if present"],
    "city": "City name only (e.g., 'Red Deer', 'East St Paul', 'North York')",
    "province": "2-letter province code (e.g., 'ON', 'BC', 'AB')",
    "postal_code": "Canadian postal code, e.g. 'A1A 1A1'",
    "phone": "10-digit phone number",
    "quantity": 1,
    "service_type": "Shipping service type if stated"
}
`)
	b.WriteString("\nCRITICAL EXTRACTION RULES:\n")
	b.WriteString("1. Customer ID: look for the pattern \"14-digit-number 10-digit-number dd/dd/yyyy\" and extract ONLY the 10-digit middle number.\n")
	b.WriteString("2. Company vs person: words like Ltd, Inc, Corp, Construction, Company mark a company name. If none is found, use the person's name for company_name.\n")
	b.WriteString("3. Address: include apartment numbers, unit numbers and buzzer codes in the address lines; one array element per printed line.\n")
	b.WriteString("4. City: the city name only, never street parts.\n")
	b.WriteString("5. Province: one of " + strings.Join(constants.AsStringSlice(), ", ") + ".\n")
	b.WriteString("6. Quantity: the item count printed on the slip.\n")
	b.WriteString("7. If a field cannot be found, use \"Not found\".\n")

	if hint := strings.TrimSpace(req.Hint); hint != "" {
		b.WriteString("\nA previous attempt at this document failed: ")
		b.WriteString(hint)
		b.WriteString("\nCorrect that problem in this response.\n")
	}

	b.WriteString("\nReturn ONLY the JSON array, no other text.\n")
	b.WriteString("\nPACKING SLIPS TO PROCESS:\n")
	for i, p := range req.Pages {
		fmt.Fprintf(&b, "\n--- PACKING SLIP %d (Page %d) ---\n%s\n", i+1, p.Number, p.Text)
	}
	b.WriteString("\nReturn ONLY the JSON array with one object per packing slip:")
	return b.String()
}
