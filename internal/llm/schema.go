package llm

// BuildSlipJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic
// map describing the candidate-record array the collaborator must return. It is
// a shape check only; field-level format rules belong to the slip validator.
func BuildSlipJSONSchema() map[string]any {
	props := map[string]any{
		"customer_id":  map[string]any{"type": "string"},
		"company_name": map[string]any{"type": "string"},
		"attention":    map[string]any{"type": "string"},
		"ship_to_address_lines": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"city":         map[string]any{"type": "string"},
		"province":     map[string]any{"type": "string"},
		"postal_code":  map[string]any{"type": "string"},
		"phone":        map[string]any{"type": "string"},
		"quantity":     map[string]any{"type": []string{"integer", "string"}},
		"service_type": map[string]any{"type": "string"},
		"page_number":  map[string]any{"type": "integer"},
	}
	required := []string{
		"customer_id", "ship_to_address_lines", "postal_code",
		"province", "phone", "quantity",
	}

	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":                 "object",
			"additionalProperties": true,
			"properties":           props,
			"required":             required,
		},
	}
}
