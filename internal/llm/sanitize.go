package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripCodeFences removes a surrounding markdown code block if the model
// wrapped its JSON in one.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// NormalizeCandidateJSON massages a collaborator payload into the canonical
// candidate-record array shape:
//   - a bare object becomes a one-element array
//   - known key synonyms are renamed (the model sometimes answers in camelCase)
//   - a string address becomes a one-element line array
//   - quantity strings are re-emitted as JSON numbers when they parse
//
// It returns the normalized bytes plus the list of adjustments made, for logs.
func NormalizeCandidateJSON(raw []byte) ([]byte, []string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case map[string]any:
		items = []any{t}
	default:
		return nil, nil, fmt.Errorf("sanitize: expected array or object, got %T", v)
	}

	var adjusted []string
	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			return nil, nil, fmt.Errorf("sanitize: element %d is not an object", i)
		}

		rename := func(from, to string) {
			if v, ok := m[from]; ok {
				if _, exists := m[to]; !exists {
					m[to] = v
					adjusted = append(adjusted, fmt.Sprintf("%d:%s->%s", i, from, to))
				}
				delete(m, from)
			}
		}
		rename("customerId", "customer_id")
		rename("companyName", "company_name")
		rename("address1", "ship_to_address_lines")
		rename("addressLines", "ship_to_address_lines")
		rename("cityOrTown", "city")
		rename("stateProvinceCounty", "province")
		rename("postalCode", "postal_code")
		rename("telephone", "phone")
		rename("upsService", "service_type")

		if s, ok := m["ship_to_address_lines"].(string); ok {
			m["ship_to_address_lines"] = []any{s}
			adjusted = append(adjusted, fmt.Sprintf("%d:address_string", i))
		}

		if s, ok := m["quantity"].(string); ok {
			var n json.Number
			if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &n); err == nil {
				m["quantity"] = n
				adjusted = append(adjusted, fmt.Sprintf("%d:quantity_string", i))
			}
		}
	}

	b, err := json.Marshal(items)
	if err != nil {
		return nil, nil, err
	}
	return b, adjusted, nil
}
