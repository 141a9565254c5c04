package llm

// BuildInvoiceJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. The model is told to return every key, but extraction must
// still succeed when keys are missing or null, so the schema is strict about
// shape (a non-array line_items is rejected) and lenient about presence.
func BuildInvoiceJSONSchema() map[string]any {
	nullableString := map[string]any{"type": []string{"string", "null"}}
	// Money-ish values may arrive as "1,234.50" or "$99.99"; the normalizer
	// coerces them after validation.
	amount := map[string]any{"type": []string{"string", "number", "null"}}

	lineItem := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": nullableString,
			"qty":         amount,
			"unit_price":  amount,
			"amount":      amount,
		},
		"additionalProperties": true,
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"vendor":         nullableString,
			"invoice_number": nullableString,
			"date":           nullableString,
			"currency":       nullableString,
			"subtotal":       amount,
			"tax":            amount,
			"total":          amount,
			"line_items": map[string]any{
				"type":  []string{"array", "null"},
				"items": lineItem,
			},
		},
		"additionalProperties": true,
	}
}
