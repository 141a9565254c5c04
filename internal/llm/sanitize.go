package llm

import (
	"encoding/json"
	"strconv"
	"strings"

	"docanalyzer/internal/common"
)

// currencyStripper removes thousands separators and common currency symbols
// before numeric conversion.
var currencyStripper = strings.NewReplacer(
	",", "",
	"$", "",
	"₹", "",
	"€", "",
	"£", "",
	"¥", "",
)

// NormalizeAmount coerces a loosely formatted monetary value into a number.
// Values already numeric pass through; strings are stripped of separators and
// currency symbols then parsed. Anything that still fails to convert yields
// nil rather than an error.
func NormalizeAmount(v any) *float64 {
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		return &t
	case float32:
		f := float64(t)
		return &f
	case int:
		f := float64(t)
		return &f
	case int64:
		f := float64(t)
		return &f
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return &f
		}
		return nil
	case string:
		s := strings.TrimSpace(currencyStripper.Replace(t))
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// StripCodeFences removes markdown code-fence delimiters the model sometimes
// wraps its JSON in, leaving bare responses unchanged.
func StripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// rawInvoice mirrors the wire shape before numeric normalization. Money
// fields stay untyped because the model may return them as strings.
type rawInvoice struct {
	Vendor        *string       `json:"vendor"`
	InvoiceNumber *string       `json:"invoice_number"`
	Date          *string       `json:"date"`
	Currency      *string       `json:"currency"`
	Subtotal      any           `json:"subtotal"`
	Tax           any           `json:"tax"`
	Total         any           `json:"total"`
	LineItems     []rawLineItem `json:"line_items"`
}

type rawLineItem struct {
	Description *string `json:"description"`
	Qty         any     `json:"qty"`
	UnitPrice   any     `json:"unit_price"`
	Amount      any     `json:"amount"`
}

// DecodeInvoiceJSON turns a raw model response into InvoiceFields: strips
// code fences, parses the JSON, validates its shape against the invoice
// schema, and normalizes every numeric field (top-level money and line-item
// numerics alike). Returns the cleaned JSON alongside the fields.
// Invalid JSON or a shape violation fails with an EXTRACTION_PARSE error.
func DecodeInvoiceJSON(response string) (InvoiceFields, []byte, error) {
	cleaned := []byte(StripCodeFences(response))

	if !json.Valid(cleaned) {
		return InvoiceFields{}, cleaned, common.NewAppError(common.CodeExtractionParse, "model response is not valid JSON", nil)
	}
	if err := ValidateJSONAgainstSchema(BuildInvoiceJSONSchema(), cleaned); err != nil {
		return InvoiceFields{}, cleaned, common.NewAppError(common.CodeExtractionParse, "model response does not match invoice shape", err)
	}

	var raw rawInvoice
	if err := json.Unmarshal(cleaned, &raw); err != nil {
		return InvoiceFields{}, cleaned, common.NewAppError(common.CodeExtractionParse, "decode invoice json", err)
	}

	out := InvoiceFields{
		Vendor:        trimPtr(raw.Vendor),
		InvoiceNumber: trimPtr(raw.InvoiceNumber),
		Date:          trimPtr(raw.Date),
		Currency:      trimPtr(raw.Currency),
		Subtotal:      NormalizeAmount(raw.Subtotal),
		Tax:           NormalizeAmount(raw.Tax),
		Total:         NormalizeAmount(raw.Total),
		LineItems:     make([]LineItem, 0, len(raw.LineItems)),
	}
	for _, it := range raw.LineItems {
		out.LineItems = append(out.LineItems, LineItem{
			Description: trimPtr(it.Description),
			Qty:         NormalizeAmount(it.Qty),
			UnitPrice:   NormalizeAmount(it.UnitPrice),
			Amount:      NormalizeAmount(it.Amount),
		})
	}
	return out, cleaned, nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
