package llm

import "context"

// LineItem is one invoice line as extracted by the model.
type LineItem struct {
	Description *string  `json:"description"`
	Qty         *float64 `json:"qty"`
	UnitPrice   *float64 `json:"unit_price"`
	Amount      *float64 `json:"amount"`
}

// InvoiceFields is the normalized shape we want from the LLM. Numeric fields
// are either a parsed number or nil, never a raw string at rest; nil fields
// serialize as JSON null.
type InvoiceFields struct {
	Vendor        *string    `json:"vendor"`
	InvoiceNumber *string    `json:"invoice_number"`
	Date          *string    `json:"date"`
	Currency      *string    `json:"currency"`
	Subtotal      *float64   `json:"subtotal"`
	Tax           *float64   `json:"tax"`
	Total         *float64   `json:"total"`
	LineItems     []LineItem `json:"line_items"`
}

// TextExtractor is Stage 1: page image -> raw text.
type TextExtractor interface {
	OCRPage(ctx context.Context, png []byte) (string, error)
}

// InvoiceExtractor is Stage 2: aggregated text -> structured fields.
// The second return value is the cleaned raw JSON the model produced.
type InvoiceExtractor interface {
	ExtractInvoice(ctx context.Context, text string) (InvoiceFields, []byte, error)
}
