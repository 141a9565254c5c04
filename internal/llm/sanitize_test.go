package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docanalyzer/internal/common"
)

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *float64
	}{
		{name: "thousands separator", in: "1,234.50", want: f(1234.50)},
		{name: "dollar sign", in: "$99.99", want: f(99.99)},
		{name: "rupee sign", in: "₹500", want: f(500.0)},
		{name: "euro sign", in: "€ 12.00", want: f(12.0)},
		{name: "nil", in: nil, want: nil},
		{name: "garbage", in: "abc", want: nil},
		{name: "empty string", in: "", want: nil},
		{name: "already numeric", in: 42, want: f(42.0)},
		{name: "json float", in: 19.95, want: f(19.95)},
		{name: "negative", in: "-5.25", want: f(-5.25)},
		{name: "bool", in: true, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAmount(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "no fence", in: `{"a":1}`, want: `{"a":1}`},
		{name: "surrounding whitespace", in: "  \n```json\n{}\n```  ", want: `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFences(tt.in))
		})
	}
}

func TestDecodeInvoiceJSON(t *testing.T) {
	t.Run("fenced response parses", func(t *testing.T) {
		resp := "```json\n{\"vendor\":\"ACME\",\"invoice_number\":\"INV-1\",\"date\":\"2024-03-01\",\"currency\":\"USD\",\"subtotal\":\"1,000.00\",\"tax\":\"$80.00\",\"total\":1080,\"line_items\":[{\"description\":\"widgets\",\"qty\":\"2\",\"unit_price\":\"$500.00\",\"amount\":\"1,000.00\"}]}\n```"
		fields, raw, err := DecodeInvoiceJSON(resp)
		require.NoError(t, err)
		assert.JSONEq(t, StripCodeFences(resp), string(raw))

		require.NotNil(t, fields.Vendor)
		assert.Equal(t, "ACME", *fields.Vendor)
		require.NotNil(t, fields.Subtotal)
		assert.InDelta(t, 1000.0, *fields.Subtotal, 1e-9)
		require.NotNil(t, fields.Tax)
		assert.InDelta(t, 80.0, *fields.Tax, 1e-9)
		require.NotNil(t, fields.Total)
		assert.InDelta(t, 1080.0, *fields.Total, 1e-9)

		require.Len(t, fields.LineItems, 1)
		item := fields.LineItems[0]
		require.NotNil(t, item.Qty)
		assert.InDelta(t, 2.0, *item.Qty, 1e-9)
		require.NotNil(t, item.UnitPrice)
		assert.InDelta(t, 500.0, *item.UnitPrice, 1e-9)
		require.NotNil(t, item.Amount)
		assert.InDelta(t, 1000.0, *item.Amount, 1e-9)
	})

	t.Run("bare response parses unchanged", func(t *testing.T) {
		fields, _, err := DecodeInvoiceJSON(`{"vendor":"ACME","total":"42.00"}`)
		require.NoError(t, err)
		require.NotNil(t, fields.Total)
		assert.InDelta(t, 42.0, *fields.Total, 1e-9)
	})

	t.Run("missing keys become nulls", func(t *testing.T) {
		fields, _, err := DecodeInvoiceJSON(`{}`)
		require.NoError(t, err)
		assert.Nil(t, fields.Vendor)
		assert.Nil(t, fields.Subtotal)
		assert.Nil(t, fields.Tax)
		assert.Nil(t, fields.Total)
		assert.Empty(t, fields.LineItems)
	})

	t.Run("unparseable amounts become nulls", func(t *testing.T) {
		fields, _, err := DecodeInvoiceJSON(`{"subtotal":"n/a","tax":null,"total":"12.50"}`)
		require.NoError(t, err)
		assert.Nil(t, fields.Subtotal)
		assert.Nil(t, fields.Tax)
		require.NotNil(t, fields.Total)
		assert.InDelta(t, 12.5, *fields.Total, 1e-9)
	})

	t.Run("malformed json fails with parse code", func(t *testing.T) {
		_, _, err := DecodeInvoiceJSON("not json at all")
		require.Error(t, err)
		assert.True(t, common.IsCode(err, common.CodeExtractionParse))
	})

	t.Run("wrong shape fails with parse code", func(t *testing.T) {
		_, _, err := DecodeInvoiceJSON(`{"line_items":"none"}`)
		require.Error(t, err)
		assert.True(t, common.IsCode(err, common.CodeExtractionParse))
	})
}

func f(v float64) *float64 { return &v }
