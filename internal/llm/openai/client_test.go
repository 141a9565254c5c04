package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docanalyzer/internal/common"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, testLogger())
}

func chatResponse(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"content": content}},
		},
	})
	return string(b)
}

func TestOCRPage(t *testing.T) {
	t.Run("returns trimmed text", func(t *testing.T) {
		var gotBody map[string]any
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			fmt.Fprint(w, chatResponse("  INVOICE #42\nTotal: $10.00  \n"))
		})

		text, err := c.OCRPage(context.Background(), []byte{0x89, 0x50, 0x4e, 0x47})
		require.NoError(t, err)
		assert.Equal(t, "INVOICE #42\nTotal: $10.00", text)

		assert.Equal(t, "gpt-4o-mini", gotBody["model"])
		assert.EqualValues(t, 0, gotBody["temperature"])

		msgs := gotBody["messages"].([]any)
		require.Len(t, msgs, 2)
		userContent := msgs[1].(map[string]any)["content"].([]any)
		require.Len(t, userContent, 2)
		imageURL := userContent[1].(map[string]any)["image_url"].(map[string]any)["url"].(string)
		assert.True(t, strings.HasPrefix(imageURL, "data:image/png;base64,"))
	})

	t.Run("remote failure maps to OCR code", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		})
		_, err := c.OCRPage(context.Background(), []byte{1, 2, 3})
		require.Error(t, err)
		assert.True(t, common.IsCode(err, common.CodeOCR))
	})
}

func TestExtractInvoice(t *testing.T) {
	t.Run("fenced json response", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, chatResponse("```json\n{\"vendor\":\"ACME\",\"total\":\"$12.50\"}\n```"))
		})
		fields, raw, err := c.ExtractInvoice(context.Background(), "some invoice text")
		require.NoError(t, err)
		assert.JSONEq(t, `{"vendor":"ACME","total":"$12.50"}`, string(raw))
		require.NotNil(t, fields.Vendor)
		assert.Equal(t, "ACME", *fields.Vendor)
		require.NotNil(t, fields.Total)
		assert.InDelta(t, 12.5, *fields.Total, 1e-9)
	})

	t.Run("malformed json maps to parse code", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, chatResponse("I could not find an invoice."))
		})
		_, _, err := c.ExtractInvoice(context.Background(), "text")
		require.Error(t, err)
		assert.True(t, common.IsCode(err, common.CodeExtractionParse))
	})

	t.Run("remote failure maps to extraction code", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad key", http.StatusUnauthorized)
		})
		_, _, err := c.ExtractInvoice(context.Background(), "text")
		require.Error(t, err)
		assert.True(t, common.IsCode(err, common.CodeExtraction))
	})

	t.Run("empty choices is an extraction failure", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"choices":[]}`)
		})
		_, _, err := c.ExtractInvoice(context.Background(), "text")
		require.Error(t, err)
		assert.True(t, common.IsCode(err, common.CodeExtraction))
	})
}
