package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"docanalyzer/internal/common"
	"docanalyzer/internal/llm"
)

// OCRPage implements llm.TextExtractor using a vision-capable
// chat/completions call. The page is sent inline as a base64 PNG data URI.
func (c *Client) OCRPage(ctx context.Context, png []byte) (string, error) {
	start := time.Now()
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)

	body := map[string]any{
		"model":       c.cfg.OCRModel,
		"temperature": 0,
		"messages": []map[string]any{
			{"role": "system", "content": ocrSystemPrompt},
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": ocrUserPrompt},
					{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
				},
			},
		},
	}

	content, err := c.complete(ctx, body)
	if err != nil {
		c.logger.Error("llm.ocr.failed",
			"model", c.cfg.OCRModel,
			"image_bytes", len(png),
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", common.NewAppError(common.CodeOCR, "ocr completion failed", err)
	}

	text := strings.TrimSpace(content)
	c.logger.Info("llm.ocr.ok",
		"model", c.cfg.OCRModel,
		"image_bytes", len(png),
		"text_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

// ExtractInvoice implements llm.InvoiceExtractor using text-only
// chat/completions. The response is fence-stripped, shape-validated, and
// numerically normalized before being returned.
func (c *Client) ExtractInvoice(ctx context.Context, text string) (llm.InvoiceFields, []byte, error) {
	start := time.Now()

	body := map[string]any{
		"model":       c.cfg.ParseModel,
		"temperature": 0,
		"messages": []map[string]any{
			{"role": "system", "content": invoiceSystemPrompt},
			{"role": "user", "content": text},
		},
	}

	content, err := c.complete(ctx, body)
	if err != nil {
		c.logger.Error("llm.extract.failed",
			"model", c.cfg.ParseModel,
			"text_len", len(text),
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.InvoiceFields{}, nil, common.NewAppError(common.CodeExtraction, "invoice completion failed", err)
	}

	fields, raw, err := llm.DecodeInvoiceJSON(content)
	if err != nil {
		c.logger.Error("llm.extract.parse_error",
			"model", c.cfg.ParseModel,
			"content_len", len(content),
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.InvoiceFields{}, raw, err
	}

	c.logger.Info("llm.extract.ok",
		"model", c.cfg.ParseModel,
		"vendor", strOrEmpty(fields.Vendor),
		"line_items", len(fields.LineItems),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return fields, raw, nil
}

// complete posts a chat/completions body and returns the first choice's
// message content.
func (c *Client) complete(ctx context.Context, body map[string]any) (string, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	raw, _, err := llm.SendJSON(ctx, c.httpClient, endpoint, body, headers, c.logger)
	if err != nil {
		return "", err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in openai response")
	}
	return cc.Choices[0].Message.Content, nil
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
