package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"docanalyzer/internal/common"
	"docanalyzer/internal/document"
	"docanalyzer/internal/llm"
)

// Upload is one file handed to the batch loop.
type Upload struct {
	Filename string
	Data     []byte
}

// DocumentResult is the full outcome for one successfully processed document:
// per-page OCR text in page order, the cleaned model JSON, and the normalized
// fields.
type DocumentResult struct {
	Filename  string
	PageTexts []string
	RawJSON   json.RawMessage
	Fields    llm.InvoiceFields
}

// DocumentFailure records a per-document error without stopping the batch.
type DocumentFailure struct {
	Filename string `json:"filename"`
	Code     string `json:"code,omitempty"`
	Error    string `json:"error"`
}

// BatchResult holds one entry per upload: Results in upload order for the
// documents that completed, Failures for the ones that did not.
type BatchResult struct {
	Results  []DocumentResult
	Failures []DocumentFailure
}

// Records returns the ordered ResultSet, one InvoiceFields per completed
// document.
func (b BatchResult) Records() []llm.InvoiceFields {
	out := make([]llm.InvoiceFields, 0, len(b.Results))
	for _, r := range b.Results {
		out = append(out, r.Fields)
	}
	return out
}

// Processor coordinates load -> OCR per page -> aggregate -> field extraction
// for each document.
type Processor struct {
	Loader    *document.Loader
	OCR       llm.TextExtractor
	Extractor llm.InvoiceExtractor
	Logger    *slog.Logger
}

func NewProcessor(loader *document.Loader, ocr llm.TextExtractor, extractor llm.InvoiceExtractor, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Loader: loader, OCR: ocr, Extractor: extractor, Logger: logger}
}

// AggregateText joins per-page OCR text into one document-level blob,
// preserving page order.
func AggregateText(pages []string) string {
	return strings.Join(pages, "\n")
}

// ProcessDocument runs the whole pipeline for one uploaded file.
func (p *Processor) ProcessDocument(ctx context.Context, filename string, data []byte) (DocumentResult, error) {
	start := time.Now()

	pages, err := p.Loader.Load(filename, data)
	if err != nil {
		p.Logger.Error("pipeline.load.failed", "filename", filename, "error", err)
		return DocumentResult{}, err
	}
	p.Logger.Info("pipeline.load.ok", "filename", filename, "pages", len(pages))

	texts := make([]string, 0, len(pages))
	for _, page := range pages {
		text, err := p.OCR.OCRPage(ctx, page.PNG)
		if err != nil {
			p.Logger.Error("pipeline.ocr.failed", "filename", filename, "page", page.Index+1, "error", err)
			return DocumentResult{}, err
		}
		texts = append(texts, text)
	}

	fields, raw, err := p.Extractor.ExtractInvoice(ctx, AggregateText(texts))
	if err != nil {
		p.Logger.Error("pipeline.extract.failed", "filename", filename, "error", err)
		return DocumentResult{}, err
	}

	p.Logger.Info("pipeline.document.ok",
		"filename", filename,
		"pages", len(pages),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return DocumentResult{
		Filename:  filename,
		PageTexts: texts,
		RawJSON:   raw,
		Fields:    fields,
	}, nil
}

// ProcessBatch runs documents strictly sequentially, in upload order. A
// failing document is recorded and skipped; it never stops the rest of the
// batch. A canceled context stops the loop, recording the remaining uploads
// as failures.
func (p *Processor) ProcessBatch(ctx context.Context, uploads []Upload) BatchResult {
	var out BatchResult
	for i, u := range uploads {
		if err := ctx.Err(); err != nil {
			for _, rest := range uploads[i:] {
				out.Failures = append(out.Failures, DocumentFailure{
					Filename: rest.Filename,
					Error:    err.Error(),
				})
			}
			break
		}
		res, err := p.ProcessDocument(ctx, u.Filename, u.Data)
		if err != nil {
			out.Failures = append(out.Failures, DocumentFailure{
				Filename: u.Filename,
				Code:     common.CodeOf(err),
				Error:    err.Error(),
			})
			continue
		}
		out.Results = append(out.Results, res)
	}
	p.Logger.Info("pipeline.batch.done",
		"uploads", len(uploads),
		"succeeded", len(out.Results),
		"failed", len(out.Failures),
	)
	return out
}
