package document

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"

	"docanalyzer/constants"
	"docanalyzer/internal/common"
)

// Page is one rasterized document page, PNG-encoded. Pages are handed to the
// OCR stage and not retained afterwards.
type Page struct {
	Index int
	PNG   []byte
}

// Loader turns uploaded bytes into an ordered sequence of page images.
type Loader struct {
	dpi      int
	maxPages int
	logger   *slog.Logger
}

func NewLoader(cfg common.LoaderConfig, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	dpi := cfg.RenderDPI
	if dpi <= 0 {
		dpi = 200
	}
	return &Loader{dpi: dpi, maxPages: cfg.MaxPages, logger: logger}
}

// Load decodes data into page images. PDFs are rasterized one image per page,
// in page order; anything else is decoded as a single image. Malformed input
// fails with a DECODE error.
func (l *Loader) Load(filename string, data []byte) ([]Page, error) {
	switch constants.MapExtToFormat(filepath.Ext(filename)) {
	case constants.PDF:
		return l.loadPDF(filename, data)
	case constants.IMAGE:
		return l.loadImage(filename, data)
	default:
		// Unknown extensions still get an image decode attempt; the decoder
		// rejects what it cannot read.
		return l.loadImage(filename, data)
	}
}

func (l *Loader) loadPDF(filename string, data []byte) ([]Page, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, common.NewAppError(common.CodeDecode, fmt.Sprintf("open pdf %q", filename), err)
	}
	defer func() {
		if err := doc.Close(); err != nil {
			l.logger.Warn("loader.pdf.close_error", "filename", filename, "error", err)
		}
	}()

	n := doc.NumPage()
	if l.maxPages > 0 && n > l.maxPages {
		l.logger.Warn("loader.pdf.truncated", "filename", filename, "pages", n, "max_pages", l.maxPages)
		n = l.maxPages
	}

	pages := make([]Page, 0, n)
	for i := 0; i < n; i++ {
		img, err := doc.ImageDPI(i, float64(l.dpi))
		if err != nil {
			return nil, common.NewAppError(common.CodeDecode, fmt.Sprintf("render pdf %q page %d", filename, i+1), err)
		}
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, common.NewAppError(common.CodeDecode, fmt.Sprintf("encode pdf %q page %d", filename, i+1), err)
		}
		pages = append(pages, Page{Index: i, PNG: buf.Bytes()})
	}
	l.logger.Info("loader.pdf.ok", "filename", filename, "pages", len(pages), "dpi", l.dpi)
	return pages, nil
}

func (l *Loader) loadImage(filename string, data []byte) ([]Page, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, common.NewAppError(common.CodeDecode, fmt.Sprintf("decode image %q", filename), err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, common.NewAppError(common.CodeDecode, fmt.Sprintf("encode image %q", filename), err)
	}
	l.logger.Debug("loader.image.ok", "filename", filename)
	return []Page{{Index: 0, PNG: buf.Bytes()}}, nil
}
