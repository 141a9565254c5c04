package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"docanalyzer/internal/common"
	"docanalyzer/internal/llm"
)

// Header shared by both encodings: the union of top-level InvoiceFields
// columns, with line_items carried as one serialized JSON cell rather than
// flattened.
var Header = []string{
	"vendor",
	"invoice_number",
	"date",
	"currency",
	"subtotal",
	"tax",
	"total",
	"line_items",
}

const SheetName = "Invoices"

// Service renders an ordered set of invoice records as CSV and XLSX bytes.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// WriteCSV encodes the records as UTF-8 CSV with a header row. Output is
// deterministic: the same records always produce identical bytes.
func (s *Service) WriteCSV(records []llm.InvoiceFields) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Header); err != nil {
		return nil, common.NewAppError(common.CodeExport, "write csv header", err)
	}
	for _, r := range records {
		row, err := Row(r)
		if err != nil {
			return nil, err
		}
		if err := w.Write(row); err != nil {
			return nil, common.NewAppError(common.CodeExport, "write csv row", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, common.NewAppError(common.CodeExport, "flush csv", err)
	}

	s.logger.Info("export.csv.ok", "rows", len(records), "bytes", buf.Len())
	return buf.Bytes(), nil
}

// WriteXLSX encodes the records as a single-sheet workbook. The workbook is
// written through a temporary file and read back as bytes for delivery.
func (s *Service) WriteXLSX(records []llm.InvoiceFields) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	if _, err := f.NewSheet(SheetName); err != nil {
		return nil, common.NewAppError(common.CodeExport, "create sheet", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, common.NewAppError(common.CodeExport, "drop default sheet", err)
	}
	index, _ := f.GetSheetIndex(SheetName)
	f.SetActiveSheet(index)

	for i, h := range Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}

	for rowIdx, r := range records {
		row, err := Row(r)
		if err != nil {
			return nil, err
		}
		for col, v := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			_ = f.SetCellValue(SheetName, cell, v)
		}
	}

	// Widen the text-heavy columns
	_ = f.SetColWidth(SheetName, "A", "A", 28) // vendor
	_ = f.SetColWidth(SheetName, "B", "D", 16) // invoice_number, date, currency
	_ = f.SetColWidth(SheetName, "E", "G", 12) // amounts
	_ = f.SetColWidth(SheetName, "H", "H", 60) // line_items

	tmp, err := os.CreateTemp("", "invoices-*.xlsx")
	if err != nil {
		return nil, common.NewAppError(common.CodeExport, "create temp file", err)
	}
	path := tmp.Name()
	if err := tmp.Close(); err != nil {
		return nil, common.NewAppError(common.CodeExport, "close temp file", err)
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			s.logger.Warn("export.xlsx.temp_cleanup_error", "path", path, "error", err)
		}
	}()

	if err := f.SaveAs(path); err != nil {
		return nil, common.NewAppError(common.CodeExport, "write workbook", err)
	}
	out, err := os.ReadFile(path)
	if err != nil {
		return nil, common.NewAppError(common.CodeExport, "read workbook back", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(records),
		"bytes", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// Row renders one record as string cells in Header order.
func Row(r llm.InvoiceFields) ([]string, error) {
	items := r.LineItems
	if items == nil {
		items = []llm.LineItem{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, common.NewAppError(common.CodeExport, "serialize line_items", err)
	}
	return []string{
		strValue(r.Vendor),
		strValue(r.InvoiceNumber),
		strValue(r.Date),
		strValue(r.Currency),
		numValue(r.Subtotal),
		numValue(r.Tax),
		numValue(r.Total),
		string(itemsJSON),
	}, nil
}

func strValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func numValue(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
