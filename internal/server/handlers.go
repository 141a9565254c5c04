package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docanalyzer/internal/common"
	"docanalyzer/internal/pipeline"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Service) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index", gin.H{
		"OCRModel":   s.cfg.LLM.OCRModel,
		"ParseModel": s.cfg.LLM.ParseModel,
		"HasKey":     s.cfg.LLM.APIKey != "",
	})
}

// readBatch pulls settings and files out of the multipart form. A missing
// credential or an empty batch is a precondition failure: nothing is
// processed.
func (s *Service) readBatch(c *gin.Context) ([]pipeline.Upload, common.LLMConfig, error) {
	llmCfg := s.cfg.LLM
	if v := strings.TrimSpace(c.PostForm("api_key")); v != "" {
		llmCfg.APIKey = v
	}
	if v := strings.TrimSpace(c.PostForm("ocr_model")); v != "" {
		llmCfg.OCRModel = v
	}
	if v := strings.TrimSpace(c.PostForm("parse_model")); v != "" {
		llmCfg.ParseModel = v
	}
	if llmCfg.APIKey == "" {
		return nil, llmCfg, common.NewAppError(common.CodePrecondition, "enter an API key", common.ErrMissingCredential)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, llmCfg, common.NewAppError(common.CodePrecondition, "read multipart form", err)
	}
	files := form.File["documents"]
	if len(files) == 0 {
		return nil, llmCfg, common.NewAppError(common.CodePrecondition, "upload at least one file", common.ErrEmptyBatch)
	}

	uploads := make([]pipeline.Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, llmCfg, common.NewAppError(common.CodePrecondition, fmt.Sprintf("open upload %q", fh.Filename), err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, llmCfg, common.NewAppError(common.CodePrecondition, fmt.Sprintf("read upload %q", fh.Filename), err)
		}
		uploads = append(uploads, pipeline.Upload{Filename: fh.Filename, Data: data})
	}
	return uploads, llmCfg, nil
}

func (s *Service) handleProcess(c *gin.Context) {
	uploads, llmCfg, err := s.readBatch(c)
	if err != nil {
		s.logger.Warn("server.process.precondition", "error", err)
		c.HTML(http.StatusBadRequest, "error", gin.H{"Error": err.Error()})
		return
	}

	batch := s.newProcessor(llmCfg).ProcessBatch(c.Request.Context(), uploads)
	id := s.storeBatch(batch)

	c.HTML(http.StatusOK, "results", gin.H{
		"BatchID":  id,
		"Results":  resultViews(batch),
		"Failures": batch.Failures,
		"Header":   tableHeader(),
		"Rows":     s.tableRows(batch),
	})
}

func (s *Service) handleProcessAPI(c *gin.Context) {
	uploads, llmCfg, err := s.readBatch(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": common.CodeOf(err)})
		return
	}

	batch := s.newProcessor(llmCfg).ProcessBatch(c.Request.Context(), uploads)
	id := s.storeBatch(batch)

	results := make([]gin.H, 0, len(batch.Results))
	for _, r := range batch.Results {
		results = append(results, gin.H{
			"filename":   r.Filename,
			"page_texts": r.PageTexts,
			"fields":     r.Fields,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"batch_id": id,
		"results":  results,
		"failures": batch.Failures,
		"exports": gin.H{
			"csv":  "/batches/" + id + "/invoices.csv",
			"xlsx": "/batches/" + id + "/invoices.xlsx",
		},
	})
}

func (s *Service) handleDownloadCSV(c *gin.Context) {
	batch, ok := s.batch(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown batch"})
		return
	}
	data, err := s.exporter.WriteCSV(batch.Records())
	if err != nil {
		s.logger.Error("server.export.csv_failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "code": common.CodeExport})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="invoices.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}

func (s *Service) handleDownloadXLSX(c *gin.Context) {
	batch, ok := s.batch(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown batch"})
		return
	}
	data, err := s.exporter.WriteXLSX(batch.Records())
	if err != nil {
		s.logger.Error("server.export.xlsx_failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "code": common.CodeExport})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="invoices.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

type pageView struct {
	Number int
	Text   string
}

type resultView struct {
	Filename string
	Pages    []pageView
	JSON     string
}

func resultViews(batch pipeline.BatchResult) []resultView {
	views := make([]resultView, 0, len(batch.Results))
	for _, r := range batch.Results {
		pages := make([]pageView, 0, len(r.PageTexts))
		for i, t := range r.PageTexts {
			pages = append(pages, pageView{Number: i + 1, Text: t})
		}
		pretty, err := json.MarshalIndent(r.Fields, "", "  ")
		if err != nil {
			pretty = r.RawJSON
		}
		views = append(views, resultView{Filename: r.Filename, Pages: pages, JSON: string(pretty)})
	}
	return views
}
