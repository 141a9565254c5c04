package server

import (
	"html/template"
	"log/slog"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docanalyzer/internal/common"
	"docanalyzer/internal/document"
	"docanalyzer/internal/export"
	"docanalyzer/internal/llm/openai"
	"docanalyzer/internal/pipeline"
)

// ProcessorFactory builds a pipeline for one request. The form can override
// the configured credential and model identifiers per request, and tests
// substitute deterministic fakes here.
type ProcessorFactory func(cfg common.LLMConfig) *pipeline.Processor

// Service owns the HTTP surface: the upload form, the processing endpoint,
// and the export downloads. Completed batches stay in memory so the download
// links keep working after the results page renders.
type Service struct {
	cfg          *common.Config
	exporter     *export.Service
	newProcessor ProcessorFactory
	logger       *slog.Logger

	mu      sync.Mutex
	batches map[string]pipeline.BatchResult
}

func NewService(cfg *common.Config, newProcessor ProcessorFactory, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if newProcessor == nil {
		newProcessor = defaultProcessorFactory(cfg, logger)
	}
	return &Service{
		cfg:          cfg,
		exporter:     export.NewService(logger),
		newProcessor: newProcessor,
		logger:       logger,
		batches:      make(map[string]pipeline.BatchResult),
	}
}

func defaultProcessorFactory(cfg *common.Config, logger *slog.Logger) ProcessorFactory {
	return func(llmCfg common.LLMConfig) *pipeline.Processor {
		client := openai.NewClient(openai.Config{
			APIKey:     llmCfg.APIKey,
			BaseURL:    llmCfg.BaseURL,
			OCRModel:   llmCfg.OCRModel,
			ParseModel: llmCfg.ParseModel,
			Timeout:    llmCfg.Timeout,
		}, logger)
		loader := document.NewLoader(cfg.Loader, logger)
		return pipeline.NewProcessor(loader, client, client, logger)
	}
}

// Router wires the gin routes.
func (s *Service) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID())
	r.SetHTMLTemplate(template.Must(template.New("").Parse(pagesHTML)))

	r.GET("/", s.handleIndex)
	r.POST("/process", s.handleProcess)
	r.POST("/api/process", s.handleProcessAPI)
	r.GET("/batches/:id/invoices.csv", s.handleDownloadCSV)
	r.GET("/batches/:id/invoices.xlsx", s.handleDownloadXLSX)
	return r
}

// requestID tags every request context so remote-call logs correlate.
func (s *Service) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := common.WithRequestID(c.Request.Context(), uuid.New().String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Service) storeBatch(batch pipeline.BatchResult) string {
	id := uuid.New().String()
	s.mu.Lock()
	s.batches[id] = batch
	s.mu.Unlock()
	return id
}

func (s *Service) batch(id string) (pipeline.BatchResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[id]
	return b, ok
}
