package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"

	"docanalyzer/constants"
	"docanalyzer/internal/common"
	"docanalyzer/internal/document"
	"docanalyzer/internal/export"
	"docanalyzer/internal/llm/openai"
	"docanalyzer/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir = flag.String("dir", "", "directory to process documents from (instead of file arguments)")
		out = flag.String("out", ".", "output directory for invoices.csv and invoices.xlsx")
	)
	flag.Parse()

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	paths, err := collectPaths(*dir, flag.Args())
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		printError("Error: no input files; pass file arguments or --dir\n")
		os.Exit(1)
	}

	uploads := make([]pipeline.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			printError("Error: read %s: %v\n", p, err)
			os.Exit(1)
		}
		uploads = append(uploads, pipeline.Upload{Filename: filepath.Base(p), Data: data})
	}

	ctx := context.Background()

	client := openai.NewClient(openai.Config{
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		OCRModel:   cfg.LLM.OCRModel,
		ParseModel: cfg.LLM.ParseModel,
		Timeout:    cfg.LLM.Timeout,
	}, logger)
	loader := document.NewLoader(cfg.Loader, logger)
	processor := pipeline.NewProcessor(loader, client, client, logger)

	logger.Info("starting batch", "files", len(uploads), "ocr_model", cfg.LLM.OCRModel, "parse_model", cfg.LLM.ParseModel)
	batch := processor.ProcessBatch(ctx, uploads)

	exporter := export.NewService(logger)
	records := batch.Records()

	csvPath := filepath.Join(*out, "invoices.csv")
	xlsxPath := filepath.Join(*out, "invoices.xlsx")
	exportFailed := false

	if data, err := exporter.WriteCSV(records); err != nil {
		logger.Error("csv export failed", "error", err)
		exportFailed = true
	} else if err := os.WriteFile(csvPath, data, 0644); err != nil {
		logger.Error("write csv", "path", csvPath, "error", err)
		exportFailed = true
	}

	if data, err := exporter.WriteXLSX(records); err != nil {
		logger.Error("xlsx export failed", "error", err)
		exportFailed = true
	} else if err := os.WriteFile(xlsxPath, data, 0644); err != nil {
		logger.Error("write xlsx", "path", xlsxPath, "error", err)
		exportFailed = true
	}

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files processed: %d\n", len(batch.Results))
	fmt.Printf("- Failures: %d\n", len(batch.Failures))
	for _, f := range batch.Failures {
		fmt.Printf("  - %s: %s\n", f.Filename, f.Error)
	}
	fmt.Printf("- Output: %s, %s\n", csvPath, xlsxPath)

	if exportFailed {
		os.Exit(1)
	}
}

// collectPaths merges explicit file arguments (kept in argument order) with a
// directory walk over the supported extensions (sorted for a stable order).
func collectPaths(dir string, args []string) ([]string, error) {
	paths := append([]string{}, args...)
	if dir == "" {
		return paths, nil
	}
	var walked []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := constants.NormalizeExt(filepath.Ext(path))
		if _, ok := constants.AllowedExtensions[ext]; ok {
			walked = append(walked, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(walked)
	return append(paths, walked...), nil
}
