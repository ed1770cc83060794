// Package run implements the extract CLI command: the per-file
// load → extract → save pipeline with batch reporting.
package run

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/llm-doc-parser/models"
	"github.com/dtnitsch/llm-doc-parser/pkg/extractor"
	"github.com/dtnitsch/llm-doc-parser/pkg/loader"
	"github.com/dtnitsch/llm-doc-parser/pkg/report"
	"github.com/dtnitsch/llm-doc-parser/pkg/storage"
)

// ExtractAction runs the pipeline over the files named on the command
// line (or in the config) and reports per-file results. The batch never
// stops on a single file's failure; the exit code is nonzero when any
// file failed.
func ExtractAction(c *cli.Context) error {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("storage") {
		cfg.Storage = c.String("storage")
	}
	if c.IsSet("output") {
		cfg.OutputDir = c.String("output")
	}
	if c.IsSet("db") {
		cfg.Database.Path = c.String("db")
	}

	inputs := c.Args().Slice()
	if len(inputs) == 0 {
		inputs = cfg.Inputs
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no input files: pass paths as arguments or set inputs in the config")
	}

	files, err := collectFiles(inputs)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no supported documents found (want .pdf, .docx, .pptx)")
	}

	logLevel := slog.LevelInfo
	if c.Bool("verbose") {
		logLevel = slog.LevelDebug
	}
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	backend, err := newBackend(cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	ext := extractor.New(logger)
	summary := report.New()

	for _, path := range files {
		outcome := processFile(path, ext, backend, logger)
		summary.Add(outcome)
		if outcome.Status == "success" {
			fmt.Printf("ok    %s (%d text, %d links, %d images, %d tables)\n",
				path, outcome.TextBlocks, outcome.Links, outcome.Images, outcome.Tables)
		} else {
			fmt.Printf("FAIL  %s: %s (%s)\n", path, outcome.ErrorMessage, outcome.ErrorType)
		}
	}

	summaryPath, err := summary.Write(cfg.OutputDir)
	if err != nil {
		logger.Error("failed to write summary", "error", err)
	} else {
		fmt.Printf("\n%d processed, %d ok, %d failed. Summary: %s\n",
			summary.TotalFiles, summary.Successful, summary.Failed, summaryPath)
	}

	if summary.Failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

// processFile runs one document through the pipeline. Every failure is
// caught here and reported; nothing aborts the batch.
func processFile(path string, ext *extractor.Extractor, backend storage.Backend, logger *slog.Logger) report.FileSummary {
	outcome := report.FileSummary{Path: path, Status: "error"}

	doc, err := loader.Load(path)
	if err != nil {
		outcome.ErrorType = errorType(err)
		outcome.ErrorMessage = err.Error()
		logger.Error("load failed", "path", path, "error", err)
		return outcome
	}
	defer doc.Close()
	outcome.Format = string(doc.Meta.Format)

	result, err := ext.ExtractAll(doc)
	if err != nil {
		outcome.ErrorType = "extract_error"
		outcome.ErrorMessage = err.Error()
		logger.Error("extraction failed", "path", path, "error", err)
		return outcome
	}
	outcome.TextBlocks = len(result.Text)
	outcome.Links = len(result.Links)
	outcome.Images = len(result.Images)
	outcome.Tables = len(result.Tables)
	outcome.Warnings = len(result.Warnings)

	id, err := backend.Save(result)
	if err != nil {
		// The file was extracted but not stored: partial failure.
		outcome.ErrorType = errorType(err)
		outcome.ErrorMessage = err.Error()
		logger.Error("storage failed", "path", path, "error", err)
		return outcome
	}
	outcome.DocumentID = id

	outcome.Status = "success"
	return outcome
}

// errorType names the failure class for the summary, mirroring the
// error taxonomy of the loader and storage packages.
func errorType(err error) string {
	switch {
	case errors.Is(err, loader.ErrNotFound):
		return "not_found"
	case errors.Is(err, loader.ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, loader.ErrCorruptFile):
		return "corrupt_file"
	case errors.Is(err, storage.ErrIntegrity):
		return "storage_integrity_error"
	case errors.Is(err, storage.ErrConnection):
		return "storage_connection_error"
	case errors.Is(err, storage.ErrWrite):
		return "storage_write_error"
	default:
		return "error"
	}
}

func newBackend(cfg *models.Config) (storage.Backend, error) {
	switch cfg.Storage {
	case models.StorageDatabase:
		return storage.NewDBStorage(cfg.Database, cfg.Images, cfg.OutputDir)
	default:
		return storage.NewFileStorage(cfg.OutputDir), nil
	}
}

// collectFiles expands directories into their supported documents and
// keeps explicit file arguments as-is, so that an unsupported explicit
// argument still surfaces as a per-file error.
func collectFiles(inputs []string) ([]string, error) {
	var files []string
	for _, input := range inputs {
		matches, err := filepath.Glob(input)
		if err != nil || len(matches) == 0 {
			matches = []string{input}
		}
		for _, m := range matches {
			expanded, err := expandPath(m)
			if err != nil {
				return nil, err
			}
			files = append(files, expanded...)
		}
	}
	return files, nil
}

func expandPath(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".pdf", ".docx", ".pptx":
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", path, err)
	}
	return files, nil
}
