// Package report builds the run summary written after a batch: per-file
// status plus aggregate counts, as a single JSON file.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Summary is the structure of the summary JSON file. It provides a
// lightweight overview of a batch without re-reading the stored output.
type Summary struct {
	GeneratedAt string        `json:"generated_at"`
	TotalFiles  int           `json:"total_files"`
	Successful  int           `json:"successful"`
	Failed      int           `json:"failed"`
	Results     []FileSummary `json:"results"`
}

// FileSummary is the outcome for a single input file.
type FileSummary struct {
	Path         string `json:"path"`
	Format       string `json:"format,omitempty"`
	DocumentID   string `json:"document_id,omitempty"`
	Status       string `json:"status"` // "success" or "error"
	ErrorType    string `json:"error_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	TextBlocks   int    `json:"text_blocks,omitempty"`
	Links        int    `json:"links,omitempty"`
	Images       int    `json:"images,omitempty"`
	Tables       int    `json:"tables,omitempty"`
	Warnings     int    `json:"warnings,omitempty"`
}

// New returns an empty summary stamped with the current time.
func New() *Summary {
	return &Summary{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Results:     []FileSummary{},
	}
}

// Add appends one file outcome and updates the aggregate counters.
func (s *Summary) Add(fs FileSummary) {
	s.TotalFiles++
	if fs.Status == "success" {
		s.Successful++
	} else {
		s.Failed++
	}
	s.Results = append(s.Results, fs)
}

// Write saves the summary as indented JSON under dir and returns the
// file path.
func (s *Summary) Write(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create summary dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary: %w", err)
	}

	path := filepath.Join(dir, "summary.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}
	return path, nil
}
