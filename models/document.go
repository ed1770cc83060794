// Package models defines the data types shared across the extraction pipeline.
package models

import (
	"strings"
	"time"
)

// Format identifies a supported document format.
type Format string

const (
	FormatPDF  Format = "PDF"
	FormatDOCX Format = "DOCX"
	FormatPPTX Format = "PPTX"
)

// Document holds the metadata of one loaded input file.
// PageCount is the slide count for PPTX.
type Document struct {
	Format     Format     `json:"format"`
	Path       string     `json:"path"`
	SizeBytes  int64      `json:"size_bytes"`
	Title      string     `json:"title,omitempty"`
	Author     string     `json:"author,omitempty"`
	Language   string     `json:"language,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`
	PageCount  int        `json:"page_count"`
}

// Name returns the document's base file name without its extension.
func (d *Document) Name() string {
	base := d.Path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base
}

// TextBlock is one extracted run of text. Page is 1-based and means
// slide number for PPTX documents.
type TextBlock struct {
	Content  string  `json:"content"`
	Page     int     `json:"page"`
	Style    string  `json:"style,omitempty"`
	Heading  bool    `json:"heading,omitempty"`
	FontSize float64 `json:"font_size,omitempty"` // points, 0 when unknown
}

// Link is one extracted hyperlink. Text may be empty for formats that
// carry link targets without anchor text (PDF annotations).
type Link struct {
	Text string `json:"text,omitempty"`
	URL  string `json:"url"`
	Page int    `json:"page"`
}

// Image is one embedded image with its raw (still encoded) payload.
type Image struct {
	Data   []byte `json:"-"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"` // png, jpeg, tiff, ...
	Page   int    `json:"page"`
}

// Table is one extracted table, flattened to its outermost level.
type Table struct {
	Rows  int        `json:"rows"`
	Cols  int        `json:"cols"`
	Cells [][]string `json:"cells"`
	Page  int        `json:"page"`
}

// ExtractionResult aggregates everything extracted from one document.
// The collections are never nil; an empty document yields empty slices.
type ExtractionResult struct {
	Document Document    `json:"document"`
	Text     []TextBlock `json:"text"`
	Links    []Link      `json:"links"`
	Images   []Image     `json:"images"`
	Tables   []Table     `json:"tables"`
	Warnings []string    `json:"warnings,omitempty"`
}

// NewExtractionResult returns a result with all collections initialized.
func NewExtractionResult(doc Document) *ExtractionResult {
	return &ExtractionResult{
		Document: doc,
		Text:     []TextBlock{},
		Links:    []Link{},
		Images:   []Image{},
		Tables:   []Table{},
	}
}

// PlainText concatenates all text blocks in document order, one block
// per line. File storage writes exactly this for document.txt.
func (r *ExtractionResult) PlainText() string {
	var sb strings.Builder
	for _, b := range r.Text {
		sb.WriteString(b.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}
