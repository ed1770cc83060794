package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dtnitsch/llm-doc-parser/models"
)

func sampleResult() *models.ExtractionResult {
	created := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	res := models.NewExtractionResult(models.Document{
		Format:    models.FormatDOCX,
		Path:      "docs/report.docx",
		SizeBytes: 2048,
		Title:     "Quarterly Report",
		Author:    "J. Smith",
		Language:  "English",
		CreatedAt: &created,
		PageCount: 2,
	})
	res.Text = append(res.Text,
		models.TextBlock{Content: "Introduction", Page: 1, Heading: true, Style: "Heading1"},
		models.TextBlock{Content: "Body text.", Page: 1},
		models.TextBlock{Content: "Second page.", Page: 2},
	)
	res.Links = append(res.Links,
		models.Link{Text: "Example", URL: "https://example.com", Page: 1},
	)
	res.Images = append(res.Images,
		models.Image{Data: []byte{0x89, 0x50, 0x4e, 0x47}, Width: 8, Height: 6, Format: "png", Page: 1},
	)
	res.Tables = append(res.Tables,
		models.Table{Rows: 2, Cols: 2, Cells: [][]string{{"Name", "Qty"}, {"Bolt", "40"}}, Page: 2},
	)
	return res
}

func TestFileStorage_Layout(t *testing.T) {
	root := t.TempDir()
	s := NewFileStorage(root)
	res := sampleResult()

	id, err := s.Save(res)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if id != "" {
		t.Errorf("Save() id = %q, file backend assigns none", id)
	}

	base := filepath.Join(root, "DOCX")
	wantFiles := []string{
		filepath.Join(base, "text", "report", "document.txt"),
		filepath.Join(base, "text", "report", "page_1.txt"),
		filepath.Join(base, "text", "report", "page_2.txt"),
		filepath.Join(base, "text", "report", "metadata.txt"),
		filepath.Join(base, "links", "report", "links.txt"),
		filepath.Join(base, "images", "report", "image_001_p1.png"),
		filepath.Join(base, "tables", "report", "table_1.csv"),
	}
	for _, path := range wantFiles {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing artifact %s: %v", path, err)
		}
	}
}

func TestFileStorage_TextRoundTrip(t *testing.T) {
	root := t.TempDir()
	s := NewFileStorage(root)
	res := sampleResult()

	if _, err := s.Save(res); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "DOCX", "text", "report", "document.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != res.PlainText() {
		t.Errorf("document.txt = %q, want %q", data, res.PlainText())
	}

	page2, err := os.ReadFile(filepath.Join(root, "DOCX", "text", "report", "page_2.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(page2) != "Second page.\n" {
		t.Errorf("page_2.txt = %q", page2)
	}
}

func TestFileStorage_Metadata(t *testing.T) {
	root := t.TempDir()
	s := NewFileStorage(root)
	if _, err := s.Save(sampleResult()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "DOCX", "text", "report", "metadata.txt"))
	if err != nil {
		t.Fatal(err)
	}
	meta := string(data)
	for _, want := range []string{
		"title: Quarterly Report",
		"author: J. Smith",
		"page_count: 2",
		"created_at: 2024-01-15T09:30:00Z",
	} {
		if !strings.Contains(meta, want) {
			t.Errorf("metadata.txt missing %q:\n%s", want, meta)
		}
	}
}

func TestFileStorage_LinksAndTables(t *testing.T) {
	root := t.TempDir()
	s := NewFileStorage(root)
	if _, err := s.Save(sampleResult()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	links, err := os.ReadFile(filepath.Join(root, "DOCX", "links", "report", "links.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(links) != "Example\thttps://example.com\t1\n" {
		t.Errorf("links.txt = %q", links)
	}

	csvData, err := os.ReadFile(filepath.Join(root, "DOCX", "tables", "report", "table_1.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if string(csvData) != "Name,Qty\nBolt,40\n" {
		t.Errorf("table_1.csv = %q", csvData)
	}
}

func TestFileStorage_WriteErrorWrapped(t *testing.T) {
	// A file where the storage root should be makes every mkdir fail.
	rootFile := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(rootFile, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewFileStorage(rootFile)
	_, err := s.Save(sampleResult())
	if !errors.Is(err, ErrWrite) {
		t.Errorf("Save() error = %v, want ErrWrite", err)
	}
}

func TestImageFileName(t *testing.T) {
	tests := []struct {
		seq    int
		page   int
		format string
		want   string
	}{
		{0, 1, "png", "image_001_p1.png"},
		{2, 4, "jpeg", "image_003_p4.jpeg"},
		{9, 2, "", "image_010_p2.bin"},
	}
	for _, tt := range tests {
		if got := ImageFileName(tt.seq, tt.page, tt.format); got != tt.want {
			t.Errorf("ImageFileName(%d, %d, %q) = %q, want %q", tt.seq, tt.page, tt.format, got, tt.want)
		}
	}
}
