package run

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"github.com/dtnitsch/llm-doc-parser/internal/fixtures"
	"github.com/dtnitsch/llm-doc-parser/models"
	"github.com/dtnitsch/llm-doc-parser/pkg/extractor"
	"github.com/dtnitsch/llm-doc-parser/pkg/loader"
	"github.com/dtnitsch/llm-doc-parser/pkg/storage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	mustWrite := func(rel string, data []byte) string {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	a := mustWrite("docs/a.docx", fixtures.Docx(`<w:p/>`, nil))
	b := mustWrite("docs/nested/b.pdf", fixtures.PDF(nil, fixtures.PDFPage{Text: "x"}))
	mustWrite("docs/skip.txt", []byte("not a document"))
	c := mustWrite("single.pptx", fixtures.Pptx([]string{`<p:sp/>`}, nil))

	files, err := collectFiles([]string{filepath.Join(dir, "docs"), c})
	if err != nil {
		t.Fatalf("collectFiles() error = %v", err)
	}

	sort.Strings(files)
	want := []string{a, b, c}
	sort.Strings(want)
	if !reflect.DeepEqual(files, want) {
		t.Errorf("collectFiles() = %v, want %v", files, want)
	}
}

func TestCollectFiles_ExplicitUnsupportedKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	files, err := collectFiles([]string{path})
	if err != nil {
		t.Fatalf("collectFiles() error = %v", err)
	}
	if len(files) != 1 || files[0] != path {
		t.Errorf("collectFiles() = %v, want the explicit argument", files)
	}
}

func TestProcessFile_Success(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.docx")
	body := `<w:p><w:r><w:t>Hello there.</w:t></w:r></w:p>`
	if err := os.WriteFile(path, fixtures.Docx(body, nil), 0644); err != nil {
		t.Fatal(err)
	}

	backend := storage.NewFileStorage(filepath.Join(dir, "out"))
	outcome := processFile(path, extractor.New(quietLogger()), backend, quietLogger())

	if outcome.Status != "success" {
		t.Fatalf("outcome = %+v", outcome)
	}
	if outcome.Format != "DOCX" || outcome.TextBlocks != 1 {
		t.Errorf("outcome = %+v", outcome)
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "DOCX", "text", "note", "document.txt")); err != nil {
		t.Errorf("stored artifact missing: %v", err)
	}
	// The file backend assigns no document id.
	if outcome.DocumentID != "" {
		t.Errorf("DocumentID = %q, want empty", outcome.DocumentID)
	}
}

func TestProcessFile_DatabaseBackendRecordsDocumentID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.docx")
	body := `<w:p><w:r><w:t>Hello there.</w:t></w:r></w:p>`
	if err := os.WriteFile(path, fixtures.Docx(body, nil), 0644); err != nil {
		t.Fatal(err)
	}

	backend, err := storage.NewDBStorage(
		models.DatabaseConfig{Path: filepath.Join(dir, "test.db")},
		models.ImagesConfig{},
		dir,
	)
	if err != nil {
		t.Fatal(err)
	}
	defer backend.Close()

	outcome := processFile(path, extractor.New(quietLogger()), backend, quietLogger())
	if outcome.Status != "success" {
		t.Fatalf("outcome = %+v", outcome)
	}
	if outcome.DocumentID == "" {
		t.Error("DocumentID empty for a database-backed save")
	}
	doc, err := backend.DB().GetDocument(outcome.DocumentID)
	if err != nil || doc == nil {
		t.Fatalf("stored document lookup failed: %v", err)
	}
}

func TestProcessFile_Failures(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "bad.docx")
	if err := os.WriteFile(corrupt, []byte("not a zip"), 0644); err != nil {
		t.Fatal(err)
	}
	unsupported := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(unsupported, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		path      string
		errorType string
	}{
		{"missing file", filepath.Join(dir, "gone.pdf"), "not_found"},
		{"unsupported extension", unsupported, "unsupported_format"},
		{"corrupt archive", corrupt, "corrupt_file"},
	}

	backend := storage.NewFileStorage(filepath.Join(dir, "out"))
	ext := extractor.New(quietLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := processFile(tt.path, ext, backend, quietLogger())
			if outcome.Status != "error" {
				t.Fatalf("outcome = %+v", outcome)
			}
			if outcome.ErrorType != tt.errorType {
				t.Errorf("ErrorType = %q, want %q", outcome.ErrorType, tt.errorType)
			}
			if outcome.ErrorMessage == "" {
				t.Error("ErrorMessage empty")
			}
		})
	}
}

func TestErrorType(t *testing.T) {
	wrap := func(sentinel error) error { return fmt.Errorf("%w: detail", sentinel) }
	tests := []struct {
		err  error
		want string
	}{
		{wrap(loader.ErrNotFound), "not_found"},
		{wrap(loader.ErrUnsupportedFormat), "unsupported_format"},
		{wrap(loader.ErrCorruptFile), "corrupt_file"},
		{wrap(storage.ErrIntegrity), "storage_integrity_error"},
		{wrap(storage.ErrConnection), "storage_connection_error"},
		{wrap(storage.ErrWrite), "storage_write_error"},
		{errors.New("anything else"), "error"},
	}
	for _, tt := range tests {
		if got := errorType(tt.err); got != tt.want {
			t.Errorf("errorType(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
