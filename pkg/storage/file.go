package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dtnitsch/llm-doc-parser/models"
)

// FileStorage writes one artifact set per document under
// root/<FORMAT>/{text,links,images,tables}/<document-name>/.
type FileStorage struct {
	root string
}

func NewFileStorage(root string) *FileStorage {
	return &FileStorage{root: root}
}

func (s *FileStorage) Close() error { return nil }

// Save writes all four collections plus a metadata file. Existing files
// from a previous run of the same document are overwritten. The file
// backend assigns no document id.
func (s *FileStorage) Save(result *models.ExtractionResult) (string, error) {
	doc := &result.Document
	name := doc.Name()

	if err := s.saveText(result, name); err != nil {
		return "", err
	}
	if err := s.saveLinks(result, name); err != nil {
		return "", err
	}
	if err := s.saveImages(result, name); err != nil {
		return "", err
	}
	return "", s.saveTables(result, name)
}

// dir creates and returns root/<format>/<kind>/<doc-name>.
func (s *FileStorage) dir(doc *models.Document, kind, name string) (string, error) {
	dir := filepath.Join(s.root, string(doc.Format), kind, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: mkdir %s: %v", ErrWrite, dir, err)
	}
	return dir, nil
}

func (s *FileStorage) saveText(result *models.ExtractionResult, name string) error {
	dir, err := s.dir(&result.Document, "text", name)
	if err != nil {
		return err
	}

	// Per-page files, then the full concatenation in document order.
	byPage := map[int][]string{}
	for _, b := range result.Text {
		byPage[b.Page] = append(byPage[b.Page], b.Content)
	}
	for page, contents := range byPage {
		path := filepath.Join(dir, fmt.Sprintf("page_%d.txt", page))
		if err := writeFile(path, []byte(strings.Join(contents, "\n")+"\n")); err != nil {
			return err
		}
	}
	if err := writeFile(filepath.Join(dir, "document.txt"), []byte(result.PlainText())); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, "metadata.txt"), []byte(metadataText(&result.Document)))
}

func (s *FileStorage) saveLinks(result *models.ExtractionResult, name string) error {
	dir, err := s.dir(&result.Document, "links", name)
	if err != nil {
		return err
	}

	var sb strings.Builder
	for _, l := range result.Links {
		fmt.Fprintf(&sb, "%s\t%s\t%d\n", l.Text, l.URL, l.Page)
	}
	return writeFile(filepath.Join(dir, "links.txt"), []byte(sb.String()))
}

func (s *FileStorage) saveImages(result *models.ExtractionResult, name string) error {
	dir, err := s.dir(&result.Document, "images", name)
	if err != nil {
		return err
	}

	for i, img := range result.Images {
		path := filepath.Join(dir, ImageFileName(i, img.Page, img.Format))
		if err := writeFile(path, img.Data); err != nil {
			return err
		}
	}
	return nil
}

func (s *FileStorage) saveTables(result *models.ExtractionResult, name string) error {
	dir, err := s.dir(&result.Document, "tables", name)
	if err != nil {
		return err
	}

	for i, table := range result.Tables {
		path := filepath.Join(dir, fmt.Sprintf("table_%d.csv", i+1))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("%w: create %s: %v", ErrWrite, path, err)
		}
		cw := csv.NewWriter(f)
		for _, row := range table.Cells {
			if err := cw.Write(row); err != nil {
				_ = f.Close()
				return fmt.Errorf("%w: write %s: %v", ErrWrite, path, err)
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			_ = f.Close()
			return fmt.Errorf("%w: flush %s: %v", ErrWrite, path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("%w: close %s: %v", ErrWrite, path, err)
		}
	}
	return nil
}

// ImageFileName names a stored image by sequence and location, e.g.
// image_003_p2.png. Shared with the database backend's path mode.
func ImageFileName(seq, page int, format string) string {
	ext := format
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("image_%03d_p%d.%s", seq+1, page, ext)
}

func metadataText(doc *models.Document) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "path: %s\n", doc.Path)
	fmt.Fprintf(&sb, "format: %s\n", doc.Format)
	fmt.Fprintf(&sb, "size_bytes: %d\n", doc.SizeBytes)
	fmt.Fprintf(&sb, "title: %s\n", doc.Title)
	fmt.Fprintf(&sb, "author: %s\n", doc.Author)
	fmt.Fprintf(&sb, "language: %s\n", doc.Language)
	if doc.CreatedAt != nil {
		fmt.Fprintf(&sb, "created_at: %s\n", doc.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"))
	}
	if doc.ModifiedAt != nil {
		fmt.Fprintf(&sb, "modified_at: %s\n", doc.ModifiedAt.UTC().Format("2006-01-02T15:04:05Z"))
	}
	fmt.Fprintf(&sb, "page_count: %d\n", doc.PageCount)
	return sb.String()
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	return nil
}
