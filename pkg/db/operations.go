package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtnitsch/llm-doc-parser/models"
)

// Image payload storage modes.
const (
	ImageStoreBlob = "blob"
	ImageStorePath = "path"
)

// InsertExtraction stores one result inside a single transaction and
// returns the generated document id. On any insert failure the whole
// transaction is rolled back. imagePaths is consulted in path mode and
// maps image index to the externally stored file.
func (db *DB) InsertExtraction(result *models.ExtractionResult, imageMode string, imagePaths map[int]string) (string, error) {
	docID := uuid.NewString()

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	doc := &result.Document
	_, err = tx.Exec(`
		INSERT INTO documents (id, path, format, size_bytes, title, author, language, created_at, modified_at, page_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, docID, doc.Path, string(doc.Format), doc.SizeBytes, doc.Title, doc.Author, doc.Language,
		timeOrNil(doc.CreatedAt), timeOrNil(doc.ModifiedAt), doc.PageCount)
	if err != nil {
		return "", fmt.Errorf("failed to insert document: %w", err)
	}

	for _, b := range result.Text {
		_, err = tx.Exec(`
			INSERT INTO text_blocks (document_id, page, content, style, heading, font_size)
			VALUES (?, ?, ?, ?, ?, ?)
		`, docID, b.Page, b.Content, b.Style, b.Heading, b.FontSize)
		if err != nil {
			return "", fmt.Errorf("failed to insert text block: %w", err)
		}
	}

	for _, l := range result.Links {
		_, err = tx.Exec(`
			INSERT INTO links (document_id, page, text, url)
			VALUES (?, ?, ?, ?)
		`, docID, l.Page, l.Text, l.URL)
		if err != nil {
			return "", fmt.Errorf("failed to insert link: %w", err)
		}
	}

	for i, img := range result.Images {
		var data []byte
		var path any
		if imageMode == ImageStorePath {
			path = imagePaths[i]
		} else {
			data = img.Data
		}
		_, err = tx.Exec(`
			INSERT INTO images (document_id, page, width, height, format, data, path)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, docID, img.Page, img.Width, img.Height, img.Format, data, path)
		if err != nil {
			return "", fmt.Errorf("failed to insert image: %w", err)
		}
	}

	for _, table := range result.Tables {
		cells, err := json.Marshal(table.Cells)
		if err != nil {
			return "", fmt.Errorf("failed to marshal table cells: %w", err)
		}
		_, err = tx.Exec(`
			INSERT INTO tables (document_id, page, row_count, col_count, data)
			VALUES (?, ?, ?, ?, ?)
		`, docID, table.Page, table.Rows, table.Cols, string(cells))
		if err != nil {
			return "", fmt.Errorf("failed to insert table: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return docID, nil
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// DocumentRow is one documents table row.
type DocumentRow struct {
	ID          string
	Path        string
	Format      string
	SizeBytes   int64
	Title       string
	Author      string
	Language    string
	PageCount   int
	ExtractedAt time.Time
}

// GetDocument returns a document row by id.
func (db *DB) GetDocument(id string) (*DocumentRow, error) {
	row := db.QueryRow(`
		SELECT id, path, format, size_bytes,
		       COALESCE(title, ''), COALESCE(author, ''), COALESCE(language, ''),
		       page_count, extracted_at
		FROM documents WHERE id = ?
	`, id)
	return scanDocument(row)
}

// LatestDocumentByPath returns the most recently extracted row for a
// source path, or nil when the path was never stored.
func (db *DB) LatestDocumentByPath(path string) (*DocumentRow, error) {
	row := db.QueryRow(`
		SELECT id, path, format, size_bytes,
		       COALESCE(title, ''), COALESCE(author, ''), COALESCE(language, ''),
		       page_count, extracted_at
		FROM documents WHERE path = ?
		ORDER BY extracted_at DESC, rowid DESC LIMIT 1
	`, path)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return doc, err
}

func scanDocument(row *sql.Row) (*DocumentRow, error) {
	var d DocumentRow
	err := row.Scan(&d.ID, &d.Path, &d.Format, &d.SizeBytes, &d.Title, &d.Author, &d.Language, &d.PageCount, &d.ExtractedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CountTextBlocks returns the number of stored text blocks for a document.
func (db *DB) CountTextBlocks(docID string) (int, error) {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM text_blocks WHERE document_id = ?", docID).Scan(&n)
	return n, err
}

// TextBlocks returns a document's text blocks in insertion (document) order.
func (db *DB) TextBlocks(docID string) ([]models.TextBlock, error) {
	rows, err := db.Query(`
		SELECT page, content, COALESCE(style, ''), heading, COALESCE(font_size, 0)
		FROM text_blocks WHERE document_id = ? ORDER BY id
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to query text blocks: %w", err)
	}
	defer rows.Close()

	var blocks []models.TextBlock
	for rows.Next() {
		var b models.TextBlock
		if err := rows.Scan(&b.Page, &b.Content, &b.Style, &b.Heading, &b.FontSize); err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// Links returns a document's links in insertion order.
func (db *DB) Links(docID string) ([]models.Link, error) {
	rows, err := db.Query(`
		SELECT page, COALESCE(text, ''), url FROM links WHERE document_id = ? ORDER BY id
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	var links []models.Link
	for rows.Next() {
		var l models.Link
		if err := rows.Scan(&l.Page, &l.Text, &l.URL); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// Images returns a document's image metadata (not payloads) in insertion order.
func (db *DB) Images(docID string) ([]models.Image, error) {
	rows, err := db.Query(`
		SELECT page, width, height, format FROM images WHERE document_id = ? ORDER BY id
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	var images []models.Image
	for rows.Next() {
		var img models.Image
		if err := rows.Scan(&img.Page, &img.Width, &img.Height, &img.Format); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// Tables returns a document's tables in insertion order, cells decoded
// from their JSON serialization.
func (db *DB) Tables(docID string) ([]models.Table, error) {
	rows, err := db.Query(`
		SELECT page, row_count, col_count, data FROM tables WHERE document_id = ? ORDER BY id
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []models.Table
	for rows.Next() {
		var t models.Table
		var data string
		if err := rows.Scan(&t.Page, &t.Rows, &t.Cols, &data); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &t.Cells); err != nil {
			return nil, fmt.Errorf("failed to decode table cells: %w", err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}
