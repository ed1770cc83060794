package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dtnitsch/llm-doc-parser/models"
	"github.com/dtnitsch/llm-doc-parser/pkg/db"
)

// DBStorage persists results to SQLite. In path mode image payloads are
// written under imageRoot and the images table stores their paths.
type DBStorage struct {
	db        *db.DB
	imageMode string
	imageRoot string
}

// NewDBStorage opens (or creates) the database. cfg.Images.Store selects
// blob or path mode; imageRoot is only used in path mode.
func NewDBStorage(cfg models.DatabaseConfig, images models.ImagesConfig, imageRoot string) (*DBStorage, error) {
	database, err := db.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	mode := images.Store
	if mode == "" {
		mode = db.ImageStoreBlob
	}
	return &DBStorage{db: database, imageMode: mode, imageRoot: imageRoot}, nil
}

func (s *DBStorage) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for queries (used by the show command).
func (s *DBStorage) DB() *db.DB { return s.db }

// Save inserts one row family for the result and returns the generated
// document id. The insert runs in a transaction; a failure leaves no
// partial rows behind.
func (s *DBStorage) Save(result *models.ExtractionResult) (string, error) {
	var imagePaths map[int]string
	if s.imageMode == db.ImageStorePath {
		paths, err := s.writeImageFiles(result)
		if err != nil {
			return "", err
		}
		imagePaths = paths
	}

	id, err := s.db.InsertExtraction(result, s.imageMode, imagePaths)
	if err != nil {
		return "", classifyDBError(err)
	}
	return id, nil
}

func (s *DBStorage) writeImageFiles(result *models.ExtractionResult) (map[int]string, error) {
	dir := filepath.Join(s.imageRoot, string(result.Document.Format), "images", result.Document.Name())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: mkdir %s: %v", ErrWrite, dir, err)
	}

	paths := make(map[int]string, len(result.Images))
	for i, img := range result.Images {
		path := filepath.Join(dir, ImageFileName(i, img.Page, img.Format))
		if err := os.WriteFile(path, img.Data, 0644); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
		}
		paths[i] = path
	}
	return paths, nil
}

// classifyDBError maps SQLite failures onto the storage sentinels.
func classifyDBError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "constraint"):
		return fmt.Errorf("%w: %v", ErrIntegrity, err)
	case strings.Contains(msg, "unable to open") || strings.Contains(msg, "database is locked"):
		return fmt.Errorf("%w: %v", ErrConnection, err)
	default:
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
}
