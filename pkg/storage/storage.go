// Package storage persists extraction results, either as organized
// files on disk or as rows in a relational database.
package storage

import (
	"errors"

	"github.com/dtnitsch/llm-doc-parser/models"
)

// Backend is the storage strategy. Both implementations append: saving
// the same document twice stores it twice, there is no upsert.
type Backend interface {
	// Save persists one extraction result and returns the stored
	// document's id, empty when the backend assigns none. Failures wrap
	// ErrWrite, ErrConnection, or ErrIntegrity.
	Save(result *models.ExtractionResult) (string, error)
	// Close releases backend resources.
	Close() error
}

// Sentinel errors for storage failures, matched with errors.Is.
var (
	// ErrWrite covers filesystem failures: permissions, disk full.
	ErrWrite = errors.New("storage write failed")
	// ErrConnection means the database could not be reached or opened.
	ErrConnection = errors.New("storage connection failed")
	// ErrIntegrity means a schema constraint rejected an insert.
	ErrIntegrity = errors.New("storage integrity violation")
)
