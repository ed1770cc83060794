package loader

import "errors"

// Sentinel errors for load failures, matched with errors.Is. Every error
// returned by Load wraps exactly one of these.
var (
	// ErrNotFound means the input path does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrUnsupportedFormat means the extension is not pdf/docx/pptx.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrCorruptFile means the parsing library rejected the file.
	ErrCorruptFile = errors.New("corrupt file")
)
