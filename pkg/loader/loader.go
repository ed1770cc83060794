// Package loader opens PDF, DOCX, and PPTX files and yields a Document
// handle carrying metadata plus the underlying parse state for the
// extractor.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/dtnitsch/llm-doc-parser/models"
	"github.com/dtnitsch/llm-doc-parser/pkg/ooxml"
)

// Document is a loaded input file. Exactly one of the format-specific
// handle sets is populated. Callers must Close it on all paths.
type Document struct {
	Meta models.Document

	pdfFile   *os.File
	pdfReader *pdf.Reader
	pdfCtx    *pdfmodel.Context
	pkg       *ooxml.Package
}

// PDFReader returns the positioned-text reader for PDF documents.
func (d *Document) PDFReader() *pdf.Reader { return d.pdfReader }

// PDFContext returns the pdfcpu context for PDF documents.
func (d *Document) PDFContext() *pdfmodel.Context { return d.pdfCtx }

// Package returns the OOXML package for DOCX and PPTX documents.
func (d *Document) Package() *ooxml.Package { return d.pkg }

// Close releases the underlying file handle. Safe to call more than once.
func (d *Document) Close() error {
	if d.pdfFile != nil {
		f := d.pdfFile
		d.pdfFile = nil
		return f.Close()
	}
	return nil
}

// Load opens the file at path, selecting the parser by extension, and
// returns a Document with populated metadata. Failures wrap ErrNotFound,
// ErrUnsupportedFormat, or ErrCorruptFile.
func Load(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return loadPDF(path, info.Size())
	case ".docx":
		return loadOOXML(path, models.FormatDOCX, info.Size())
	case ".pptx":
		return loadOOXML(path, models.FormatPPTX, info.Size())
	default:
		return nil, fmt.Errorf("%w: %q (want .pdf, .docx or .pptx)", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func loadPDF(path string, size int64) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	reader, err := pdf.NewReader(f, size)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptFile, path, err)
	}

	if _, err := f.Seek(0, 0); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("seek %s: %w", path, err)
	}
	ctx, err := api.ReadValidateAndOptimize(f, pdfmodel.NewDefaultConfiguration())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptFile, path, err)
	}

	doc := &Document{
		Meta: models.Document{
			Format:    models.FormatPDF,
			Path:      path,
			SizeBytes: size,
			PageCount: ctx.PageCount,
		},
		pdfFile:   f,
		pdfReader: reader,
		pdfCtx:    ctx,
	}
	readPDFInfo(ctx, &doc.Meta)
	return doc, nil
}

// readPDFInfo populates title/author/dates from the PDF Info dictionary.
// Missing or undecodable entries are simply left empty.
func readPDFInfo(ctx *pdfmodel.Context, meta *models.Document) {
	if ctx.Info == nil {
		return
	}
	d, err := ctx.DereferenceDict(*ctx.Info)
	if err != nil || d == nil {
		return
	}

	meta.Title = infoString(ctx, d, "Title")
	meta.Author = infoString(ctx, d, "Author")
	if s := infoString(ctx, d, "CreationDate"); s != "" {
		if t, ok := types.DateTime(s, true); ok {
			meta.CreatedAt = &t
		}
	}
	if s := infoString(ctx, d, "ModDate"); s != "" {
		if t, ok := types.DateTime(s, true); ok {
			meta.ModifiedAt = &t
		}
	}
}

func infoString(ctx *pdfmodel.Context, d types.Dict, key string) string {
	obj, found := d.Find(key)
	if !found {
		return ""
	}
	obj, err := ctx.Dereference(obj)
	if err != nil {
		return ""
	}
	switch v := obj.(type) {
	case types.StringLiteral:
		if s, err := types.StringLiteralToString(v); err == nil {
			return s
		}
	case types.HexLiteral:
		if s, err := types.HexLiteralToString(v); err == nil {
			return s
		}
	}
	return ""
}

func loadOOXML(path string, format models.Format, size int64) (*Document, error) {
	pkg, err := ooxml.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptFile, path, err)
	}

	// The main part must be present, otherwise the ZIP is not the
	// claimed format.
	mainPart := "word/document.xml"
	if format == models.FormatPPTX {
		mainPart = "ppt/presentation.xml"
	}
	if !pkg.HasPart(mainPart) {
		return nil, fmt.Errorf("%w: %s: missing %s", ErrCorruptFile, path, mainPart)
	}

	core, err := pkg.CoreProperties()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptFile, path, err)
	}
	app, err := pkg.AppProperties()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptFile, path, err)
	}

	meta := models.Document{
		Format:     format,
		Path:       path,
		SizeBytes:  size,
		Title:      core.Title,
		Author:     core.Creator,
		CreatedAt:  core.Created,
		ModifiedAt: core.Modified,
	}

	switch format {
	case models.FormatDOCX:
		meta.PageCount = app.Pages
		if meta.PageCount < 1 {
			meta.PageCount = 1
		}
	case models.FormatPPTX:
		meta.PageCount = app.Slides
		if meta.PageCount < 1 {
			meta.PageCount = len(pkg.SlideParts())
		}
		if meta.PageCount < 1 {
			meta.PageCount = 1
		}
	}

	return &Document{Meta: meta, pkg: pkg}, nil
}
