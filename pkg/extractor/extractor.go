// Package extractor turns a loaded document into text blocks, links,
// images, and tables, each annotated with its page or slide number.
package extractor

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/pemistahl/lingua-go"

	"github.com/dtnitsch/llm-doc-parser/models"
	"github.com/dtnitsch/llm-doc-parser/pkg/loader"
)

// Extractor extracts content from loaded documents. The zero value is
// not usable; construct with New.
type Extractor struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// warnings collects recoverable extraction problems. A malformed element
// is skipped and recorded here rather than failing the whole document.
type warnings struct {
	logger *slog.Logger
	list   []string
}

func (w *warnings) addf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	w.list = append(w.list, msg)
	w.logger.Warn("extraction warning", "detail", msg)
}

// Text returns the document's text blocks in document order.
func (e *Extractor) Text(doc *loader.Document) ([]models.TextBlock, error) {
	return e.text(doc, e.newWarnings(doc))
}

// Links returns the document's hyperlinks in document order. Documents
// without links yield an empty slice, not an error.
func (e *Extractor) Links(doc *loader.Document) ([]models.Link, error) {
	return e.links(doc, e.newWarnings(doc))
}

// Images returns the document's embedded images in document order.
func (e *Extractor) Images(doc *loader.Document) ([]models.Image, error) {
	return e.images(doc, e.newWarnings(doc))
}

// Tables returns the document's tables, flattened to the outermost
// level, in document order.
func (e *Extractor) Tables(doc *loader.Document) ([]models.Table, error) {
	return e.tables(doc, e.newWarnings(doc))
}

// ExtractAll runs all four extractions and aggregates them, along with
// any warnings and the detected text language. OOXML content is parsed
// once and shared across the collections, so each recoverable problem
// is recorded exactly once.
func (e *Extractor) ExtractAll(doc *loader.Document) (*models.ExtractionResult, error) {
	w := e.newWarnings(doc)
	res := models.NewExtractionResult(doc.Meta)

	var c *content
	switch doc.Meta.Format {
	case models.FormatDOCX:
		parsed, err := docxParse(doc, w)
		if err != nil {
			return nil, err
		}
		c = parsed
	case models.FormatPPTX:
		parsed, err := pptxParse(doc, w)
		if err != nil {
			return nil, err
		}
		c = parsed
	case models.FormatPDF:
		c = newContent()
		pages := pdfRows(doc, w)
		c.blocks = textFromPages(pages)
		c.tables = tablesFromPages(pages)
		var err error
		if c.links, err = pdfLinks(doc, w); err != nil {
			return nil, err
		}
		if c.images, err = pdfImages(doc, w); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("no extractor for format %s", doc.Meta.Format)
	}

	res.Text = append(res.Text, clampTextPages(c.blocks, doc.Meta.PageCount)...)
	res.Links = append(res.Links, clampLinkPages(c.links, doc.Meta.PageCount)...)
	res.Images = append(res.Images, clampImagePages(c.images, doc.Meta.PageCount)...)
	res.Tables = append(res.Tables, clampTablePages(c.tables, doc.Meta.PageCount)...)
	res.Warnings = w.list
	res.Document.Language = detectLanguage(res.PlainText())
	return res, nil
}

func (e *Extractor) newWarnings(doc *loader.Document) *warnings {
	return &warnings{logger: e.logger.With("path", doc.Meta.Path)}
}

func (e *Extractor) text(doc *loader.Document, w *warnings) ([]models.TextBlock, error) {
	switch doc.Meta.Format {
	case models.FormatPDF:
		return clampTextPages(pdfText(doc, w), doc.Meta.PageCount), nil
	case models.FormatDOCX:
		c, err := docxParse(doc, w)
		if err != nil {
			return nil, err
		}
		return clampTextPages(c.blocks, doc.Meta.PageCount), nil
	case models.FormatPPTX:
		c, err := pptxParse(doc, w)
		if err != nil {
			return nil, err
		}
		return clampTextPages(c.blocks, doc.Meta.PageCount), nil
	default:
		return nil, fmt.Errorf("no text extractor for format %s", doc.Meta.Format)
	}
}

func (e *Extractor) links(doc *loader.Document, w *warnings) ([]models.Link, error) {
	switch doc.Meta.Format {
	case models.FormatPDF:
		links, err := pdfLinks(doc, w)
		return clampLinkPages(links, doc.Meta.PageCount), err
	case models.FormatDOCX:
		c, err := docxParse(doc, w)
		if err != nil {
			return nil, err
		}
		return clampLinkPages(c.links, doc.Meta.PageCount), nil
	case models.FormatPPTX:
		c, err := pptxParse(doc, w)
		if err != nil {
			return nil, err
		}
		return clampLinkPages(c.links, doc.Meta.PageCount), nil
	default:
		return nil, fmt.Errorf("no link extractor for format %s", doc.Meta.Format)
	}
}

func (e *Extractor) images(doc *loader.Document, w *warnings) ([]models.Image, error) {
	switch doc.Meta.Format {
	case models.FormatPDF:
		images, err := pdfImages(doc, w)
		return clampImagePages(images, doc.Meta.PageCount), err
	case models.FormatDOCX:
		c, err := docxParse(doc, w)
		if err != nil {
			return nil, err
		}
		return clampImagePages(c.images, doc.Meta.PageCount), nil
	case models.FormatPPTX:
		c, err := pptxParse(doc, w)
		if err != nil {
			return nil, err
		}
		return clampImagePages(c.images, doc.Meta.PageCount), nil
	default:
		return nil, fmt.Errorf("no image extractor for format %s", doc.Meta.Format)
	}
}

func (e *Extractor) tables(doc *loader.Document, w *warnings) ([]models.Table, error) {
	switch doc.Meta.Format {
	case models.FormatPDF:
		return clampTablePages(pdfTables(doc, w), doc.Meta.PageCount), nil
	case models.FormatDOCX:
		c, err := docxParse(doc, w)
		if err != nil {
			return nil, err
		}
		return clampTablePages(c.tables, doc.Meta.PageCount), nil
	case models.FormatPPTX:
		c, err := pptxParse(doc, w)
		if err != nil {
			return nil, err
		}
		return clampTablePages(c.tables, doc.Meta.PageCount), nil
	default:
		return nil, fmt.Errorf("no table extractor for format %s", doc.Meta.Format)
	}
}

// clampPage keeps every emitted index inside [1, pageCount]. DOCX page
// tracking relies on rendered page break markers, which can disagree
// with the page count recorded in app.xml.
func clampPage(p, pageCount int) int {
	if p < 1 {
		return 1
	}
	if pageCount > 0 && p > pageCount {
		return pageCount
	}
	return p
}

func clampTextPages(blocks []models.TextBlock, pageCount int) []models.TextBlock {
	for i := range blocks {
		blocks[i].Page = clampPage(blocks[i].Page, pageCount)
	}
	return blocks
}

func clampLinkPages(links []models.Link, pageCount int) []models.Link {
	for i := range links {
		links[i].Page = clampPage(links[i].Page, pageCount)
	}
	return links
}

func clampImagePages(images []models.Image, pageCount int) []models.Image {
	for i := range images {
		images[i].Page = clampPage(images[i].Page, pageCount)
	}
	return images
}

func clampTablePages(tables []models.Table, pageCount int) []models.Table {
	for i := range tables {
		tables[i].Page = clampPage(tables[i].Page, pageCount)
	}
	return tables
}

// The lingua detector loads its language models on first use, so it is
// built once and shared.
var (
	langOnce     sync.Once
	langDetector lingua.LanguageDetector
)

// detectLanguage classifies the document text. Short texts are left
// unclassified; the detector is unreliable below a few words.
func detectLanguage(text string) string {
	if len(text) < 40 {
		return ""
	}
	langOnce.Do(func() {
		langDetector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(
				lingua.English,
				lingua.French,
				lingua.German,
				lingua.Spanish,
				lingua.Italian,
				lingua.Portuguese,
			).
			Build()
	})
	if lang, ok := langDetector.DetectLanguageOf(text); ok {
		return lang.String()
	}
	return ""
}
