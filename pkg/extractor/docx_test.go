package extractor

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/dtnitsch/llm-doc-parser/internal/fixtures"
	"github.com/dtnitsch/llm-doc-parser/pkg/loader"
)

const (
	hyperlinkRelType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
	imageRelType     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
)

func testExtractor() *Extractor {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// loadFixture writes a document to disk and loads it; Close runs via
// test cleanup.
func loadFixture(t *testing.T, name string, data []byte) *loader.Document {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	doc, err := loader.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	t.Cleanup(func() { _ = doc.Close() })
	return doc
}

func TestDocxText(t *testing.T) {
	body := `<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:rPr><w:sz w:val="32"/></w:rPr><w:t>Introduction</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>` +
		`<w:p><w:r><w:lastRenderedPageBreak/><w:t>Second page text.</w:t></w:r></w:p>`
	extra := map[string][]byte{
		"docProps/app.xml": []byte(`<?xml version="1.0"?>
<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties"><Pages>2</Pages></Properties>`),
	}
	doc := loadFixture(t, "text.docx", fixtures.Docx(body, extra))

	blocks, err := testExtractor().Text(doc)
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(blocks))
	}

	h := blocks[0]
	if h.Content != "Introduction" || !h.Heading || h.Style != "Heading1" {
		t.Errorf("heading block = %+v", h)
	}
	if h.FontSize != 16 {
		t.Errorf("heading FontSize = %v, want 16", h.FontSize)
	}
	if blocks[1].Content != "First paragraph." || blocks[1].Page != 1 || blocks[1].Heading {
		t.Errorf("body block = %+v", blocks[1])
	}
	if blocks[2].Content != "Second page text." || blocks[2].Page != 2 {
		t.Errorf("page 2 block = %+v", blocks[2])
	}
}

func TestDocxText_PageClampedToPageCount(t *testing.T) {
	// Three rendered page breaks but app.xml claims a single page: the
	// emitted indexes must stay inside [1, PageCount].
	body := `<w:p><w:r><w:lastRenderedPageBreak/><w:lastRenderedPageBreak/><w:lastRenderedPageBreak/><w:t>Deep text</w:t></w:r></w:p>`
	doc := loadFixture(t, "clamp.docx", fixtures.Docx(body, nil))

	blocks, err := testExtractor().Text(doc)
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	if blocks[0].Page != doc.Meta.PageCount {
		t.Errorf("Page = %d, want %d", blocks[0].Page, doc.Meta.PageCount)
	}
}

func TestDocxLinks(t *testing.T) {
	body := `<w:p><w:r><w:t>See </w:t></w:r>` +
		`<w:hyperlink r:id="rId5"><w:r><w:t>Example Site</w:t></w:r></w:hyperlink></w:p>`
	extra := map[string][]byte{
		"word/_rels/document.xml.rels": fixtures.DocxRels(
			fixtures.ExternalRel("rId5", hyperlinkRelType, "https://example.com/docs"),
		),
	}
	doc := loadFixture(t, "links.docx", fixtures.Docx(body, extra))
	e := testExtractor()

	links, err := e.Links(doc)
	if err != nil {
		t.Fatalf("Links() error = %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("got %d links, want 1", len(links))
	}
	l := links[0]
	if l.Text != "Example Site" || l.URL != "https://example.com/docs" || l.Page != 1 {
		t.Errorf("link = %+v", l)
	}

	// Anchor text still belongs to the paragraph.
	blocks, err := e.Text(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 1 || blocks[0].Content != "See Example Site" {
		t.Errorf("blocks = %+v", blocks)
	}
}

func TestDocxLinks_UnresolvedRelationship(t *testing.T) {
	body := `<w:p><w:hyperlink r:id="rId9"><w:r><w:t>Broken</w:t></w:r></w:hyperlink></w:p>`
	doc := loadFixture(t, "broken.docx", fixtures.Docx(body, nil))

	res, err := testExtractor().ExtractAll(doc)
	if err != nil {
		t.Fatalf("ExtractAll() error = %v", err)
	}
	if len(res.Links) != 0 {
		t.Errorf("links = %+v, want none", res.Links)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("warnings = %v, want exactly one for the unresolved hyperlink", res.Warnings)
	}
}

func TestDocxLinkInsideTableCell(t *testing.T) {
	body := `<w:tbl><w:tr>` +
		`<w:tc><w:p><w:hyperlink r:id="rId7"><w:r><w:t>Pricing</w:t></w:r></w:hyperlink></w:p></w:tc>` +
		`<w:tc><w:p><w:r><w:t>Current</w:t></w:r></w:p></w:tc>` +
		`</w:tr></w:tbl>`
	extra := map[string][]byte{
		"word/_rels/document.xml.rels": fixtures.DocxRels(
			fixtures.ExternalRel("rId7", hyperlinkRelType, "https://example.com/pricing"),
		),
	}
	doc := loadFixture(t, "celllink.docx", fixtures.Docx(body, extra))
	e := testExtractor()

	links, err := e.Links(doc)
	if err != nil {
		t.Fatalf("Links() error = %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("got %d links, want 1", len(links))
	}
	if links[0].Text != "Pricing" || links[0].URL != "https://example.com/pricing" {
		t.Errorf("link = %+v", links[0])
	}

	// The anchor text still belongs to the cell.
	tables, err := e.Tables(doc)
	if err != nil {
		t.Fatalf("Tables() error = %v", err)
	}
	if len(tables) != 1 {
		t.Fatalf("got %d tables, want 1", len(tables))
	}
	want := [][]string{{"Pricing", "Current"}}
	if !reflect.DeepEqual(tables[0].Cells, want) {
		t.Errorf("cells = %v, want %v", tables[0].Cells, want)
	}
}

func TestDocxNoLinks(t *testing.T) {
	doc := loadFixture(t, "plain.docx", fixtures.Docx(`<w:p><w:r><w:t>Plain.</w:t></w:r></w:p>`, nil))
	links, err := testExtractor().Links(doc)
	if err != nil {
		t.Fatalf("Links() error = %v", err)
	}
	if links == nil {
		t.Fatal("Links() = nil, want empty slice")
	}
	if len(links) != 0 {
		t.Errorf("links = %+v", links)
	}
}

func TestDocxImages(t *testing.T) {
	png := fixtures.PNG(8, 6)
	body := `<w:p><w:r><w:drawing><a:blip r:embed="rId4"/></w:drawing></w:r></w:p>`
	extra := map[string][]byte{
		"word/_rels/document.xml.rels": fixtures.DocxRels(
			fixtures.Rel("rId4", imageRelType, "media/image1.png"),
		),
		"word/media/image1.png": png,
	}
	doc := loadFixture(t, "img.docx", fixtures.Docx(body, extra))

	images, err := testExtractor().Images(doc)
	if err != nil {
		t.Fatalf("Images() error = %v", err)
	}
	if len(images) != 1 {
		t.Fatalf("got %d images, want 1", len(images))
	}
	img := images[0]
	if img.Width != 8 || img.Height != 6 || img.Format != "png" || img.Page != 1 {
		t.Errorf("image = %dx%d %s p%d", img.Width, img.Height, img.Format, img.Page)
	}
	if len(img.Data) != len(png) {
		t.Errorf("payload size = %d, want %d", len(img.Data), len(png))
	}
}

func TestDocxImages_MissingMediaPart(t *testing.T) {
	body := `<w:p><w:r><w:drawing><a:blip r:embed="rId4"/></w:drawing></w:r></w:p>`
	extra := map[string][]byte{
		"word/_rels/document.xml.rels": fixtures.DocxRels(
			fixtures.Rel("rId4", imageRelType, "media/gone.png"),
		),
	}
	doc := loadFixture(t, "img.docx", fixtures.Docx(body, extra))

	res, err := testExtractor().ExtractAll(doc)
	if err != nil {
		t.Fatalf("ExtractAll() error = %v", err)
	}
	if len(res.Images) != 0 {
		t.Errorf("images = %+v, want none", res.Images)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("warnings = %v, want exactly one for the missing media part", res.Warnings)
	}
}

func TestDocxTables(t *testing.T) {
	body := `<w:tbl>` +
		`<w:tr><w:tc><w:p><w:r><w:t>Name</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Qty</w:t></w:r></w:p></w:tc></w:tr>` +
		`<w:tr><w:tc><w:p><w:r><w:t>Bolt</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>40</w:t></w:r></w:p></w:tc></w:tr>` +
		`</w:tbl>` +
		`<w:p><w:r><w:t>After.</w:t></w:r></w:p>`
	doc := loadFixture(t, "table.docx", fixtures.Docx(body, nil))
	e := testExtractor()

	tables, err := e.Tables(doc)
	if err != nil {
		t.Fatalf("Tables() error = %v", err)
	}
	if len(tables) != 1 {
		t.Fatalf("got %d tables, want 1", len(tables))
	}
	tbl := tables[0]
	if tbl.Rows != 2 || tbl.Cols != 2 || tbl.Page != 1 {
		t.Errorf("table = %dx%d p%d", tbl.Rows, tbl.Cols, tbl.Page)
	}
	want := [][]string{{"Name", "Qty"}, {"Bolt", "40"}}
	if !reflect.DeepEqual(tbl.Cells, want) {
		t.Errorf("cells = %v, want %v", tbl.Cells, want)
	}

	// Table text is not duplicated into the text blocks.
	blocks, err := e.Text(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 1 || blocks[0].Content != "After." {
		t.Errorf("blocks = %+v", blocks)
	}
}

func TestDocxNestedTableFlattened(t *testing.T) {
	body := `<w:tbl><w:tr>` +
		`<w:tc><w:p><w:r><w:t>Outer</w:t></w:r></w:p>` +
		`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Inner</w:t></w:r></w:p></w:tc></w:tr></w:tbl>` +
		`</w:tc>` +
		`<w:tc><w:p><w:r><w:t>B</w:t></w:r></w:p></w:tc>` +
		`</w:tr></w:tbl>`
	doc := loadFixture(t, "nested.docx", fixtures.Docx(body, nil))

	tables, err := testExtractor().Tables(doc)
	if err != nil {
		t.Fatalf("Tables() error = %v", err)
	}
	if len(tables) != 1 {
		t.Fatalf("got %d tables, want 1 (outermost only)", len(tables))
	}
	want := [][]string{{"OuterInner", "B"}}
	if !reflect.DeepEqual(tables[0].Cells, want) {
		t.Errorf("cells = %v, want %v", tables[0].Cells, want)
	}
}

func TestDocxEmptyDocument(t *testing.T) {
	doc := loadFixture(t, "empty.docx", fixtures.Docx("", nil))

	res, err := testExtractor().ExtractAll(doc)
	if err != nil {
		t.Fatalf("ExtractAll() error = %v", err)
	}
	if len(res.Text) != 0 || len(res.Links) != 0 || len(res.Images) != 0 || len(res.Tables) != 0 {
		t.Errorf("non-empty result for empty document: %+v", res)
	}
	if res.Text == nil || res.Links == nil || res.Images == nil || res.Tables == nil {
		t.Error("collections must be empty slices, not nil")
	}
}

func TestHeadingLevel(t *testing.T) {
	tests := []struct {
		style string
		want  int
	}{
		{"Heading1", 1},
		{"heading3", 3},
		{"Title", 1},
		{"Subtitle", 2},
		{"Titre2", 2},
		{"Normal", 0},
		{"Heading10", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := headingLevel(tt.style); got != tt.want {
			t.Errorf("headingLevel(%q) = %d, want %d", tt.style, got, tt.want)
		}
	}
}
