// Package fixtures builds small in-memory PDF, DOCX, and PPTX files
// for tests.
package fixtures

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sort"
	"strings"
)

// Zip assembles an archive from part name to content. Entries are
// written in sorted order so output is deterministic.
func Zip(parts map[string][]byte) []byte {
	names := make([]string, 0, len(parts))
	for name := range parts {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write(parts[name]); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="xml" ContentType="application/xml"/>
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="png" ContentType="image/png"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const pptxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="xml" ContentType="application/xml"/>
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="png" ContentType="image/png"/>
  <Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>
</Types>`

const packageRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="%s"/>
</Relationships>`

// CoreXML renders a docProps/core.xml part.
func CoreXML(title, creator, created string) []byte {
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
  <dc:title>%s</dc:title>
  <dc:creator>%s</dc:creator>
  <dcterms:created xsi:type="dcterms:W3CDTF">%s</dcterms:created>
</cp:coreProperties>`, title, creator, created))
}

func appXML(field string, n int) []byte {
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">
  <%s>%d</%s>
</Properties>`, field, n, field))
}

// Docx builds a .docx archive. bodyXML goes inside <w:body>; extra parts
// (relationship files, media, replacement docProps) are merged in and may
// override the defaults.
func Docx(bodyXML string, extra map[string][]byte) []byte {
	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
<w:body>` + bodyXML + `</w:body>
</w:document>`

	parts := map[string][]byte{
		"[Content_Types].xml": []byte(docxContentTypes),
		"_rels/.rels":         []byte(fmt.Sprintf(packageRels, "word/document.xml")),
		"word/document.xml":   []byte(document),
		"docProps/core.xml":   CoreXML("Test Document", "Fixture Author", "2024-01-15T09:30:00Z"),
		"docProps/app.xml":    appXML("Pages", 1),
	}
	for name, data := range extra {
		parts[name] = data
	}
	return Zip(parts)
}

// DocxRels renders word/_rels/document.xml.rels from relationship XML
// fragments produced by Rel and ExternalRel.
func DocxRels(rels ...string) []byte {
	return relsXML(rels)
}

// Pptx builds a .pptx archive with one slide part per entry of slides;
// each entry goes inside <p:spTree>. extra parts are merged in and may
// override the defaults.
func Pptx(slides []string, extra map[string][]byte) []byte {
	parts := map[string][]byte{
		"[Content_Types].xml":  []byte(pptxContentTypes),
		"_rels/.rels":          []byte(fmt.Sprintf(packageRels, "ppt/presentation.xml")),
		"ppt/presentation.xml": []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?><p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"/>`),
		"docProps/core.xml":    CoreXML("Test Deck", "Fixture Author", "2024-01-15T09:30:00Z"),
		"docProps/app.xml":     appXML("Slides", len(slides)),
	}
	for i, body := range slides {
		slide := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<p:cSld><p:spTree>` + body + `</p:spTree></p:cSld>
</p:sld>`
		parts[fmt.Sprintf("ppt/slides/slide%d.xml", i+1)] = []byte(slide)
	}
	for name, data := range extra {
		parts[name] = data
	}
	return Zip(parts)
}

// Rel renders one internal relationship entry for a .rels part.
func Rel(id, relType, target string) string {
	return fmt.Sprintf(`<Relationship Id=%q Type=%q Target=%q/>`, id, relType, target)
}

// ExternalRel renders one external-mode relationship entry.
func ExternalRel(id, relType, target string) string {
	return fmt.Sprintf(`<Relationship Id=%q Type=%q Target=%q TargetMode="External"/>`, id, relType, target)
}

func relsXML(rels []string) []byte {
	return []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		strings.Join(rels, "") + `</Relationships>`)
}

// PNG encodes a solid-color PNG of the given dimensions.
func PNG(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 90, B: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// PDFText is one positioned text run on a page.
type PDFText struct {
	X, Y float64
	S    string
}

// PDFPage describes one page of a generated PDF: a text line at the
// top of the page, optional positioned text runs, and an optional link
// annotation.
type PDFPage struct {
	Text    string
	Items   []PDFText
	LinkURI string
}

// PDFInfo fills the generated document's Info dictionary.
type PDFInfo struct {
	Title  string
	Author string
}

// PDF writes a complete single-font PDF with a correct xref table. Each
// page renders its Text at the top left and its Items at their given
// positions, all in 12pt Helvetica.
func PDF(info *PDFInfo, pages ...PDFPage) []byte {
	var buf bytes.Buffer
	var offsets []int

	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	// Object layout: 1 catalog, 2 pages, 3 font, then a page and a
	// content stream per page, then the optional info dict.
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	writeObj(`<</Type /Catalog /Pages 2 0 R>>`)
	writeObj(fmt.Sprintf(`<</Type /Pages /Kids [%s] /Count %d>>`, strings.Join(kids, " "), len(pages)))
	writeObj(`<</Type /Font /Subtype /Type1 /BaseFont /Helvetica>>`)

	for i, p := range pages {
		annots := ""
		if p.LinkURI != "" {
			annots = fmt.Sprintf(` /Annots [<</Type /Annot /Subtype /Link /Rect [72 700 300 724] /Border [0 0 0] /A <</Type /Action /S /URI /URI (%s)>>>>]`, escapePDFString(p.LinkURI))
		}
		writeObj(fmt.Sprintf(`<</Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources <</Font <</F1 3 0 R>>>> /Contents %d 0 R%s>>`, 5+2*i, annots))

		items := p.Items
		if p.Text != "" {
			items = append([]PDFText{{X: 72, Y: 720, S: p.Text}}, items...)
		}
		ops := make([]string, len(items))
		for j, it := range items {
			ops[j] = fmt.Sprintf("BT /F1 12 Tf %g %g Td (%s) Tj ET", it.X, it.Y, escapePDFString(it.S))
		}
		stream := strings.Join(ops, "\n")
		writeObj(fmt.Sprintf("<</Length %d>>\nstream\n%s\nendstream", len(stream), stream))
	}

	trailerExtra := ""
	if info != nil {
		writeObj(fmt.Sprintf(`<</Title (%s) /Author (%s) /CreationDate (D:20240115093000Z)>>`,
			escapePDFString(info.Title), escapePDFString(info.Author)))
		trailerExtra = fmt.Sprintf(" /Info %d 0 R", len(offsets))
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<</Size %d /Root 1 0 R%s>>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, trailerExtra, xrefOffset)

	return buf.Bytes()
}

func escapePDFString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
