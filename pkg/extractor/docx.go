package extractor

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dtnitsch/llm-doc-parser/models"
	"github.com/dtnitsch/llm-doc-parser/pkg/loader"
	"github.com/dtnitsch/llm-doc-parser/pkg/ooxml"
)

// relNS is the attribute namespace of r:id / r:embed references.
const relNS = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

// content is the per-format parse output shared by DOCX and PPTX.
type content struct {
	blocks []models.TextBlock
	links  []models.Link
	images []models.Image
	tables []models.Table
}

func newContent() *content {
	return &content{
		blocks: []models.TextBlock{},
		links:  []models.Link{},
		images: []models.Image{},
		tables: []models.Table{},
	}
}

// docxParse walks word/document.xml once and collects all four
// collections. Page numbers are tracked via rendered page break markers
// and explicit page breaks; documents saved without pagination markers
// come out as a single page.
func docxParse(doc *loader.Document, w *warnings) (*content, error) {
	pkg := doc.Package()
	data, ok := pkg.Part("word/document.xml")
	if !ok {
		return nil, errors.New("word/document.xml not found in archive")
	}
	rels, err := pkg.Relationships("word/document.xml")
	if err != nil {
		return nil, err
	}

	c := newContent()
	dec := xml.NewDecoder(bytes.NewReader(data))

	page := 1
	var (
		inParagraph bool
		style       string
		szHalfPts   float64
		textBuf     strings.Builder

		inHyperlink bool
		hlinkID     string
		hlinkBuf    strings.Builder

		inText bool

		tableDepth int
		curTable   [][]string
		curRow     []string
		inCell     bool
		cellBuf    strings.Builder
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				if tableDepth == 0 {
					inParagraph = true
					style = ""
					szHalfPts = 0
					textBuf.Reset()
				}
			case "pStyle":
				if inParagraph {
					style = attrVal(t, "val")
				}
			case "sz":
				if inParagraph && szHalfPts == 0 {
					if v, err := strconv.ParseFloat(attrVal(t, "val"), 64); err == nil {
						szHalfPts = v
					}
				}
			case "hyperlink":
				if id := attrValNS(t, relNS, "id"); id != "" {
					inHyperlink = true
					hlinkID = id
					hlinkBuf.Reset()
				}
			case "br":
				if attrVal(t, "type") == "page" {
					page++
				}
			case "lastRenderedPageBreak":
				page++
			case "blip":
				if id := attrValNS(t, relNS, "embed"); id != "" {
					img, err := resolveImage(pkg, rels, id, page)
					if err != nil {
						w.addf("image %s skipped: %v", id, err)
					} else {
						c.images = append(c.images, img)
					}
				}
			case "t":
				inText = true
			case "tbl":
				tableDepth++
				if tableDepth == 1 {
					curTable = nil
				}
			case "tr":
				if tableDepth == 1 {
					curRow = nil
				}
			case "tc":
				if tableDepth == 1 {
					inCell = true
					cellBuf.Reset()
				}
			}

		case xml.CharData:
			if !inText {
				break
			}
			s := string(t)
			switch {
			case tableDepth >= 1 && inCell:
				cellBuf.WriteString(s)
				if inHyperlink {
					hlinkBuf.WriteString(s)
				}
			case inHyperlink:
				hlinkBuf.WriteString(s)
				textBuf.WriteString(s)
			case inParagraph:
				textBuf.WriteString(s)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if tableDepth == 0 && inParagraph {
					inParagraph = false
					text := strings.TrimSpace(textBuf.String())
					if text == "" {
						continue
					}
					c.blocks = append(c.blocks, models.TextBlock{
						Content:  text,
						Page:     page,
						Style:    style,
						Heading:  headingLevel(style) > 0,
						FontSize: szHalfPts / 2,
					})
				}
			case "hyperlink":
				if !inHyperlink {
					continue
				}
				inHyperlink = false
				rel, ok := rels[hlinkID]
				if !ok {
					w.addf("hyperlink %s: unresolved relationship", hlinkID)
					continue
				}
				c.links = append(c.links, models.Link{
					Text: strings.TrimSpace(hlinkBuf.String()),
					URL:  rel.Target,
					Page: page,
				})
			case "tc":
				if tableDepth == 1 && inCell {
					inCell = false
					curRow = append(curRow, strings.TrimSpace(cellBuf.String()))
				}
			case "tr":
				if tableDepth == 1 && curRow != nil {
					curTable = append(curTable, curRow)
					curRow = nil
				}
			case "tbl":
				if tableDepth == 1 && len(curTable) > 0 {
					c.tables = append(c.tables, tableFromCells(curTable, page))
					curTable = nil
				}
				tableDepth--
			}
		}
	}

	return c, nil
}

// headingLevel maps a Word paragraph style to a heading level, 0 for
// body text. "Heading1" → 1, localized prefixes included.
func headingLevel(style string) int {
	lower := strings.ToLower(style)

	if lower == "title" {
		return 1
	}
	if lower == "subtitle" {
		return 2
	}

	for _, prefix := range []string{"heading", "titre", "überschrift"} {
		if strings.HasPrefix(lower, prefix) {
			rest := lower[len(prefix):]
			if len(rest) == 1 && rest[0] >= '1' && rest[0] <= '9' {
				return int(rest[0] - '0')
			}
		}
	}
	return 0
}

func tableFromCells(cells [][]string, page int) models.Table {
	cols := 0
	for _, row := range cells {
		if len(row) > cols {
			cols = len(row)
		}
	}
	return models.Table{Rows: len(cells), Cols: cols, Cells: cells, Page: page}
}

// resolveImage loads an embedded media part referenced by relationship
// ID and decodes its dimensions and encoding.
func resolveImage(pkg *ooxml.Package, rels map[string]ooxml.Relationship, relID string, page int) (models.Image, error) {
	rel, ok := rels[relID]
	if !ok {
		return models.Image{}, fmt.Errorf("relationship %s not found", relID)
	}
	if rel.IsExternal() {
		return models.Image{}, fmt.Errorf("external image target %s", rel.Target)
	}
	data, ok := pkg.Part(rel.Target)
	if !ok {
		return models.Image{}, fmt.Errorf("media part %s missing", rel.Target)
	}
	return decodeImage(data, page)
}

func attrVal(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func attrValNS(se xml.StartElement, space, local string) string {
	for _, a := range se.Attr {
		if a.Name.Space == space && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
