package extractor

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dtnitsch/llm-doc-parser/models"
	"github.com/dtnitsch/llm-doc-parser/pkg/loader"
	"github.com/dtnitsch/llm-doc-parser/pkg/ooxml"
)

// pptxParse walks every slide part in slide order. A slide that fails
// to parse is skipped with a warning; the deck-level failure case is
// already covered by the loader.
func pptxParse(doc *loader.Document, w *warnings) (*content, error) {
	pkg := doc.Package()
	c := newContent()
	for i, part := range pkg.SlideParts() {
		if err := pptxSlide(pkg, part, i+1, c, w); err != nil {
			w.addf("slide %d: %v", i+1, err)
		}
	}
	return c, nil
}

func pptxSlide(pkg *ooxml.Package, part string, slideNr int, c *content, w *warnings) error {
	data, ok := pkg.Part(part)
	if !ok {
		return fmt.Errorf("slide part %s missing", part)
	}
	rels, err := pkg.Relationships(part)
	if err != nil {
		return err
	}

	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		inTxBody bool
		inPara   bool
		paraBuf  strings.Builder
		sizePts  float64

		inRun     bool
		runBuf    strings.Builder
		pendingID string

		inText bool

		// Title placeholders mark their shape's text as headings.
		shapeIsTitle bool

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
			return fmt.Errorf("parse %s: %w", part, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "sp":
				shapeIsTitle = false
			case "ph":
				if typ := attrVal(t, "type"); typ == "title" || typ == "ctrTitle" {
					shapeIsTitle = true
				}
			case "txBody":
				inTxBody = true
			case "p":
				if inTxBody && tableDepth == 0 {
					inPara = true
					paraBuf.Reset()
					sizePts = 0
				}
			case "r":
				inRun = true
				runBuf.Reset()
			case "rPr":
				// Font size in hundredths of a point.
				if inPara && sizePts == 0 {
					if v, err := strconv.ParseFloat(attrVal(t, "sz"), 64); err == nil {
						sizePts = v / 100
					}
				}
			case "hlinkClick":
				if id := attrValNS(t, relNS, "id"); id != "" {
					if inRun {
						pendingID = id
					} else {
						// Shape-level click action: no anchor text.
						appendSlideLink(c, rels, id, "", slideNr, w)
					}
				}
			case "t":
				inText = true
			case "blip":
				if id := attrValNS(t, relNS, "embed"); id != "" {
					img, err := resolveImage(pkg, rels, id, slideNr)
					if err != nil {
						w.addf("slide %d: image %s skipped: %v", slideNr, id, err)
					} else {
						c.images = append(c.images, img)
					}
				}
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
			default:
				if inRun {
					runBuf.WriteString(s)
				}
				if inPara {
					paraBuf.WriteString(s)
				}
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "r":
				if inRun && pendingID != "" {
					appendSlideLink(c, rels, pendingID, strings.TrimSpace(runBuf.String()), slideNr, w)
					pendingID = ""
				}
				inRun = false
			case "p":
				if inPara {
					inPara = false
					text := strings.TrimSpace(paraBuf.String())
					if text == "" {
						continue
					}
					c.blocks = append(c.blocks, models.TextBlock{
						Content:  text,
						Page:     slideNr,
						Heading:  shapeIsTitle,
						FontSize: sizePts,
					})
				}
			case "txBody":
				inTxBody = false
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
					c.tables = append(c.tables, tableFromCells(curTable, slideNr))
					curTable = nil
				}
				tableDepth--
			}
		}
	}

	return nil
}

func appendSlideLink(c *content, rels map[string]ooxml.Relationship, relID, text string, slideNr int, w *warnings) {
	rel, ok := rels[relID]
	if !ok {
		w.addf("slide %d: hyperlink %s: unresolved relationship", slideNr, relID)
		return
	}
	c.links = append(c.links, models.Link{Text: text, URL: rel.Target, Page: slideNr})
}
