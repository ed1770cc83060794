package extractor

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/dtnitsch/llm-doc-parser/models"
	"github.com/dtnitsch/llm-doc-parser/pkg/loader"
)

const (
	// rowTolerance groups positioned text into lines by Y coordinate.
	rowTolerance = 2.0
	// cellGap is the horizontal whitespace (points) that separates two
	// table cells on the same line.
	cellGap = 12.0
	// wordGap is the horizontal whitespace that separates two words.
	wordGap = 1.0
)

// textRow is one visual line of positioned text, left to right.
type textRow struct {
	y     float64
	items []pdf.Text
}

// pdfRows extracts the line-clustered positioned text of every page,
// indexed by page number minus one.
func pdfRows(doc *loader.Document, w *warnings) [][]textRow {
	r := doc.PDFReader()
	pages := make([][]textRow, r.NumPage())
	for pageNr := 1; pageNr <= r.NumPage(); pageNr++ {
		pages[pageNr-1] = pageRows(r, pageNr, w)
	}
	return pages
}

// pdfText emits one TextBlock per non-empty page, lines assembled from
// the positioned text run by run.
func pdfText(doc *loader.Document, w *warnings) []models.TextBlock {
	return textFromPages(pdfRows(doc, w))
}

func textFromPages(pages [][]textRow) []models.TextBlock {
	blocks := []models.TextBlock{}
	for i, rows := range pages {
		if len(rows) == 0 {
			continue
		}

		var sb strings.Builder
		fontCount := map[string]int{}
		sizeCount := map[float64]int{}
		for j, row := range rows {
			if j > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(strings.Join(splitCells(row), " "))
			for _, it := range row.items {
				fontCount[it.Font]++
				sizeCount[it.FontSize]++
			}
		}

		blocks = append(blocks, models.TextBlock{
			Content:  sb.String(),
			Page:     i + 1,
			Style:    dominantFont(fontCount),
			FontSize: dominantSize(sizeCount),
		})
	}
	return blocks
}

// pdfTables detects tables from the positioned text: two or more
// consecutive lines that split into the same number (>=2) of cells.
func pdfTables(doc *loader.Document, w *warnings) []models.Table {
	return tablesFromPages(pdfRows(doc, w))
}

func tablesFromPages(pages [][]textRow) []models.Table {
	tables := []models.Table{}
	for i, rows := range pages {
		tables = append(tables, tablesFromRows(rows, i+1)...)
	}
	return tables
}

// pageRows extracts and line-clusters the positioned text of one page.
// The pdf library panics on some malformed font programs; a page that
// cannot be read is skipped with a warning.
func pageRows(r *pdf.Reader, pageNr int, w *warnings) (rows []textRow) {
	defer func() {
		if rec := recover(); rec != nil {
			w.addf("page %d: text extraction failed: %v", pageNr, rec)
			rows = nil
		}
	}()

	p := r.Page(pageNr)
	if p.V.IsNull() {
		return nil
	}
	items := p.Content().Text
	if len(items) == 0 {
		return nil
	}

	// PDF Y grows upward: top of the page first, then left to right.
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Y != items[j].Y {
			return items[i].Y > items[j].Y
		}
		return items[i].X < items[j].X
	})

	for _, it := range items {
		if it.S == "" {
			continue
		}
		if n := len(rows); n > 0 && rows[n-1].y-it.Y <= rowTolerance {
			rows[n-1].items = append(rows[n-1].items, it)
			continue
		}
		rows = append(rows, textRow{y: it.Y, items: []pdf.Text{it}})
	}
	return rows
}

// splitCells breaks one line into cells at large horizontal gaps, and
// into words at small ones.
func splitCells(row textRow) []string {
	var cells []string
	var sb strings.Builder
	for i, it := range row.items {
		if i > 0 {
			prev := row.items[i-1]
			gap := it.X - (prev.X + prev.W)
			if gap > cellGap {
				cells = append(cells, strings.TrimSpace(sb.String()))
				sb.Reset()
			} else if gap > wordGap {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(it.S)
	}
	if s := strings.TrimSpace(sb.String()); s != "" || len(cells) > 0 {
		cells = append(cells, s)
	}
	return cells
}

func tablesFromRows(rows []textRow, page int) []models.Table {
	var out []models.Table
	var current [][]string
	cols := 0

	flush := func() {
		if len(current) >= 2 {
			out = append(out, models.Table{
				Rows:  len(current),
				Cols:  cols,
				Cells: current,
				Page:  page,
			})
		}
		current = nil
		cols = 0
	}

	for _, row := range rows {
		cells := splitCells(row)
		if len(cells) < 2 {
			flush()
			continue
		}
		if cols != 0 && len(cells) != cols {
			flush()
		}
		cols = len(cells)
		current = append(current, cells)
	}
	flush()
	return out
}

// pdfLinks walks the page tree and collects URI actions from Link
// annotations. PDF link annotations carry no anchor text.
func pdfLinks(doc *loader.Document, w *warnings) ([]models.Link, error) {
	ctx := doc.PDFContext()
	links := []models.Link{}

	catalog, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("pdf catalog: %w", err)
	}
	pagesObj, found := catalog.Find("Pages")
	if !found {
		return links, nil
	}

	pageNr := 0
	walkPageTree(ctx, pagesObj, &pageNr, &links, w)
	return links, nil
}

func walkPageTree(ctx *pdfmodel.Context, obj types.Object, pageNr *int, links *[]models.Link, w *warnings) {
	d, err := ctx.DereferenceDict(obj)
	if err != nil || d == nil {
		w.addf("page tree node unreadable: %v", err)
		return
	}

	// An inner node carries Kids; a leaf is a page.
	if kidsObj, found := d.Find("Kids"); found {
		kids, err := ctx.DereferenceArray(kidsObj)
		if err != nil {
			w.addf("page tree kids unreadable: %v", err)
			return
		}
		for _, kid := range kids {
			walkPageTree(ctx, kid, pageNr, links, w)
		}
		return
	}

	*pageNr++
	annotsObj, found := d.Find("Annots")
	if !found {
		return
	}
	annots, err := ctx.DereferenceArray(annotsObj)
	if err != nil {
		w.addf("page %d: annotations unreadable: %v", *pageNr, err)
		return
	}

	for _, a := range annots {
		ad, err := ctx.DereferenceDict(a)
		if err != nil || ad == nil {
			continue
		}
		if st := ad.NameEntry("Subtype"); st == nil || *st != "Link" {
			continue
		}
		actionObj, found := ad.Find("A")
		if !found {
			continue
		}
		action, err := ctx.DereferenceDict(actionObj)
		if err != nil || action == nil {
			continue
		}
		if s := action.NameEntry("S"); s == nil || *s != "URI" {
			continue
		}
		if uri := action.StringEntry("URI"); uri != nil && *uri != "" {
			*links = append(*links, models.Link{URL: *uri, Page: *pageNr})
		}
	}
}

// pdfImages collects image XObjects page by page. Payloads stay in their
// stream encoding; DCT streams are ready-to-use JPEG bytes.
func pdfImages(doc *loader.Document, w *warnings) ([]models.Image, error) {
	ctx := doc.PDFContext()
	images := []models.Image{}
	if ctx.Optimize == nil {
		return images, nil
	}

	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		objNrs := pdfcpu.ImageObjNrs(ctx, pageNr)
		sort.Ints(objNrs)
		for _, objNr := range objNrs {
			entry, ok := ctx.Table[objNr]
			if !ok || entry == nil {
				continue
			}
			sd, ok := entry.Object.(types.StreamDict)
			if !ok {
				continue
			}
			img, err := imageFromStreamDict(sd, pageNr)
			if err != nil {
				w.addf("page %d: image object %d skipped: %v", pageNr, objNr, err)
				continue
			}
			images = append(images, img)
		}
	}
	return images, nil
}

func imageFromStreamDict(sd types.StreamDict, page int) (models.Image, error) {
	width := sd.IntEntry("Width")
	height := sd.IntEntry("Height")
	if width == nil || height == nil {
		return models.Image{}, errors.New("missing dimensions")
	}
	if len(sd.Raw) == 0 {
		return models.Image{}, errors.New("empty image stream")
	}
	return models.Image{
		Data:   sd.Raw,
		Width:  *width,
		Height: *height,
		Format: pdfImageFormat(sd),
		Page:   page,
	}, nil
}

// pdfImageFormat maps the stream filter to an image encoding name.
// Flate-compressed raster data has no standalone file format and is
// reported as raw.
func pdfImageFormat(sd types.StreamDict) string {
	var filter string
	if name := sd.NameEntry("Filter"); name != nil {
		filter = *name
	} else if obj, found := sd.Find("Filter"); found {
		if arr, ok := obj.(types.Array); ok && len(arr) > 0 {
			if n, ok := arr[0].(types.Name); ok {
				filter = string(n)
			}
		}
	}

	switch filter {
	case "DCTDecode":
		return "jpeg"
	case "JPXDecode":
		return "jp2"
	case "CCITTFaxDecode":
		return "tiff"
	default:
		return "raw"
	}
}

func dominantFont(counts map[string]int) string {
	best, n := "", 0
	for font, c := range counts {
		if c > n || (c == n && font < best) {
			best, n = font, c
		}
	}
	return best
}

func dominantSize(counts map[float64]int) float64 {
	best, n := 0.0, 0
	for size, c := range counts {
		if c > n || (c == n && size > best) {
			best, n = size, c
		}
	}
	return best
}
