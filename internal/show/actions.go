// Package show implements the show CLI command: print a stored
// extraction from the database.
package show

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/llm-doc-parser/models"
	dbpkg "github.com/dtnitsch/llm-doc-parser/pkg/db"
)

// textPreviewLen bounds the text dump, matching the summary-first output
// of the rest of the CLI.
const textPreviewLen = 500

// ShowAction prints one stored document: metadata, a text preview, and
// the link/image/table listings. Selected by --id, or by --path (latest
// extraction of that file).
func ShowAction(c *cli.Context) error {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("db") {
		cfg.Database.Path = c.String("db")
	}

	database, err := dbpkg.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	doc, err := resolveDocument(c, database)
	if err != nil {
		return err
	}

	fmt.Printf("========== %s (%s) ==========\n\n", doc.Path, doc.Format)
	fmt.Printf("ID:         %s\n", doc.ID)
	fmt.Printf("Title:      %s\n", doc.Title)
	fmt.Printf("Author:     %s\n", doc.Author)
	fmt.Printf("Language:   %s\n", doc.Language)
	fmt.Printf("Size:       %d bytes\n", doc.SizeBytes)
	fmt.Printf("Pages:      %d\n", doc.PageCount)
	fmt.Printf("Extracted:  %s\n", doc.ExtractedAt.Format("2006-01-02 15:04:05"))

	if err := printText(database, doc.ID); err != nil {
		return err
	}
	if err := printLinks(database, doc.ID); err != nil {
		return err
	}
	if err := printImages(database, doc.ID); err != nil {
		return err
	}
	return printTables(database, doc.ID)
}

func resolveDocument(c *cli.Context, database *dbpkg.DB) (*dbpkg.DocumentRow, error) {
	if id := c.String("id"); id != "" {
		doc, err := database.GetDocument(id)
		if err != nil {
			return nil, fmt.Errorf("document %s not found: %w", id, err)
		}
		return doc, nil
	}
	if path := c.String("path"); path != "" {
		doc, err := database.LatestDocumentByPath(path)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, fmt.Errorf("no stored extraction for %s", path)
		}
		return doc, nil
	}
	return nil, fmt.Errorf("pass --id or --path to select a document")
}

func printText(database *dbpkg.DB, docID string) error {
	blocks, err := database.TextBlocks(docID)
	if err != nil {
		return err
	}

	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(b.Content)
		sb.WriteString("\n")
	}
	text := sb.String()

	fmt.Printf("\n----- Text (%d blocks) -----\n", len(blocks))
	if len(text) > textPreviewLen {
		fmt.Printf("%s...\n", text[:textPreviewLen])
	} else {
		fmt.Print(text)
	}
	return nil
}

func printLinks(database *dbpkg.DB, docID string) error {
	links, err := database.Links(docID)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		return nil
	}

	fmt.Printf("\n----- Links (%d) -----\n", len(links))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PAGE\tTEXT\tURL")
	for _, l := range links {
		fmt.Fprintf(w, "%d\t%s\t%s\n", l.Page, l.Text, l.URL)
	}
	return w.Flush()
}

func printImages(database *dbpkg.DB, docID string) error {
	images, err := database.Images(docID)
	if err != nil {
		return err
	}
	if len(images) == 0 {
		return nil
	}

	fmt.Printf("\n----- Images (%d) -----\n", len(images))
	for i, img := range images {
		fmt.Printf("Image %d: %dx%d %s, page %d\n", i+1, img.Width, img.Height, img.Format, img.Page)
	}
	return nil
}

func printTables(database *dbpkg.DB, docID string) error {
	tables, err := database.Tables(docID)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		return nil
	}

	fmt.Printf("\n----- Tables (%d) -----\n", len(tables))
	for i, t := range tables {
		fmt.Printf("\nTable %d (%dx%d, page %d):\n", i+1, t.Rows, t.Cols, t.Page)
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, row := range t.Cells {
			fmt.Fprintln(w, strings.Join(row, "\t"))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}
