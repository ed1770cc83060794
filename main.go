package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/llm-doc-parser/internal/run"
	"github.com/dtnitsch/llm-doc-parser/internal/show"
	"github.com/dtnitsch/llm-doc-parser/models"
)

func main() {
	app := &cli.App{
		Name:  "ldp",
		Usage: "extract text, links, images, and tables from PDF, DOCX, and PPTX files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to YAML config file",
				Value:   "config.yaml",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "extract",
				Usage:     "extract data from documents and store it",
				ArgsUsage: "[files or directories...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "storage",
						Usage: "storage backend: file or database",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "output directory for the file backend",
					},
					&cli.StringFlag{
						Name:  "db",
						Usage: "sqlite database path for the database backend",
					},
					&cli.BoolFlag{
						Name:    "quiet",
						Aliases: []string{"q"},
						Usage:   "only log errors",
					},
				},
				Action: run.ExtractAction,
			},
			{
				Name:  "show",
				Usage: "print a stored extraction from the database",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "id",
						Usage: "document ID to show",
					},
					&cli.StringFlag{
						Name:  "path",
						Usage: "source file path; shows its latest extraction",
					},
					&cli.StringFlag{
						Name:  "db",
						Usage: "sqlite database path",
					},
				},
				Action: show.ShowAction,
			},
			{
				Name:  "formats",
				Usage: "list supported document formats",
				Action: func(c *cli.Context) error {
					for _, f := range []models.Format{models.FormatPDF, models.FormatDOCX, models.FormatPPTX} {
						fmt.Println(f)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
