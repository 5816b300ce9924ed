// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/libram"
	"github.com/poiesic/libram/ai"
	"github.com/poiesic/libram/core"
	"github.com/poiesic/libram/extract"
	"github.com/poiesic/libram/extract/pdf"
	"github.com/poiesic/libram/ingest"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "libram",
		Usage: "Local document library for retrieval-augmented generation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				EnvVars: []string{"LIBRAM_DB"},
				Value:   "./libram-db",
			},
			&cli.StringFlag{
				Name:    "ai-host",
				Usage:   "OpenAI-compatible service host URL",
				EnvVars: []string{"LIBRAM_AI_HOST"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				EnvVars: []string{"LIBRAM_EMBEDDING_MODEL"},
			},
			&cli.StringFlag{
				Name:    "generation-model",
				Usage:   "Generation model name for page classification",
				EnvVars: []string{"LIBRAM_GENERATION_MODEL"},
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "API token for the AI service",
				EnvVars: []string{"LIBRAM_TOKEN"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest a PDF into the library",
				ArgsUsage: "<pdf-path>",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "book",
						Usage: "Book name (defaults to a generated upload key)",
					},
					&cli.StringFlag{
						Name:  "subject",
						Usage: "Subject tag for the book",
					},
					&cli.StringSliceFlag{
						Name:  "meta",
						Usage: "Extra metadata as key=value (repeatable)",
					},
					&cli.StringFlag{
						Name:  "ocr-lang",
						Usage: "Tesseract language for OCR fallback",
						Value: "eng",
					},
					&cli.BoolFlag{
						Name:  "enrich",
						Usage: "Classify pages and skip front matter",
					},
					&cli.BoolFlag{
						Name:  "no-wait",
						Usage: "Return immediately instead of waiting for the job",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Retrieve context for a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "subject",
						Usage: "Subject to search within (synonyms applied)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum chunks in the context",
						Value: 5,
					},
					&cli.StringFlag{
						Name:  "book",
						Usage: "Restrict the search to one book",
					},
				},
			},
			{
				Name:   "books",
				Usage:  "List ingested books",
				Action: booksCommand,
			},
			{
				Name:      "delete",
				Usage:     "Delete a book's chunks",
				ArgsUsage: "<book-name>",
				Action:    deleteCommand,
			},
			{
				Name:   "clear",
				Usage:  "Delete every chunk in the library",
				Action: clearCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// aiConfig builds the provider configuration from global flags, leaving
// defaults in place for anything unset.
func aiConfig(c *cli.Context) *ai.Config {
	var opts []ai.ConfigOption
	if host := c.String("ai-host"); host != "" {
		opts = append(opts, ai.WithHost(host))
	}
	if model := c.String("embedding-model"); model != "" {
		opts = append(opts, ai.WithEmbeddingModel(model))
	}
	if model := c.String("generation-model"); model != "" {
		opts = append(opts, ai.WithGenerationModel(model))
	}
	if token := c.String("token"); token != "" {
		opts = append(opts, ai.WithToken(token))
	}
	return ai.NewConfig(opts...)
}

func openLibrary(c *cli.Context, pipelineOpts ...ingest.Option) (*libram.Library, error) {
	return libram.New(c.String("db"),
		libram.WithAIConfig(aiConfig(c)),
		libram.WithPipelineOptions(pipelineOpts...),
	)
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one PDF path argument")
	}
	path := c.Args().First()
	ctx := context.Background()

	metadata := map[string]string{}
	for _, pair := range c.StringSlice("meta") {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return fmt.Errorf("invalid metadata %q: expected key=value", pair)
		}
		metadata[key] = value
	}
	if book := c.String("book"); book != "" {
		metadata[core.MetaBookName] = book
	}
	if subject := c.String("subject"); subject != "" {
		metadata[core.MetaSubject] = subject
	}

	var pipelineOpts []ingest.Option
	if c.Bool("enrich") {
		pipelineOpts = append(pipelineOpts, ingest.WithEnrichment())
	}

	library, err := openLibrary(c, pipelineOpts...)
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer library.Close()

	source, err := pdf.Open(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	var recognizer extract.Recognizer = pdf.NewTesseractRecognizer(c.String("ocr-lang"))

	jobKey, err := library.StartIngestion(ctx, source, recognizer, metadata)
	if err != nil {
		return fmt.Errorf("ingestion rejected: %w", err)
	}
	fmt.Printf("job started: %s (%d pages)\n", jobKey, source.PageCount())

	if c.Bool("no-wait") {
		return nil
	}
	return waitForJob(library, jobKey)
}

func waitForJob(library *libram.Library, jobKey string) error {
	lastPage := -1
	for {
		record, ok := library.JobStatus(jobKey)
		if !ok {
			return fmt.Errorf("job %s disappeared from registry", jobKey)
		}

		if record.CurrentPage != lastPage {
			lastPage = record.CurrentPage
			fmt.Printf("\rpage %d/%d", record.CurrentPage, record.TotalPages)
		}

		if record.Status.Terminal() || record.Cancelled {
			fmt.Println()
			if record.Error != "" {
				return fmt.Errorf("ingestion failed: %s", record.Error)
			}
			fmt.Printf("job %s: %s\n", jobKey, record.Status)
			return nil
		}

		time.Sleep(250 * time.Millisecond)
	}
}

func searchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one query argument")
	}

	library, err := openLibrary(c)
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer library.Close()

	var filter map[string]string
	if book := c.String("book"); book != "" {
		filter = map[string]string{core.MetaBookName: book}
	}

	result, err := library.Retrieve(context.Background(),
		c.Args().First(), c.String("subject"), c.Int("limit"), filter)
	if err != nil {
		return err
	}
	if result == "" {
		fmt.Fprintln(os.Stderr, "no matching content")
		return nil
	}
	fmt.Print(result)
	return nil
}

func booksCommand(c *cli.Context) error {
	library, err := openLibrary(c)
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer library.Close()

	books, err := library.ListBooks(context.Background())
	if err != nil {
		return err
	}
	if len(books) == 0 {
		fmt.Println("no books ingested")
		return nil
	}

	for _, book := range books {
		subject := book.Subject
		if subject == "" {
			subject = "-"
		}
		fmt.Printf("%-40s  %-15s  %6d chunks  %s\n",
			book.BookName, subject, book.Chunks,
			book.LastInserted.Format(time.RFC3339))
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one book name argument")
	}

	library, err := openLibrary(c)
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer library.Close()

	deleted, err := library.DeleteBook(context.Background(), c.Args().First())
	if err != nil {
		return err
	}
	fmt.Printf("deleted %d chunks\n", deleted)
	return nil
}

func clearCommand(c *cli.Context) error {
	library, err := openLibrary(c)
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer library.Close()

	deleted, err := library.ClearAll(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("deleted %d chunks\n", deleted)
	return nil
}
