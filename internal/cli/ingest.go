package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"trivia-rag/internal/adapter/loader"
	"trivia-rag/internal/app"
	"trivia-rag/internal/service"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	ingestReset bool
	ingestType  string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Chunk, embed and store documents in the vector index",
	Long: `Ingest reads each file (PDF, plain text or markdown), splits it into
overlapping chunks, embeds them and upserts them into the configured collection.
Re-ingesting an unchanged file replaces its chunks in place.

Examples:
  trivia-ingest ingest notes.md
  trivia-ingest ingest --reset book.pdf   # Start from an empty collection`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !ingestReset {
			return fmt.Errorf("no files given")
		}

		components, err := app.Build(cfg)
		if err != nil {
			return err
		}
		defer components.Close()

		return runIngest(cmd.Context(), cmd.OutOrStdout(), components, loader.New(), args, ingestOptions{
			reset:        ingestReset,
			documentType: ingestType,
		})
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestReset, "reset", false, "drop and recreate the collection before ingesting")
	ingestCmd.Flags().StringVar(&ingestType, "type", "", "document type stored with each chunk (default is the loader name)")
	rootCmd.AddCommand(ingestCmd)
}

type ingestOptions struct {
	reset        bool
	documentType string
}

type fileLoader interface {
	Load(path, name string) (loader.Document, error)
}

func runIngest(ctx context.Context, out io.Writer, c *app.Components, l fileLoader, paths []string, opts ingestOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.reset {
		if err := c.Index.Reset(ctx); err != nil {
			return fmt.Errorf("failed to reset collection: %w", err)
		}
		fmt.Fprintln(out, "Collection reset.")
	}

	totalChunks := 0
	for _, path := range paths {
		doc, err := l.Load(path, filepath.Base(path))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if strings.TrimSpace(doc.Text) == "" {
			fmt.Fprintf(out, "Skipping %s: no text\n", path)
			continue
		}

		docType := opts.documentType
		if docType == "" {
			docType = doc.Loader
		}

		var bar *progressbar.ProgressBar
		n, err := c.Indexer.Index(ctx, service.IndexRequest{
			Type:    docType,
			Source:  filepath.Base(path),
			Content: doc.Text,
			Progress: func(done, total int) {
				if bar == nil {
					bar = newProgressBar(out, total, filepath.Base(path))
				}
				_ = bar.Set(done)
			},
		})
		if err != nil {
			return fmt.Errorf("%s: indexing failed: %w", path, err)
		}
		totalChunks += n
		fmt.Fprintf(out, "Indexed %s (%s): %d chunks\n", path, doc.MimeType, n)
	}

	count, err := c.Index.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nIngest complete:\n")
	fmt.Fprintf(out, "  Files:             %d\n", len(paths))
	fmt.Fprintf(out, "  Chunks written:    %d\n", totalChunks)
	fmt.Fprintf(out, "  Collection size:   %d\n", count)
	return nil
}

func newProgressBar(out io.Writer, total int, name string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Embedding[reset] "+name),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(out)
		}),
	)
}
