package cli

import (
	"context"
	"fmt"
	"io"
	"trivia-rag/internal/app"

	"github.com/spf13/cobra"
)

var (
	queryText string
	queryTopK int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Print the context retrieved for a query",
	Long: `Query embeds the text and prints the k most similar chunks of the
collection, joined the same way they are passed to the question prompt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		components, err := app.Build(cfg)
		if err != nil {
			return err
		}
		defer components.Close()

		k := queryTopK
		if k <= 0 {
			k = cfg.RAG.TopK
		}
		return runQuery(cmd.Context(), cmd.OutOrStdout(), components, queryText, k)
	},
}

func init() {
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "query text")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of chunks (default is rag.top_k)")
	_ = queryCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(ctx context.Context, out io.Writer, c *app.Components, query string, k int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	text, err := c.Retriever.RelevantContext(ctx, query, k)
	if err != nil {
		return err
	}
	if text == "" {
		fmt.Fprintln(out, "The collection is empty.")
		return nil
	}
	fmt.Fprintln(out, text)
	return nil
}
