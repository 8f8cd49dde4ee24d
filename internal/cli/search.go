package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"docqa/internal/adapter/analyzer"
	"docqa/internal/usecase"
)

var (
	searchFlags collectionFlags
	searchText  string
	searchTopK  int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Show the chunks closest to a query",
	Long: `Embed the query with the collection's backend and print the most similar
chunks without calling a language model.

Examples:
  docqa search -c handbook -q "parental leave"
  docqa search -c code -q "retry with backoff" -k 10 --json`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchFlags.register(searchCmd)
	searchCmd.Flags().StringVarP(&searchText, "query", "q", "", "search query (required)")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.MarkFlagRequired("query")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := searchFlags.apply(cmd, cfg); err != nil {
		return err
	}

	topK := cfg.LLM.TopK
	if searchTopK > 0 {
		topK = searchTopK
	}

	ctx := cmd.Context()
	coll, release, err := openCollection(ctx, cfg, searchFlags.collection)
	if err != nil {
		return err
	}
	defer release()

	retrieve := newRetrieveUseCase(cfg, coll, analyzer.NewTokenizer())
	chunks, err := retrieve.Retrieve(ctx, searchText, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	results := usecase.ToResults(chunks)
	if searchJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	printResults(cmd.OutOrStdout(), searchText, results)
	return nil
}

func printResults(w io.Writer, query string, results []usecase.ScoredChunkResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "Found %d results for: %s\n\n", len(results), query)
	for i, r := range results {
		location := r.Path
		if r.Page > 0 {
			location = fmt.Sprintf("%s (page %d)", r.Path, r.Page)
		}
		fmt.Fprintf(w, "--- [%d] %s bytes %d-%d (score: %.3f) ---\n", i+1, location, r.Start, r.End, r.Score)

		text := r.Text
		if len(text) > 500 {
			text = truncate(text, 500) + "..."
		}
		fmt.Fprintln(w, strings.TrimRight(text, "\n"))
		fmt.Fprintln(w)
	}
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
