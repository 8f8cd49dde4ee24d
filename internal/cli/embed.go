package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"docqa/internal/domain"
	"docqa/internal/usecase"
)

var (
	embedFlags     collectionFlags
	embedPath      string
	embedRecursive bool
	embedBatchSize int
	embedTypes     = map[domain.SourceType]*bool{}
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Load, split and embed documents into a collection",
	Long: `Load documents from a file or directory, split them into overlapping chunks,
embed every chunk and append the result to a named collection.

For a directory, select one or more file types. For a single file the type
is taken from its extension when no type flag is given.

Examples:
  docqa embed -p ./report.pdf -c reports
  docqa embed -p ./src -r --py --go -c code
  docqa embed -p ./notes --md -c notes --embedding-class openai \
    --embedding-kwargs '{"model":"text-embedding-3-small"}'`,
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(embedCmd)
	embedFlags.register(embedCmd)
	embedCmd.Flags().StringVarP(&embedPath, "document-path", "p", "", "file or directory to embed (default from config)")
	embedCmd.Flags().BoolVarP(&embedRecursive, "recursive", "r", false, "descend into subdirectories")
	embedCmd.Flags().IntVar(&embedBatchSize, "batch-size", 0, "chunks per embedding request (default from config)")

	for _, t := range []struct {
		typ   domain.SourceType
		usage string
	}{
		{domain.SourceText, "plain text files (.txt)"},
		{domain.SourcePDF, "PDF files (.pdf)"},
		{domain.SourcePython, "Python source (.py)"},
		{domain.SourceGo, "Go source (.go)"},
		{domain.SourceMarkdown, "Markdown files (.md)"},
		{domain.SourceDocx, "Word documents (.docx)"},
		{domain.SourceHTML, "HTML pages (.html)"},
	} {
		embedTypes[t.typ] = embedCmd.Flags().Bool(string(t.typ), false, "load "+t.usage)
	}
}

func runEmbed(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := embedFlags.apply(cmd, cfg); err != nil {
		return err
	}
	if cmd.Flags().Changed("document-path") {
		cfg.Ingest.DocumentPath = embedPath
	}
	batchSize := cfg.Embedding.BatchSize
	if embedBatchSize > 0 {
		batchSize = embedBatchSize
	}

	sources, err := usecase.NewSourceRegistry(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		return err
	}

	var requested []domain.SourceType
	for _, t := range sources.Types() {
		if on, ok := embedTypes[t]; ok && *on {
			requested = append(requested, t)
		}
	}

	out := cmd.OutOrStdout()
	producer := usecase.NewProducer(sources, cfg.Ingest.Excludes, out)
	ingest := usecase.NewIngestUseCase(producer, embedderFactory(cfg), out)

	_, err = ingest.Ingest(cmd.Context(), usecase.IngestRequest{
		Path:       cfg.Ingest.DocumentPath,
		Recursive:  embedRecursive,
		Types:      requested,
		StoreDir:   cfg.Store.PersistDir,
		Store:      storeOptions(cfg),
		Collection: embedFlags.collection,
		Backend:    cfg.Embedding.Class,
		BatchSize:  batchSize,
		Progress:   newProgressBar(cmd.ErrOrStderr(), "Embedding"),
	})
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}
	return nil
}
