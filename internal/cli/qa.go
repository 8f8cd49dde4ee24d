package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"docqa/config"
	"docqa/internal/adapter/analyzer"
	"docqa/internal/adapter/cache"
	"docqa/internal/adapter/llm"
	"docqa/internal/adapter/retriever"
	"docqa/internal/adapter/store"
	"docqa/internal/logger"
	"docqa/internal/port"
	"docqa/internal/usecase"
)

var (
	qaFlags       collectionFlags
	qaProvider    string
	qaModel       string
	qaTopK        int
	qaShowSources bool
)

var qaCmd = &cobra.Command{
	Use:   "qa",
	Short: "Answer questions about a collection interactively",
	Long: `Start an interactive session. Each question retrieves the closest chunks
from the collection and asks the language model to answer from them.
Type "exit" or press Ctrl-D to quit.

Examples:
  docqa qa -c handbook
  docqa qa -c code --llm-provider ollama --llm-model llama3.1 -k 8 --show-sources`,
	RunE: runQA,
}

func init() {
	rootCmd.AddCommand(qaCmd)
	qaFlags.register(qaCmd)
	qaCmd.Flags().StringVar(&qaProvider, "llm-provider", "", "language model provider: openai, ollama, gemini (default from config)")
	qaCmd.Flags().StringVar(&qaModel, "llm-model", "", "language model name (default from config)")
	qaCmd.Flags().IntVarP(&qaTopK, "top-k", "k", 0, "chunks retrieved per question (default from config)")
	qaCmd.Flags().BoolVar(&qaShowSources, "show-sources", false, "list the sources each answer was based on")
}

// answerFunc answers one question.
type answerFunc func(ctx context.Context, question string) (*usecase.Answer, error)

func runQA(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := qaFlags.apply(cmd, cfg); err != nil {
		return err
	}
	if cmd.Flags().Changed("llm-provider") {
		cfg.LLM.Provider = qaProvider
		// Fall back to the provider's default model.
		if !cmd.Flags().Changed("llm-model") {
			cfg.LLM.Model = ""
		}
	}
	if cmd.Flags().Changed("llm-model") {
		cfg.LLM.Model = qaModel
	}
	if qaTopK > 0 {
		cfg.LLM.TopK = qaTopK
	}

	ctx := cmd.Context()
	coll, release, err := openCollection(ctx, cfg, qaFlags.collection)
	if err != nil {
		return err
	}
	defer release()

	creds, err := cfg.Credentials.ResolveCredentials()
	if err != nil {
		return err
	}
	model, err := llm.New(ctx, cfg.LLM, creds)
	if err != nil {
		return fmt.Errorf("failed to create language model: %w", err)
	}
	if c, ok := model.(io.Closer); ok {
		defer c.Close()
	}

	tokenizer := analyzer.NewTokenizer()
	qa := usecase.NewQAUseCase(
		newRetrieveUseCase(cfg, coll, tokenizer),
		usecase.NewPackUseCase(tokenizer),
		model,
		usecase.QAOptions{
			TopK:             cfg.LLM.TopK,
			MaxContextTokens: cfg.LLM.MaxContextTokens,
			LLMTimeout:       time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
		},
	)

	err = qaLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), qa.Answer, qaShowSources)
	if chat, ok := model.(*llm.ChatClient); ok {
		stats := chat.Stats()
		logger.Debug("qa session finished",
			"calls", stats.TotalCalls,
			"input_tokens", stats.TotalInputTokens,
			"output_tokens", stats.TotalOutputTokens)
	}
	return err
}

// newRetrieveUseCase wires the collection search with the optional cache
// and MMR reranker from the retrieve config.
func newRetrieveUseCase(cfg *config.Config, coll *store.Collection, tokenizer *analyzer.Tokenizer) *usecase.RetrieveUseCase {
	var searcher port.Searcher = coll
	if cfg.Retrieve.CacheSize > 0 {
		c := cache.NewSearchCache(cfg.Retrieve.CacheSize, time.Duration(cfg.Retrieve.CacheTTLSecs)*time.Second)
		searcher = cache.NewCachedSearcher(coll, coll.Name(), c)
	}

	var mmr *retriever.MMRReranker
	if cfg.Retrieve.MMRLambda > 0 {
		mmr = retriever.NewMMRReranker(cfg.Retrieve.MMRLambda, cfg.Retrieve.DedupJaccard, tokenizer)
	}

	return usecase.NewRetrieveUseCase(searcher, mmr, cfg.Retrieve.MinScore)
}

// qaLoop reads questions from in until "exit" or end of input and writes
// each answer to out. Blank lines are ignored. Any error ends the session.
func qaLoop(ctx context.Context, in io.Reader, out io.Writer, answer answerFunc, showSources bool) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, "Question: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" {
			return nil
		}

		ans, err := answer(ctx, question)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Answer: %s\n", ans.Text)
		if showSources {
			for i, s := range ans.Sources {
				if s.Page > 0 {
					fmt.Fprintf(out, "  [%d] %s (page %d, %s)\n", i+1, s.Path, s.Page, s.Range)
				} else {
					fmt.Fprintf(out, "  [%d] %s (%s)\n", i+1, s.Path, s.Range)
				}
			}
		}
		fmt.Fprintln(out)
	}
}
