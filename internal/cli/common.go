package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docqa/config"
	"docqa/internal/adapter/embedding"
	"docqa/internal/adapter/store"
	"docqa/internal/domain"
	"docqa/internal/port"
	"docqa/internal/usecase"
)

// collectionFlags are shared by every command that touches a collection.
type collectionFlags struct {
	persistDir      string
	collection      string
	embeddingClass  string
	embeddingKwargs string
	strictBackend   bool
}

func (f *collectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.persistDir, "db-persist-dir", "", "store directory (default from config, ./db)")
	cmd.Flags().StringVarP(&f.collection, "collection-name", "c", "", "collection name (required)")
	cmd.Flags().StringVar(&f.embeddingClass, "embedding-class", "", "embedding backend: "+strings.Join(embedding.Names(), ", "))
	cmd.Flags().StringVar(&f.embeddingKwargs, "embedding-kwargs", "", `embedding options as JSON, e.g. '{"model":"all-minilm"}'`)
	cmd.Flags().BoolVar(&f.strictBackend, "strict-backend", false, "fail when the collection was built with another backend")
	cmd.MarkFlagRequired("collection-name")
}

// apply overrides cfg with the flags the user actually set.
func (f *collectionFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("db-persist-dir") {
		cfg.Store.PersistDir = f.persistDir
	}
	if cmd.Flags().Changed("embedding-class") {
		cfg.Embedding.Class = f.embeddingClass
		// Options of the configured backend rarely fit another one.
		if !cmd.Flags().Changed("embedding-kwargs") {
			cfg.Embedding.Options = nil
		}
	}
	if cmd.Flags().Changed("embedding-kwargs") {
		opts, err := embedding.ParseOptions(f.embeddingKwargs)
		if err != nil {
			return err
		}
		cfg.Embedding.Options = opts
	}
	if cmd.Flags().Changed("strict-backend") {
		cfg.Store.StrictBackend = f.strictBackend
	}
	if cfg.Embedding.Class == "" {
		cfg.Embedding.Class = embedding.DefaultBackend
	}
	return nil
}

func storeOptions(cfg *config.Config) store.Options {
	return store.Options{
		LockTimeout:   time.Duration(cfg.Store.LockTimeoutSecs) * time.Second,
		StrictBackend: cfg.Store.StrictBackend,
	}
}

// embedderFactory defers credential lookup and backend construction until
// the pipeline asks for an embedder.
func embedderFactory(cfg *config.Config) usecase.EmbedderFactory {
	return func(ctx context.Context) (port.Embedder, error) {
		creds, err := cfg.Credentials.ResolveCredentials()
		if err != nil {
			return nil, err
		}
		emb, err := embedding.Create(ctx, cfg.Embedding.Class, embedding.Options(cfg.Embedding.Options), creds)
		if err != nil {
			return nil, err
		}
		return embedding.WithTimeout(emb, time.Duration(cfg.Embedding.TimeoutSecs)*time.Second), nil
	}
}

// openCollection opens the store and an existing collection for querying.
// release closes the embedder and the store.
func openCollection(ctx context.Context, cfg *config.Config, name string) (*store.Collection, func(), error) {
	st, err := store.Open(cfg.Store.PersistDir, storeOptions(cfg))
	if err != nil {
		return nil, nil, err
	}

	emb, err := embedderFactory(cfg)(ctx)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	release := func() {
		if c, ok := emb.(io.Closer); ok {
			c.Close()
		}
		st.Close()
	}

	coll, err := st.OpenCollection(name, cfg.Embedding.Class, emb)
	if err != nil {
		release()
		if errors.Is(err, domain.ErrCollectionNotFound) {
			return nil, nil, fmt.Errorf("%w (run 'docqa embed -c %s' first)", err, name)
		}
		return nil, nil, fmt.Errorf("failed to open collection: %w", err)
	}
	return coll, release, nil
}

// newProgressBar returns an ingest progress callback. The bar is created on
// the first call, once the total is known.
func newProgressBar(w io.Writer, description string) func(done, total int) {
	var bar *progressbar.ProgressBar
	return func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]"+description+"[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(w)
				}),
			)
		}
		bar.Set(done)
	}
}
