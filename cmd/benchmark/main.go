package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docqa/config"
	"docqa/internal/adapter/embedding"
	"docqa/internal/adapter/store"
)

func main() {
	configDir := flag.String("config-dir", ".", "directory holding docqa.yaml")
	persistDir := flag.String("db", "", "store directory (default from config)")
	collection := flag.String("c", "", "collection to search")
	query := flag.String("q", "", "query to test")
	topK := flag.Int("k", 10, "number of results")
	flag.Parse()

	if *query == "" || *collection == "" {
		fmt.Println("Usage: go run ./cmd/benchmark -c handbook -q \"query\"")
		fmt.Println("\nReports:")
		fmt.Println("  1. Embedding backend and collection metadata")
		fmt.Println("  2. Query embedding and search latency")
		fmt.Println("  3. Similarity of the top matches")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *persistDir != "" {
		cfg.Store.PersistDir = *persistDir
	}

	st, err := store.Open(cfg.Store.PersistDir, store.Options{
		LockTimeout: time.Duration(cfg.Store.LockTimeoutSecs) * time.Second,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()
	creds, err := cfg.Credentials.ResolveCredentials()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading credentials: %v\n", err)
		os.Exit(1)
	}
	embedder, err := embedding.Create(ctx, cfg.Embedding.Class, embedding.Options(cfg.Embedding.Options), creds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedder init failed: %v\n", err)
		os.Exit(1)
	}
	if c, ok := embedder.(io.Closer); ok {
		defer c.Close()
	}

	coll, err := st.OpenCollection(*collection, cfg.Embedding.Class, embedder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening collection: %v\n", err)
		os.Exit(1)
	}
	info, err := coll.Info()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading collection: %v\n", err)
		os.Exit(1)
	}
	if info.Size == 0 {
		fmt.Fprintf(os.Stderr, "Collection %s is empty - run 'docqa embed' first\n", *collection)
		os.Exit(1)
	}

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Collection: %s (%d chunks)\n", info.Name, info.Size)
	fmt.Printf("Model: %s (%s)\n", info.Model, info.Backend)
	fmt.Printf("Dimension: %d\n", info.Dimension)
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	start := time.Now()
	results, err := coll.Search(ctx, *query, *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Searched in %s\n\n", time.Since(start).Round(time.Millisecond))

	fmt.Printf("Top %d matches:\n\n", len(results))

	totalScore := 0.0
	for i, r := range results {
		preview := r.Chunk.Text
		if len(preview) > 150 {
			preview = preview[:150] + "..."
		}
		preview = strings.ReplaceAll(preview, "\n", " ")

		similarity := r.Score
		totalScore += similarity

		rating := "LOW"
		if similarity > 0.7 {
			rating = "HIGH"
		} else if similarity > 0.5 {
			rating = "GOOD"
		} else if similarity > 0.3 {
			rating = "OK"
		}

		location := filepath.Base(r.Chunk.Source)
		if r.Chunk.Page > 0 {
			location = fmt.Sprintf("%s p%d", location, r.Chunk.Page)
		}
		fmt.Printf("%d. [%s %.3f] %s bytes %d-%d\n", i+1, rating, similarity, location, r.Chunk.Start, r.Chunk.End)
		fmt.Printf("   %s\n\n", preview)
	}

	if len(results) == 0 {
		return
	}

	avgScore := totalScore / float64(len(results))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average similarity: %.3f\n", avgScore)
	fmt.Printf("  Top-1 similarity:   %.3f\n", results[0].Score)

	if avgScore > 0.5 {
		fmt.Println("  Status: GOOD - retrieval working well")
	} else if avgScore > 0.3 {
		fmt.Println("  Status: OK - results are somewhat related")
	} else {
		fmt.Println("  Status: POOR - try another embedding model or smaller chunks")
	}
}
