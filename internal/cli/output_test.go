package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"docqa/config"
	"docqa/internal/domain"
	"docqa/internal/usecase"
)

func TestCollectionFlags_Apply(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantDir     string
		wantClass   string
		wantOptions map[string]any
		wantStrict  bool
		wantErr     bool
	}{
		{
			name:        "unset flags keep config",
			args:        []string{"-c", "docs"},
			wantDir:     "./db",
			wantClass:   "ollama",
			wantOptions: map[string]any{"model": "all-minilm"},
		},
		{
			name:        "class change drops configured options",
			args:        []string{"-c", "docs", "--embedding-class", "hashing"},
			wantDir:     "./db",
			wantClass:   "hashing",
			wantOptions: nil,
		},
		{
			name:        "kwargs replace options",
			args:        []string{"-c", "docs", "--embedding-kwargs", `{"model":"nomic-embed-text"}`, "--db-persist-dir", "/tmp/x", "--strict-backend"},
			wantDir:     "/tmp/x",
			wantClass:   "ollama",
			wantOptions: map[string]any{"model": "nomic-embed-text"},
			wantStrict:  true,
		},
		{
			name:    "kwargs must be an object",
			args:    []string{"-c", "docs", "--embedding-kwargs", `["model"]`},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f collectionFlags
			cmd := &cobra.Command{Use: "test"}
			f.register(cmd)
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("parse flags: %v", err)
			}

			cfg := config.DefaultConfig()
			err := f.apply(cmd, cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("apply() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			if cfg.Store.PersistDir != tt.wantDir {
				t.Errorf("PersistDir = %q, want %q", cfg.Store.PersistDir, tt.wantDir)
			}
			if cfg.Embedding.Class != tt.wantClass {
				t.Errorf("Class = %q, want %q", cfg.Embedding.Class, tt.wantClass)
			}
			if len(cfg.Embedding.Options) != len(tt.wantOptions) {
				t.Errorf("Options = %v, want %v", cfg.Embedding.Options, tt.wantOptions)
			}
			for k, v := range tt.wantOptions {
				if cfg.Embedding.Options[k] != v {
					t.Errorf("Options[%s] = %v, want %v", k, cfg.Embedding.Options[k], v)
				}
			}
			if cfg.Store.StrictBackend != tt.wantStrict {
				t.Errorf("StrictBackend = %v, want %v", cfg.Store.StrictBackend, tt.wantStrict)
			}
			if f.collection != "docs" {
				t.Errorf("collection = %q, want docs", f.collection)
			}
		})
	}
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	printResults(&buf, "leave policy", []usecase.ScoredChunkResult{
		{Path: "/docs/handbook.pdf", Page: 3, Start: 0, End: 42, Score: 0.91, Text: "Employees get 25 days.\n"},
		{Path: "/docs/faq.txt", Start: 100, End: 700, Score: 0.5, Text: strings.Repeat("x", 600)},
	})
	out := buf.String()

	for _, want := range []string{
		"Found 2 results for: leave policy",
		"--- [1] /docs/handbook.pdf (page 3) bytes 0-42 (score: 0.910) ---",
		"--- [2] /docs/faq.txt bytes 100-700 (score: 0.500) ---",
		strings.Repeat("x", 500) + "...",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, strings.Repeat("x", 501)) {
		t.Error("long text should be truncated to 500 bytes")
	}
}

func TestPrintResults_Empty(t *testing.T) {
	var buf bytes.Buffer
	printResults(&buf, "anything", nil)
	if !strings.Contains(buf.String(), "No results found.") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc"},
		{"héllo", 2, "h"}, // é is two bytes starting at index 1
		{"日本", 4, "日"},
	}

	for _, tt := range tests {
		got := truncate(tt.in, tt.n)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.in, tt.n)
		}
	}
}

func TestPrintCollections(t *testing.T) {
	var buf bytes.Buffer
	created := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	err := printCollections(&buf, []domain.CollectionInfo{
		{Name: "handbook", Size: 120, Backend: "ollama", Model: "all-minilm", Dimension: 384, CreatedAt: created},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"NAME", "handbook", "120", "all-minilm", "384", "2024-05-01 12:30"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := printCollections(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No collections found.") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}
