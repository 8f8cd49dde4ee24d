package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"docqa/internal/domain"
	"docqa/internal/usecase"
)

func echoAnswer(asked *[]string) answerFunc {
	return func(ctx context.Context, question string) (*usecase.Answer, error) {
		*asked = append(*asked, question)
		return &usecase.Answer{
			Text: "about " + question,
			Sources: []domain.Snippet{
				{Path: "/docs/a.pdf", Page: 2, Range: "bytes 0-10"},
				{Path: "/docs/b.txt", Range: "bytes 5-20"},
			},
		}, nil
	}
}

func TestQALoop(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantAsked []string
	}{
		{"exit ends the session", "first\nexit\nnever\n", []string{"first"}},
		{"end of input ends the session", "one\ntwo", []string{"one", "two"}},
		{"blank lines are skipped", "\n   \nreal question\n", []string{"real question"}},
		{"surrounding space is trimmed", "  padded  \nexit\n", []string{"padded"}},
		{"immediate exit", "exit\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var asked []string
			var out bytes.Buffer

			err := qaLoop(context.Background(), strings.NewReader(tt.input), &out, echoAnswer(&asked), false)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(asked) != len(tt.wantAsked) {
				t.Fatalf("asked %q, want %q", asked, tt.wantAsked)
			}
			for i := range asked {
				if asked[i] != tt.wantAsked[i] {
					t.Errorf("question %d = %q, want %q", i, asked[i], tt.wantAsked[i])
				}
				if !strings.Contains(out.String(), "Answer: about "+tt.wantAsked[i]) {
					t.Errorf("output missing answer for %q:\n%s", tt.wantAsked[i], out.String())
				}
			}
			if !strings.HasPrefix(out.String(), "Question: ") {
				t.Errorf("output should start with a prompt, got %q", out.String())
			}
		})
	}
}

func TestQALoop_ShowSources(t *testing.T) {
	var asked []string
	var out bytes.Buffer

	if err := qaLoop(context.Background(), strings.NewReader("q\n"), &out, echoAnswer(&asked), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := out.String()
	for _, want := range []string{"[1] /docs/a.pdf (page 2, bytes 0-10)", "[2] /docs/b.txt (bytes 5-20)"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestQALoop_ErrorEndsSession(t *testing.T) {
	boom := errors.New("model unavailable")
	calls := 0
	answer := func(ctx context.Context, question string) (*usecase.Answer, error) {
		calls++
		return nil, boom
	}

	err := qaLoop(context.Background(), strings.NewReader("a\nb\n"), &bytes.Buffer{}, answer, false)
	if !errors.Is(err, boom) {
		t.Fatalf("expected model error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected one call before stopping, got %d", calls)
	}
}
