package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"docqa/internal/domain"
	"docqa/internal/logger"
	"docqa/internal/port"
)

//go:embed templates/qa_prompt.tmpl
var qaPromptText string

var qaPrompt = template.Must(template.New("qa").Parse(qaPromptText))

const qaSystemPrompt = "You answer questions about the user's documents using only the context you are given."

// Answer is a generated answer and the context it was based on.
type Answer struct {
	Text    string
	Sources []domain.Snippet
}

// QAOptions tunes retrieval and generation.
type QAOptions struct {
	TopK             int
	MaxContextTokens int
	LLMTimeout       time.Duration
}

// QAUseCase answers questions from a collection with a language model.
type QAUseCase struct {
	retrieve *RetrieveUseCase
	pack     *PackUseCase
	llm      port.LLM
	opts     QAOptions
}

// NewQAUseCase creates a new question answering use case.
func NewQAUseCase(retrieve *RetrieveUseCase, pack *PackUseCase, llm port.LLM, opts QAOptions) *QAUseCase {
	if opts.TopK <= 0 {
		opts.TopK = 4
	}
	if opts.MaxContextTokens <= 0 {
		opts.MaxContextTokens = 3000
	}
	return &QAUseCase{
		retrieve: retrieve,
		pack:     pack,
		llm:      llm,
		opts:     opts,
	}
}

// Answer retrieves context for question and asks the model. An empty
// collection still produces a call; the prompt tells the model to admit
// when it does not know.
func (u *QAUseCase) Answer(ctx context.Context, question string) (*Answer, error) {
	chunks, err := u.retrieve.Retrieve(ctx, question, u.opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	packed := u.pack.Pack(question, chunks, u.opts.MaxContextTokens)
	logger.Debug("packed context",
		"retrieved", len(chunks),
		"snippets", len(packed.Snippets),
		"tokens", packed.UsedTokens)

	prompt, err := renderPrompt(question, packed.Snippets)
	if err != nil {
		return nil, err
	}

	llmCtx := ctx
	if u.opts.LLMTimeout > 0 {
		var cancel context.CancelFunc
		llmCtx, cancel = context.WithTimeout(ctx, u.opts.LLMTimeout)
		defer cancel()
	}

	text, err := u.llm.Generate(llmCtx, qaSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer with %s: %w", u.llm.ModelName(), err)
	}

	return &Answer{
		Text:    strings.TrimSpace(text),
		Sources: packed.Snippets,
	}, nil
}

func renderPrompt(question string, snippets []domain.Snippet) (string, error) {
	var buf bytes.Buffer
	err := qaPrompt.Execute(&buf, struct {
		Question string
		Snippets []domain.Snippet
	}{question, snippets})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}
