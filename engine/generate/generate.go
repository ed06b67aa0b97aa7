// Package generate builds the answer-synthesis prompt and invokes the LLM.
package generate

import (
	"context"
	"log/slog"
	"strings"

	"github.com/vidquest/engine/engine/domain"
	"github.com/vidquest/engine/pkg/ollama"
)

// SystemPrompt anchors instruction-following for every completion. It is
// fixed and independent of input.
const SystemPrompt = "You are a helpful assistant that answers questions about lecture content. " +
	"Answer only from the provided content, cite the source segments you used, " +
	"and say so explicitly when the content does not contain enough information."

// Completer abstracts the LLM endpoint.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts ollama.ChatOptions) (ollama.ChatResult, error)
}

// Options bounds each completion.
type Options struct {
	MaxTokens   int
	Temperature float32
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		MaxTokens:   1024,
		Temperature: 0.3,
	}
}

// Service is the response generation service.
type Service struct {
	llm    Completer
	opts   Options
	logger *slog.Logger
}

// New creates a generation Service.
func New(llm Completer, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{llm: llm, opts: opts, logger: logger}
}

// Generate synthesizes an answer to query from contextText. Any transport or
// malformed-response failure surfaces as a typed external-service error;
// there is no partial or guessed answer.
func (s *Service) Generate(ctx context.Context, query, contextText, additional string) (string, error) {
	prompt := BuildPrompt(query, contextText, additional)

	res, err := s.llm.Complete(ctx, SystemPrompt, prompt, ollama.ChatOptions{
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		return "", domain.E(domain.KindExternalService, "llm completion", err)
	}

	s.logger.Info("answer generated", "model", res.Model, "tokens", res.TokenCount)
	return res.Content, nil
}

// BuildPrompt assembles the user prompt: instruction header, content block,
// optional additional context, the literal question, and a closing
// instruction to acknowledge missing information rather than fabricate.
func BuildPrompt(query, contextText, additional string) string {
	var b strings.Builder
	b.WriteString("Here is the relevant lecture content:\n\n")
	b.WriteString(contextText)
	b.WriteString("\n\n")
	if additional != "" {
		b.WriteString("Additional context:\n")
		b.WriteString(additional)
		b.WriteString("\n\n")
	}
	b.WriteString("Question: ")
	b.WriteString(query)
	b.WriteString("\n\nAnswer clearly and completely. If the content above does not answer the question, say so instead of guessing.")
	return b.String()
}
