package generate

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/vidquest/engine/engine/domain"
	"github.com/vidquest/engine/pkg/ollama"
)

type mockCompleter struct {
	result     ollama.ChatResult
	err        error
	lastSystem string
	lastUser   string
	lastOpts   ollama.ChatOptions
}

func (m *mockCompleter) Complete(_ context.Context, system, user string, opts ollama.ChatOptions) (ollama.ChatResult, error) {
	m.lastSystem = system
	m.lastUser = user
	m.lastOpts = opts
	return m.result, m.err
}

func TestGenerate(t *testing.T) {
	llm := &mockCompleter{result: ollama.ChatResult{Content: "Backpropagation is a gradient computation algorithm...", Model: "llama3"}}
	svc := New(llm, DefaultOptions(), nil)

	got, err := svc.Generate(context.Background(), "What is backpropagation?", "1. Backprop computes gradients...", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Backpropagation is a gradient computation algorithm..." {
		t.Errorf("unexpected answer: %q", got)
	}

	if llm.lastSystem != SystemPrompt {
		t.Error("fixed system prompt must accompany every call")
	}
	if !strings.Contains(llm.lastUser, "Question: What is backpropagation?") {
		t.Errorf("prompt missing literal question:\n%s", llm.lastUser)
	}
	if !strings.Contains(llm.lastUser, "Backprop computes gradients...") {
		t.Error("prompt missing context block")
	}
	if llm.lastOpts.MaxTokens != 1024 {
		t.Errorf("max tokens not applied: %+v", llm.lastOpts)
	}
}

func TestGenerate_LLMError(t *testing.T) {
	svc := New(&mockCompleter{err: fmt.Errorf("connection refused")}, DefaultOptions(), nil)

	_, err := svc.Generate(context.Background(), "q", "ctx", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if domain.KindOf(err) != domain.KindExternalService {
		t.Errorf("expected external_service kind, got %s", domain.KindOf(err))
	}
}

func TestBuildPrompt_AdditionalContext(t *testing.T) {
	p := BuildPrompt("q", "ctx", "course: CS231n")
	if !strings.Contains(p, "Additional context:\ncourse: CS231n") {
		t.Errorf("additional context missing:\n%s", p)
	}

	p = BuildPrompt("q", "ctx", "")
	if strings.Contains(p, "Additional context") {
		t.Error("no additional block expected when empty")
	}
	if !strings.Contains(p, "say so instead of guessing") {
		t.Error("closing instruction missing")
	}
}
