package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestEmbed(t *testing.T) {
	var gotReq embedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	c := NewEmbedClient(srv.URL, "all-minilm", 5*time.Second)
	res, err := c.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Vector) != 3 || res.Vector[1] != float32(0.2) {
		t.Errorf("unexpected vector: %v", res.Vector)
	}
	if res.Model != "all-minilm" {
		t.Errorf("unexpected model: %s", res.Model)
	}
	if gotReq.Prompt != "hello" || gotReq.Model != "all-minilm" {
		t.Errorf("unexpected request: %+v", gotReq)
	}
}

func TestEmbed_EmptyVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer srv.Close()

	c := NewEmbedClient(srv.URL, "all-minilm", 5*time.Second)
	if _, err := c.Embed(context.Background(), "hello"); !errors.Is(err, ErrUnexpectedFormat) {
		t.Errorf("expected ErrUnexpectedFormat, got %v", err)
	}
}

func TestEmbed_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewEmbedClient(srv.URL, "all-minilm", 5*time.Second)
	if _, err := c.Embed(context.Background(), "hello"); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestComplete_MessageFormat(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(map[string]any{
			"message":    map[string]string{"content": "  the answer  "},
			"eval_count": 17,
		})
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, "llama3", 5*time.Second)
	res, err := c.Complete(context.Background(), "system", "question", ChatOptions{MaxTokens: 512, Temperature: 0.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Content != "the answer" {
		t.Errorf("content should be trimmed, got %q", res.Content)
	}
	if res.TokenCount != 17 {
		t.Errorf("unexpected token count: %d", res.TokenCount)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Errorf("unexpected messages: %+v", gotReq.Messages)
	}
	if gotReq.Options.NumPredict != 512 {
		t.Errorf("max tokens not forwarded: %+v", gotReq.Options)
	}
}

func TestComplete_LegacyResponseFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"response": "legacy answer"})
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, "llama3", 5*time.Second)
	res, err := c.Complete(context.Background(), "", "q", ChatOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Content != "legacy answer" {
		t.Errorf("unexpected content: %q", res.Content)
	}
}

func TestComplete_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"done": true})
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, "llama3", 5*time.Second)
	if _, err := c.Complete(context.Background(), "", "q", ChatOptions{}); !errors.Is(err, ErrUnexpectedFormat) {
		t.Errorf("expected ErrUnexpectedFormat, got %v", err)
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, "llama3", 5*time.Second)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
