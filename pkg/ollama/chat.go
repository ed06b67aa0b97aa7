package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrUnexpectedFormat means the endpoint answered 200 but the body was
// missing the expected content field. Callers must treat this as a failure,
// never as an empty reply.
var ErrUnexpectedFormat = errors.New("unexpected response format")

// ChatResult is the outcome of one chat completion.
type ChatResult struct {
	Content        string
	Model          string
	ProcessingTime float64 // seconds
	TokenCount     int
	Meta           map[string]any
}

// ChatOptions bounds one completion request.
type ChatOptions struct {
	MaxTokens   int
	Temperature float32
}

// ChatClient generates completions via Ollama's /api/chat endpoint.
type ChatClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewChatClient creates an Ollama chat client.
func NewChatClient(baseURL, model string, timeout time.Duration) *ChatClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ChatClient{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Model returns the configured model identifier.
func (c *ChatClient) Model() string { return c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  chatModelOpts `json:"options"`
}

type chatModelOpts struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
}

type chatResponse struct {
	Message *struct {
		Content string `json:"content"`
	} `json:"message"`
	Response  string `json:"response"`
	EvalCount int    `json:"eval_count"`
}

// Complete sends systemPrompt (optional) and userPrompt and returns the reply.
func (c *ChatClient) Complete(ctx context.Context, systemPrompt, userPrompt string, opts ChatOptions) (ChatResult, error) {
	start := time.Now()

	var messages []chatMessage
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	body, _ := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
		Options: chatModelOpts{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
		},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return ChatResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return ChatResult{}, fmt.Errorf("ollama chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ChatResult{}, fmt.Errorf("ollama chat: status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ChatResult{}, fmt.Errorf("ollama chat decode: %w", err)
	}

	// Older Ollama builds answer with a top-level "response" field instead of
	// the chat-style message object; accept either.
	var content string
	switch {
	case out.Message != nil && out.Message.Content != "":
		content = strings.TrimSpace(out.Message.Content)
	case out.Response != "":
		content = strings.TrimSpace(out.Response)
	default:
		return ChatResult{}, fmt.Errorf("ollama chat: %w", ErrUnexpectedFormat)
	}

	return ChatResult{
		Content:        content,
		Model:          c.model,
		ProcessingTime: time.Since(start).Seconds(),
		TokenCount:     out.EvalCount,
		Meta:           map[string]any{"prompt_length": len(userPrompt)},
	}, nil
}

// Ping checks that the Ollama endpoint is reachable.
func (c *ChatClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama ping: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama ping: status %d", resp.StatusCode)
	}
	return nil
}
