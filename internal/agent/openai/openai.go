// Package openai is an extraction agent backed by an OpenAI-compatible chat
// completions endpoint. The model is forced to call a single function whose
// parameters are the JSON schema of the result type, so its arguments decode
// straight into T.
package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"omniparse/internal/agent"
	"omniparse/internal/openaiapi"
)

// ErrNoResult is returned when the model answers without usable structured output.
var ErrNoResult = errors.New("openai: model returned no structured result")

const functionName = "extract_structured_data"

// Config configures the agent.
type Config struct {
	BaseURL      string
	APIKeyEnv    string
	Model        string
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
	Timeout      time.Duration
	MaxRetries   int
}

// Agent calls the chat completions API once per chunk.
type Agent[T any] struct {
	api    *openaiapi.Client
	cfg    Config
	schema *jsonschema.Schema
}

// New creates an agent producing T. T's JSON schema is derived from its
// struct fields and jsonschema tags.
func New[T any](cfg Config) (*Agent[T], error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = agent.SystemPrompt
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, fmt.Errorf("derive result schema: %w", err)
	}
	api, err := openaiapi.NewClient(openaiapi.Config{
		BaseURL:    cfg.BaseURL,
		APIKeyEnv:  cfg.APIKeyEnv,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
	})
	if err != nil {
		return nil, err
	}
	return &Agent[T]{api: api, cfg: cfg, schema: schema}, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Tools       []tool    `json:"tools"`
	ToolChoice  any       `json:"tool_choice"`
}

type tool struct {
	Type     string   `json:"type"`
	Function function `json:"function"`
}

type function struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

// Run sends text to the model and decodes the function call arguments into T.
// A plain JSON message body is accepted when the server ignores tool_choice.
func (a *Agent[T]) Run(text string) (T, error) {
	var zero T
	req := chatRequest{
		Model: a.cfg.Model,
		Messages: []message{
			{Role: "system", Content: a.cfg.SystemPrompt},
			{Role: "user", Content: text},
		},
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
		Tools: []tool{{
			Type: "function",
			Function: function{
				Name:        functionName,
				Description: "Record the structured data extracted from the document text.",
				Parameters:  a.schema,
			},
		}},
		ToolChoice: map[string]any{"type": "function", "function": map[string]string{"name": functionName}},
	}
	var resp chatResponse
	if err := a.api.PostJSON("/chat/completions", req, &resp); err != nil {
		return zero, err
	}
	if len(resp.Choices) == 0 {
		return zero, ErrNoResult
	}
	msg := resp.Choices[0].Message
	raw := strings.TrimSpace(msg.Content)
	for _, call := range msg.ToolCalls {
		if call.Function.Name == functionName {
			raw = call.Function.Arguments
			break
		}
	}
	raw = strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(raw, "```json"), "```"), "```")
	if strings.TrimSpace(raw) == "" {
		return zero, ErrNoResult
	}
	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrNoResult, err)
	}
	return out, nil
}
