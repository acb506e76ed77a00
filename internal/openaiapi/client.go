// Package openaiapi is a small JSON-over-HTTP client for OpenAI-compatible
// endpoints (OpenAI, Ollama, vLLM, LM Studio). It handles authentication and
// retries; request and response shapes belong to the callers.
package openaiapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.openai.com/v1"

// Config configures the HTTP client.
type Config struct {
	BaseURL    string
	APIKeyEnv  string
	Timeout    time.Duration
	MaxRetries int
}

// Client posts JSON to an OpenAI-compatible API.
type Client struct {
	baseURL    string
	apiKey     string
	client     *http.Client
	maxRetries int
	sleep      func(time.Duration)
}

// StatusError is returned for non-retryable or exhausted HTTP failures.
type StatusError struct {
	Path   string
	Status string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("POST %s failed: %s", e.Path, e.Status)
	}
	return fmt.Sprintf("POST %s failed: %s: %s", e.Path, e.Status, e.Body)
}

// NewClient creates a client reading its API key from cfg.APIKeyEnv.
// Local servers that need no key can leave APIKeyEnv empty.
func NewClient(cfg Config) (*Client, error) {
	var key string
	if cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
		}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     key,
		client:     &http.Client{Timeout: t},
		maxRetries: retries,
		sleep:      time.Sleep,
	}, nil
}

// PostJSON sends body to baseURL+path and decodes the response into out.
// Transport errors, 429 and 5xx responses are retried with exponential
// backoff; Retry-After is honored when present.
func (c *Client) PostJSON(path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	url := c.baseURL + path
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.sleep(retryDelay(attempt - 1))
		}
		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		payload, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = &StatusError{Path: path, Status: resp.Status, Code: resp.StatusCode, Body: snippet(payload)}
			if ra := resp.Header.Get("Retry-After"); ra != "" && attempt < c.maxRetries {
				if secs, err := strconv.Atoi(ra); err == nil {
					c.sleep(time.Duration(secs) * time.Second)
				}
			}
			continue
		}
		if resp.StatusCode >= 300 {
			return &StatusError{Path: path, Status: resp.Status, Code: resp.StatusCode, Body: snippet(payload)}
		}
		if readErr != nil {
			lastErr = readErr
			continue
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	if lastErr == nil {
		lastErr = errors.New("request failed")
	}
	return lastErr
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
