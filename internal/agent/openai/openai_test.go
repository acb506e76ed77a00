package openai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omniparse/internal/agent"
)

func newServer(t *testing.T, reply string, inspect func(map[string]any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var body map[string]any
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) && inspect != nil {
			inspect(body)
		}
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newAgent(t *testing.T, url string) *Agent[agent.StructuredData] {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	a, err := New[agent.StructuredData](Config{BaseURL: url})
	require.NoError(t, err)
	return a
}

func TestRun_ToolCall(t *testing.T) {
	reply := `{"choices":[{"message":{"tool_calls":[{"function":{"name":"extract_structured_data","arguments":"{\"summary\":\"An invoice.\",\"information\":{\"Total Due\":\"$150.00\"}}"}}]}}]}`
	srv := newServer(t, reply, func(body map[string]any) {
		assert.Equal(t, "gpt-4o-mini", body["model"])
		assert.EqualValues(t, 2000, body["max_tokens"])
		msgs := body["messages"].([]any)
		require.Len(t, msgs, 2)
		assert.Equal(t, agent.SystemPrompt, msgs[0].(map[string]any)["content"])
		assert.Equal(t, "Total Due: $150.00", msgs[1].(map[string]any)["content"])

		fn := body["tools"].([]any)[0].(map[string]any)["function"].(map[string]any)
		assert.Equal(t, "extract_structured_data", fn["name"])
		props := fn["parameters"].(map[string]any)["properties"].(map[string]any)
		assert.Contains(t, props, "summary")
		assert.Contains(t, props, "information")
	})

	out, err := newAgent(t, srv.URL).Run("Total Due: $150.00")
	require.NoError(t, err)
	assert.Equal(t, "An invoice.", out.Summary)
	assert.Equal(t, "$150.00", out.Information["Total Due"])
}

func TestRun_ContentFallback(t *testing.T) {
	reply := "{\"choices\":[{\"message\":{\"content\":\"```json\\n{\\\"summary\\\":\\\"s\\\",\\\"information\\\":{}}\\n```\"}}]}"
	srv := newServer(t, reply, nil)

	out, err := newAgent(t, srv.URL).Run("text")
	require.NoError(t, err)
	assert.Equal(t, "s", out.Summary)
}

func TestRun_NoResult(t *testing.T) {
	for name, reply := range map[string]string{
		"no choices":   `{"choices":[]}`,
		"empty":        `{"choices":[{"message":{"content":""}}]}`,
		"invalid json": `{"choices":[{"message":{"content":"sorry, I cannot"}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := newServer(t, reply, nil)
			_, err := newAgent(t, srv.URL).Run("text")
			assert.ErrorIs(t, err, ErrNoResult)
		})
	}
}

func TestNew_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := New[agent.StructuredData](Config{})
	assert.ErrorContains(t, err, "OPENAI_API_KEY")
}
