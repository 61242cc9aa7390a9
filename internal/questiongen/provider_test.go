package questiongen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model          string                 `json:"model"`
	Temperature    float64                `json:"temperature"`
	MaxTokens      int                    `json:"max_tokens"`
	ResponseFormat map[string]interface{} `json:"response_format"`
}

func chatReply(content string) map[string]interface{} {
	return map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	}
}

// newChatServer replies per model: entries in notFound get a model_not_found
// error, everything else gets content.
func newChatServer(t *testing.T, notFound map[string]bool, content string) (*httptest.Server, *[]chatRequest) {
	t.Helper()
	var mu sync.Mutex
	var seen []chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		seen = append(seen, req)
		mu.Unlock()

		if notFound[req.Model] {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{"code": "model_not_found", "message": "The model does not exist"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(chatReply(content))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func newTestProvider(srv *httptest.Server, model string) *OpenAIProvider {
	p := NewOpenAIProvider("test-key", model, 5*time.Second)
	p.BaseURL = srv.URL
	p.Client = srv.Client()
	return p
}

func TestProviderRotatesOnUnknownModel(t *testing.T) {
	srv, seen := newChatServer(t, map[string]bool{"gpt-legacy": true, "gpt-4o-mini": true}, `{"questions": []}`)
	p := newTestProvider(srv, "gpt-legacy")

	text, err := p.Generate(context.Background(), "prompt", GenerateOpts{Temperature: 0.4, MaxTokens: 100, JSONMode: true})
	require.NoError(t, err)
	assert.Equal(t, `{"questions": []}`, text)

	require.Len(t, *seen, 3)
	assert.Equal(t, "gpt-legacy", (*seen)[0].Model)
	assert.Equal(t, "gpt-4o-mini", (*seen)[1].Model)
	assert.Equal(t, "gpt-4.1-mini", (*seen)[2].Model)
	assert.Equal(t, "json_object", (*seen)[2].ResponseFormat["type"])
}

func TestProviderConfiguredModelTriedFirst(t *testing.T) {
	srv, seen := newChatServer(t, nil, "ok")
	p := newTestProvider(srv, "gpt-4.1-mini")

	_, err := p.Generate(context.Background(), "prompt", GenerateOpts{})
	require.NoError(t, err)
	require.Len(t, *seen, 1)
	assert.Equal(t, "gpt-4.1-mini", (*seen)[0].Model)
}

func TestProviderAbortsOnNonModelError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"code": "rate_limit_exceeded", "message": "slow down"},
		})
	}))
	t.Cleanup(srv.Close)
	p := newTestProvider(srv, "gpt-4o-mini")

	_, err := p.Generate(context.Background(), "prompt", GenerateOpts{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.False(t, isModelNotFound(err), "rate limits must not rotate models")
}

func TestProviderAllCandidatesUnknown(t *testing.T) {
	srv, seen := newChatServer(t, map[string]bool{
		"gpt-4o-mini": true, "gpt-4.1-mini": true, "gpt-5-mini": true,
	}, "")
	p := newTestProvider(srv, "")

	_, err := p.Generate(context.Background(), "prompt", GenerateOpts{})
	require.Error(t, err)
	assert.Len(t, *seen, 3)
}

func TestProviderRequiresAPIKey(t *testing.T) {
	p := NewOpenAIProvider("", "gpt-4o-mini", time.Second)
	_, err := p.Generate(context.Background(), "prompt", GenerateOpts{})
	assert.Error(t, err)
}

func TestProviderEmptyChoiceIsAnError(t *testing.T) {
	srv, _ := newChatServer(t, nil, "  ")
	p := newTestProvider(srv, "gpt-4o-mini")

	_, err := p.Generate(context.Background(), "prompt", GenerateOpts{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}
