package questiongen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GenerateOpts tunes one text-generation call.
type GenerateOpts struct {
	Temperature float64
	MaxTokens   int
	JSONMode    bool
}

// Provider is the external text-generation collaborator. Implementations must
// honor ctx cancellation; the synthesizer always calls with a bounded timeout.
type Provider interface {
	Generate(ctx context.Context, prompt string, opts GenerateOpts) (string, error)
}

// Fallback models tried after the configured one, in order.
var defaultModels = []string{"gpt-4o-mini", "gpt-4.1-mini", "gpt-5-mini"}

const systemPrompt = "You are an expert JEE tutor and question setter."

// OpenAIProvider calls the chat-completions API. If the configured model is
// rejected as unknown it rotates through the default candidates before giving
// up; any other error aborts the call immediately.
type OpenAIProvider struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	Client  *http.Client
}

func NewOpenAIProvider(apiKey, model string, timeout time.Duration) *OpenAIProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIProvider{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: "https://api.openai.com/v1/chat/completions",
		Timeout: timeout,
		Client:  &http.Client{Timeout: timeout},
	}
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, opts GenerateOpts) (string, error) {
	if strings.TrimSpace(p.APIKey) == "" {
		return "", fmt.Errorf("ai api key is not configured")
	}

	candidates := make([]string, 0, len(defaultModels)+1)
	if m := strings.TrimSpace(p.Model); m != "" {
		candidates = append(candidates, m)
	}
	for _, m := range defaultModels {
		if !contains(candidates, m) {
			candidates = append(candidates, m)
		}
	}

	var lastNotFound error
	for _, model := range candidates {
		text, err := p.generateWithModel(ctx, model, prompt, opts)
		if err == nil {
			return text, nil
		}
		if isModelNotFound(err) {
			lastNotFound = err
			continue
		}
		return "", err
	}
	if lastNotFound != nil {
		return "", lastNotFound
	}
	return "", fmt.Errorf("ai provider request failed")
}

func (p *OpenAIProvider) generateWithModel(ctx context.Context, model, prompt string, opts GenerateOpts) (string, error) {
	body := map[string]interface{}{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": prompt},
		},
		"temperature": opts.Temperature,
		"max_tokens":  opts.MaxTokens,
	}
	if opts.JSONMode {
		body["response_format"] = map[string]string{"type": "json_object"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai provider request failed for model %q: %w", model, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ai provider http %d for model %q: %s", resp.StatusCode, model, string(raw))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("ai provider response decode for model %q: %w", model, err)
	}
	for _, c := range parsed.Choices {
		if text := strings.TrimSpace(c.Message.Content); text != "" {
			return text, nil
		}
	}
	return "", fmt.Errorf("ai provider returned an empty response for model %q", model)
}

func isModelNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "model_not_found") ||
		strings.Contains(msg, "not found") ||
		strings.Contains(msg, "does not exist") ||
		strings.Contains(msg, "unsupported_model")
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
