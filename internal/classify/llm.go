package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/franz/media-linker/internal/util"
)

const (
	// DefaultBaseURL is the OpenAI-compatible chat completions endpoint
	DefaultBaseURL = "https://openrouter.ai/api/v1/chat/completions"

	// DefaultModel is used when no model is configured
	DefaultModel = "openai/gpt-4o-mini"

	defaultTimeout = 30 * time.Second
)

// LLMConfig holds the settings required to reach the classification model
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// LLMClassifier implements Classifier against an OpenAI-compatible
// chat completions API. All requests demand JSON-only responses at
// temperature 0.
type LLMClassifier struct {
	cfg        LLMConfig
	httpClient *http.Client
}

// NewLLMClassifier creates a new LLM-backed classifier
func NewLLMClassifier(cfg LLMConfig) *LLMClassifier {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	return &LLMClassifier{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetHTTPClient overrides the HTTP client (used in tests)
func (c *LLMClassifier) SetHTTPClient(client *http.Client) {
	if client != nil {
		c.httpClient = client
	}
}

// ClassifyPrimary classifies a primary media file by filename and parent directory
func (c *LLMClassifier) ClassifyPrimary(ctx context.Context, filename, parentDir string) (*MediaInfo, error) {
	user := fmt.Sprintf("filename: %s\nparent directory: %s", filename, parentDir)

	content, err := c.complete(ctx, primaryPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("classify primary %q: %w", filename, err)
	}

	var info MediaInfo
	if err := DecodeModelJSON(content, &info); err != nil {
		return nil, fmt.Errorf("classify primary %q: decode: %w", filename, err)
	}

	info.Title = strings.TrimSpace(info.Title)
	switch info.Type {
	case TypeShow, TypeMovie:
	default:
		info.Type = TypeUnknown
	}
	return &info, nil
}

// ClassifySidecarRole tags a sidecar file relative to its primary's base name
func (c *LLMClassifier) ClassifySidecarRole(ctx context.Context, baseName, sidecarName string) (string, error) {
	user := fmt.Sprintf("primary base name: %s\nsidecar filename: %s", baseName, sidecarName)

	content, err := c.complete(ctx, sidecarPrompt, user)
	if err != nil {
		return "", fmt.Errorf("classify sidecar %q: %w", sidecarName, err)
	}

	var parsed struct {
		Role string `json:"role"`
	}
	if err := DecodeModelJSON(content, &parsed); err != nil {
		return "", fmt.Errorf("classify sidecar %q: decode: %w", sidecarName, err)
	}
	return strings.ToLower(strings.TrimSpace(parsed.Role)), nil
}

// CanonicalizeTitles maps raw titles to canonical titles in one batch request
func (c *LLMClassifier) CanonicalizeTitles(ctx context.Context, titles []string) (map[string]string, error) {
	if len(titles) == 0 {
		return map[string]string{}, nil
	}

	encoded, err := json.Marshal(titles)
	if err != nil {
		return nil, fmt.Errorf("canonicalize titles: encode: %w", err)
	}

	content, err := c.complete(ctx, canonicalPrompt, string(encoded))
	if err != nil {
		return nil, fmt.Errorf("canonicalize titles: %w", err)
	}

	mapping := make(map[string]string)
	if err := DecodeModelJSON(content, &mapping); err != nil {
		return nil, fmt.Errorf("canonicalize titles: decode: %w", err)
	}
	return mapping, nil
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// complete issues one JSON-only chat completion and returns the raw content
func (c *LLMClassifier) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", fmt.Errorf("api key required: %w", util.ErrInvalidConfig)
	}

	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	util.DebugLog("LLM request: model=%s bytes=%d", c.cfg.Model, len(encoded))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var completion chatResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("empty choices")
	}

	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty content")
	}
	return content, nil
}

// DecodeModelJSON decodes JSON produced by the model, tolerating code
// fences and surrounding prose some providers emit despite the
// json_object response format.
func DecodeModelJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return fmt.Errorf("empty payload")
	}

	if err := json.Unmarshal([]byte(trimmed), target); err == nil {
		return nil
	}

	trimmed = stripCodeFence(trimmed)
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			trimmed = trimmed[start : end+1]
		}
	}

	if err := json.Unmarshal([]byte(trimmed), target); err != nil {
		return fmt.Errorf("parse model payload: %w", err)
	}
	return nil
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimPrefix(strings.TrimLeft(trimmed, " \t\r\n"), "json")
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
