package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Generation defaults favour determinism over creativity.
const (
	DefaultMaxTokens   = 512
	DefaultTemperature = 0.3
)

// GenerateClient produces completions via Ollama's /api/generate endpoint,
// non-streaming, with bounded output and fixed temperature.
type GenerateClient struct {
	baseURL     string
	model       string
	maxTokens   int
	temperature float32
	client      *http.Client
}

// NewGenerateClient creates an Ollama generation client.
func NewGenerateClient(baseURL, model string) *GenerateClient {
	return &GenerateClient{
		baseURL:     baseURL,
		model:       model,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
		client:      &http.Client{Timeout: 120 * time.Second},
	}
}

// WithSampling overrides the output token bound and temperature.
func (c *GenerateClient) WithSampling(maxTokens int, temperature float32) *GenerateClient {
	if maxTokens > 0 {
		c.maxTokens = maxTokens
	}
	if temperature >= 0 {
		c.temperature = temperature
	}
	return c
}

// WithTimeout overrides the per-call HTTP timeout.
func (c *GenerateClient) WithTimeout(d time.Duration) *GenerateClient {
	if d > 0 {
		c.client.Timeout = d
	}
	return c
}

// Model returns the generation model identifier, used in failure logs.
func (c *GenerateClient) Model() string { return c.model }

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate runs one completion and returns the full response text.
func (c *GenerateClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: map[string]any{
			"temperature": c.temperature,
			"num_predict": c.maxTokens,
		},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama generate: status %d", resp.StatusCode)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("ollama generate decode: %w", err)
	}
	return result.Response, nil
}
