package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ilask/weather-data/system"
)

// TextGenerator produces short generated texts for notifications and data
// quality commentary.
type TextGenerator interface {
	Enabled() bool
	Generate(systemPrompt, prompt string) (string, error)
}

// LLMClient calls a text-generation HTTP endpoint.
type LLMClient struct {
	apiURL string
	apiKey string
	client *http.Client
}

// NewLLMClient creates a new LLMClient.
func NewLLMClient(apiURL, apiKey string) *LLMClient {
	return &LLMClient{
		apiURL: apiURL,
		apiKey: apiKey,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Enabled reports whether an endpoint is configured.
func (c *LLMClient) Enabled() bool {
	return c.apiURL != ""
}

type generateRequest struct {
	SystemPrompt string `json:"system_prompt"`
	Prompt       string `json:"prompt"`
}

type generateResponse struct {
	Content string `json:"content"`
}

// Generate posts the prompts and returns the generated content.
func (c *LLMClient) Generate(systemPrompt, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		SystemPrompt: systemPrompt,
		Prompt:       prompt,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	system.RecordUpstreamCall("llm", err)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("text generation failed with status %d: %s", resp.StatusCode, body)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	return result.Content, nil
}
