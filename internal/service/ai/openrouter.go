package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"tripconcierge/internal/config"
	"tripconcierge/internal/models"
)

const (
	openRouterName = "OpenRouter"
	appTitle       = "Trip Concierge"
	maxReplyBytes  = 1 << 20
)

// OpenRouterClient talks to an OpenAI-compatible chat completions endpoint.
type OpenRouterClient struct {
	endpoint   string
	model      string
	apiKey     string
	referer    string
	httpClient *http.Client
}

type completionRequest struct {
	Model    string           `json:"model"`
	Messages []models.Message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message *struct {
			Content string `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	} `json:"choices"`
}

// NewOpenRouterClient returns a client posting to <BaseURL>/chat/completions.
func NewOpenRouterClient(cfg config.ProviderConfig, referer string) *OpenRouterClient {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = config.DefaultOpenRouterURL
	}
	model := cfg.Model
	if model == "" {
		model = config.DefaultModel
	}
	return &OpenRouterClient{
		endpoint:   base + "/chat/completions",
		model:      model,
		apiKey:     cfg.APIKey,
		referer:    referer,
		httpClient: &http.Client{Timeout: config.ClampTimeout(cfg.Timeout)},
	}
}

// Complete makes a single completion call.
func (c *OpenRouterClient) Complete(ctx context.Context, messages []models.Message) (string, error) {
	body, err := json.Marshal(completionRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &GatewayError{Kind: Unreachable, Provider: openRouterName, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Title", appTitle)
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &GatewayError{Kind: Unreachable, Provider: openRouterName, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return "", &GatewayError{Kind: Unreachable, Provider: openRouterName, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &GatewayError{
			Kind:       UpstreamStatus,
			Provider:   openRouterName,
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	var parsed completionResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", &GatewayError{Kind: MalformedResponse, Provider: openRouterName, Err: err}
	}
	text := firstChoiceText(parsed)
	if text == "" {
		return "", &GatewayError{
			Kind:     MalformedResponse,
			Provider: openRouterName,
			Err:      errors.New("no message content in choices"),
		}
	}
	return text, nil
}

func firstChoiceText(resp completionResponse) string {
	if len(resp.Choices) == 0 {
		return ""
	}
	first := resp.Choices[0]
	if first.Message != nil && first.Message.Content != "" {
		return first.Message.Content
	}
	return first.Text
}
