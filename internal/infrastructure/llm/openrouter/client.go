// Package openrouter talks to the OpenRouter chat-completions API
// (OpenAI-compatible wire format).
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lai-labs/sales-assistant/internal/core/domain"
	"github.com/lai-labs/sales-assistant/internal/infrastructure/resilience"
)

type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
	executor    *resilience.Executor
}

type Options struct {
	Timeout  time.Duration
	Executor *resilience.Executor
}

func New(baseURL, apiKey, model string, temperature float64, options Options) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, domain.WrapError(domain.ErrConfig, "new openrouter client", errors.New("api key is empty"))
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		httpClient:  &http.Client{Timeout: timeout},
		executor:    options.Executor,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete runs one chat completion. Transient failures are retried by the
// resilience executor; everything the classifier deems permanent surfaces
// as ErrAssistant.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	request := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.temperature,
		MaxTokens:   maxTokens,
	}

	var answer string
	call := func(ctx context.Context) error {
		response, err := c.postChat(ctx, request)
		if err != nil {
			return err
		}
		answer = response
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "openrouter.complete", call, classifyTransportError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapCompletionError(err)
	}
	if strings.TrimSpace(answer) == "" {
		return "", domain.WrapError(domain.ErrAssistant, "openrouter complete", errors.New("empty completion"))
	}
	return answer, nil
}

func (c *Client) postChat(ctx context.Context, request chatRequest) (string, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &HTTPStatusError{
			Operation:  "complete",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}
