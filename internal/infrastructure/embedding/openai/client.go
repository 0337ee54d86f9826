// Package openai implements the Embedder port against an OpenAI-compatible
// embeddings endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/lai-labs/sales-assistant/internal/core/domain"
	"github.com/lai-labs/sales-assistant/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	batchSize  int
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	Timeout   time.Duration
	BatchSize int
	Executor  *resilience.Executor
}

func New(baseURL, apiKey, model string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	batchSize := options.BatchSize
	if batchSize <= 0 {
		batchSize = 64
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		batchSize:  batchSize,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.Executor,
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed vectorizes the texts in request-size batches. Any transport or
// shape failure is an ErrEmbedding.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}

	dim := len(out[0])
	for i, v := range out {
		if len(v) != dim {
			return nil, domain.WrapError(
				domain.ErrEmbedding,
				"embed texts",
				fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), dim),
			)
		}
	}
	return out, nil
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, domain.WrapError(domain.ErrEmbedding, "embed query", errors.New("empty embedding result"))
	}
	return vectors[0], nil
}

func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32
	call := func(ctx context.Context) error {
		result, err := c.postEmbeddings(ctx, texts)
		if err != nil {
			return err
		}
		vectors = result
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "embeddings.embed", call, classifyEmbedError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrEmbedding, "embed texts", err)
	}
	return vectors, nil
}

func (c *Client) postEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Model: c.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal embeddings request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embeddings request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &statusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	var decoded embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode embeddings response: %w", err)
	}
	if len(decoded.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings response has %d vectors for %d inputs", len(decoded.Data), len(texts))
	}

	// The API may reorder rows; the index field is authoritative.
	vectors := make([][]float32, len(texts))
	for _, row := range decoded.Data {
		if row.Index < 0 || row.Index >= len(texts) {
			return nil, fmt.Errorf("embeddings response index %d out of range", row.Index)
		}
		vectors[row.Index] = row.Embedding
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("embeddings response missing vector for input %d", i)
		}
	}
	return vectors, nil
}

type statusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *statusError) Error() string {
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("embeddings status: %s", e.Status)
	}
	return fmt.Sprintf("embeddings status: %s: %s", e.Status, e.Body)
}

func classifyEmbedError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var statusErr *statusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusRequestTimeout,
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		default:
			return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}
