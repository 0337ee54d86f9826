package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lai-labs/sales-assistant/internal/core/domain"
	"github.com/lai-labs/sales-assistant/internal/infrastructure/resilience"
)

func newTestClient(t *testing.T, url string, executor *resilience.Executor) *Client {
	t.Helper()
	client, err := New(url, "sk-or-test", "meta-llama/llama-3.3-70b-instruct", 0.7, Options{
		Timeout:  2 * time.Second,
		Executor: executor,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestCompleteSendsMessagesAndMaxTokens(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-or-test" {
			t.Errorf("authorization header = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"the answer"}}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	answer, err := client.Complete(context.Background(), "system rules", "user question", 1000)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if answer != "the answer" {
		t.Fatalf("Complete() = %q", answer)
	}
	if captured.MaxTokens != 1000 {
		t.Fatalf("max_tokens = %d, want 1000", captured.MaxTokens)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" || captured.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages: %+v", captured.Messages)
	}
}

func TestCompleteRetriesRateLimitThenSucceeds(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"recovered"}}]}`))
	}))
	defer server.Close()

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})
	client := newTestClient(t, server.URL, executor)

	answer, err := client.Complete(context.Background(), "sys", "q", 100)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if answer != "recovered" {
		t.Fatalf("Complete() = %q", answer)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestCompleteAuthFailureIsPermanentAssistantError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer server.Close()

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})
	client := newTestClient(t, server.URL, executor)

	_, err := client.Complete(context.Background(), "sys", "q", 100)
	if !domain.IsKind(err, domain.ErrAssistant) {
		t.Fatalf("expected ErrAssistant, got %v", err)
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("auth failure must not be temporary: %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
	if !strings.Contains(err.Error(), "invalid api key") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestCompleteExhaustedRetriesSurfaceTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})
	client := newTestClient(t, server.URL, executor)

	_, err := client.Complete(context.Background(), "sys", "q", 100)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New("https://openrouter.ai/api/v1", " ", "model", 0.7, Options{})
	if !domain.IsKind(err, domain.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}
