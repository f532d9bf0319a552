package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

// mockRetryProvider fails a configurable number of times before succeeding.
type mockRetryProvider struct {
	failures int
	calls    int
	err      error
}

func (m *mockRetryProvider) Complete(ctx context.Context, prompt *Prompt, opts *RequestOptions) (*Response, error) {
	m.calls++
	if m.calls <= m.failures {
		return nil, m.err
	}
	return &Response{Content: "ok"}, nil
}

func (m *mockRetryProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.calls <= m.failures {
		return nil, m.err
	}
	return [][]float32{{0.1, 0.2}}, nil
}

func (m *mockRetryProvider) Name() string { return "mock" }

func fastConfig(maxRetries int) *RetryConfig {
	return &RetryConfig{
		MaxRetries: maxRetries,
		RetryDelay: time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Timeout:    time.Second,
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	mock := &mockRetryProvider{failures: 2, err: errors.New("503 Service Unavailable")}
	p := NewRetryProvider(mock, fastConfig(3))

	resp, err := p.Complete(context.Background(), &Prompt{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("content = %q, want ok", resp.Content)
	}
	if mock.calls != 3 {
		t.Errorf("calls = %d, want 3", mock.calls)
	}
}

func TestRetry_NonRetryableFailsImmediately(t *testing.T) {
	mock := &mockRetryProvider{failures: 10, err: errors.New("401 Unauthorized")}
	p := NewRetryProvider(mock, fastConfig(3))

	_, err := p.Complete(context.Background(), &Prompt{}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if mock.calls != 1 {
		t.Errorf("calls = %d, want 1", mock.calls)
	}
}

func TestRetry_ExhaustsRetries(t *testing.T) {
	mock := &mockRetryProvider{failures: 10, err: errors.New("429 Too Many Requests")}
	p := NewRetryProvider(mock, fastConfig(2))

	_, err := p.Embed(context.Background(), []string{"text"})
	if err == nil {
		t.Fatal("expected error")
	}
	if mock.calls != 3 {
		t.Errorf("calls = %d, want 3 (initial + 2 retries)", mock.calls)
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	mock := &mockRetryProvider{failures: 10, err: errors.New("503")}
	p := NewRetryProvider(mock, &RetryConfig{
		MaxRetries: 5,
		RetryDelay: time.Hour, // blocks in backoff until cancelled
		MaxDelay:   time.Hour,
		Timeout:    time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := p.Complete(ctx, &Prompt{}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate_limited", errors.New("429 Too Many Requests"), true},
		{"server_error", errors.New("502 Bad Gateway"), true},
		{"unauthorized", errors.New("401 Unauthorized"), false},
		{"not_found", errors.New("404 Not Found"), false},
		{"cancelled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, true},
		{"unknown", errors.New("connection reset by peer"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.want {
				t.Errorf("isRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestBackoff_CapsAtMaxDelay(t *testing.T) {
	p := NewRetryProvider(&mockRetryProvider{}, &RetryConfig{
		MaxRetries: 10,
		RetryDelay: time.Second,
		MaxDelay:   4 * time.Second,
		Timeout:    time.Second,
	})
	if d := p.backoff(1); d != time.Second {
		t.Errorf("backoff(1) = %v, want 1s", d)
	}
	if d := p.backoff(2); d != 2*time.Second {
		t.Errorf("backoff(2) = %v, want 2s", d)
	}
	if d := p.backoff(8); d != 4*time.Second {
		t.Errorf("backoff(8) = %v, want capped at 4s", d)
	}
}
