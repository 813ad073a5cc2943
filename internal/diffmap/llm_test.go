package diffmap

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// fakeCaller scripts Complete responses for stage tests. The respond func
// must be safe for concurrent use.
type fakeCaller struct {
	respond func(prompt string) (string, error)
}

func (f *fakeCaller) Complete(_ context.Context, prompt string) (string, error) {
	return f.respond(prompt)
}

func (f *fakeCaller) ModelName() string { return "fake-model" }

type fakeMessager struct {
	params []anthropic.MessageNewParams
	reply  string
	err    error
}

func (f *fakeMessager) New(_ context.Context, params anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	f.params = append(f.params, params)
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{{Type: "text", Text: f.reply}},
	}, nil
}

func TestAnthropicCallerComplete(t *testing.T) {
	messager := &fakeMessager{reply: `{"ok": true}`}
	caller := &AnthropicCaller{messages: messager, model: "test-model"}

	got, err := caller.Complete(context.Background(), "analyze this")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != `{"ok": true}` {
		t.Fatalf("got %q", got)
	}
	if len(messager.params) != 1 {
		t.Fatalf("expected 1 call, got %d", len(messager.params))
	}
	p := messager.params[0]
	if string(p.Model) != "test-model" {
		t.Errorf("model = %q", p.Model)
	}
	if p.MaxTokens != 4096 {
		t.Errorf("max tokens = %d", p.MaxTokens)
	}
	if len(p.System) != 1 || p.System[0].Text != systemPrompt {
		t.Error("system prompt not set")
	}
}

func TestCompleterRetriesRateLimit(t *testing.T) {
	calls := 0
	c := newCompleter(&fakeCaller{respond: func(string) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("status code: 429 too many requests")
		}
		return "ok", nil
	}})

	got, err := c.complete(context.Background(), "test_step", "prompt")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got != "ok" || calls != 2 {
		t.Fatalf("got %q after %d calls", got, calls)
	}
}

func TestCompleterFailsFastOnClientError(t *testing.T) {
	calls := 0
	c := newCompleter(&fakeCaller{respond: func(string) (string, error) {
		calls++
		return "", errors.New("status code: 400 invalid request")
	}})

	if _, err := c.complete(context.Background(), "test_step", "prompt"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("client errors must not retry, got %d calls", calls)
	}
}

func TestCompleterEmptyResponse(t *testing.T) {
	c := newCompleter(&fakeCaller{respond: func(string) (string, error) { return "  \n ", nil }})
	if _, err := c.complete(context.Background(), "test_step", "prompt"); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestCompleterHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := newCompleter(&fakeCaller{respond: func(string) (string, error) {
		cancel()
		return "", fmt.Errorf("connection reset")
	}})

	_, err := c.complete(ctx, "test_step", "prompt")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestClassifyTransportError(t *testing.T) {
	cases := []struct {
		err  error
		want llmFailureClass
	}{
		{context.DeadlineExceeded, failureTimeout},
		{errors.New("status code: 429 slow down"), failureRateLimit},
		{errors.New("rate limit exceeded"), failureRateLimit},
		{errors.New("status code: 503 unavailable"), failureServer},
		{errors.New("status code: 401 unauthorized"), failureClient},
		{errors.New("connection refused"), failureServer},
	}
	for _, tc := range cases {
		if got := classifyTransportError(tc.err); got != tc.want {
			t.Errorf("classifyTransportError(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestBackoffDelay(t *testing.T) {
	if backoffDelay(1) != time.Second || backoffDelay(2) != 2*time.Second || backoffDelay(3) != 4*time.Second {
		t.Error("backoff ladder changed")
	}
}
