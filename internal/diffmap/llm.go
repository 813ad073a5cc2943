package diffmap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"regexp"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const systemPrompt = "You are a competitive-positioning analyst for startup founders. You ground every answer in the provided competitor data, do not invent facts, and return strict JSON only."

var statusCodeRe = regexp.MustCompile(`(?:status(?:\s+code)?[:=\s]+)(\d{3})`)

type llmFailureClass int

const (
	failureNone llmFailureClass = iota
	failureTimeout
	failureRateLimit
	failureServer
	failureClient
)

// LLMCaller is the generative-text capability. Complete returns raw model
// text; callers extract JSON from it themselves.
type LLMCaller interface {
	Complete(ctx context.Context, prompt string) (string, error)
	ModelName() string
}

type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicCaller struct {
	messages AnthropicMessager
	model    string
}

type AnthropicClientCreator func(apiKey string) AnthropicMessager

func defaultAnthropicCreator(apiKey string) AnthropicMessager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

var newAnthropicClient AnthropicClientCreator = defaultAnthropicCreator

func NewAnthropicCallerFromEnv() (*AnthropicCaller, error) {
	apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not configured")
	}
	model := strings.TrimSpace(os.Getenv("DIFFMAPPER_LLM_MODEL"))
	if model == "" {
		model = DefaultLLMModel
	}
	return &AnthropicCaller{messages: newAnthropicClient(apiKey), model: model}, nil
}

func (a *AnthropicCaller) ModelName() string { return a.model }

func (a *AnthropicCaller) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   4096,
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}

// completer wraps an LLMCaller with a per-call timeout and retry on transient
// transport failures. Content-level problems (empty output, malformed JSON)
// are not retried here; every call site degrades on them itself.
type completer struct {
	caller  LLMCaller
	timeout time.Duration
}

func newCompleter(caller LLMCaller) *completer {
	return &completer{caller: caller, timeout: 90 * time.Second}
}

func (c *completer) complete(ctx context.Context, step, prompt string) (string, error) {
	for attempt := 1; attempt <= 3; attempt++ {
		attemptStart := time.Now()
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		raw, err := c.caller.Complete(callCtx, prompt)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			class := classifyTransportError(err)
			log.Printf("diffmapper llm_transport_error step=%s attempt=%d class=%d elapsed_ms=%d err=%q", step, attempt, class, time.Since(attemptStart).Milliseconds(), err.Error())
			if attempt < 3 && (class == failureTimeout || class == failureRateLimit || class == failureServer) {
				if err := sleepCtx(ctx, backoffDelay(attempt)); err != nil {
					return "", err
				}
				continue
			}
			return "", fmt.Errorf("%s transport failure: %w", step, err)
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return "", fmt.Errorf("%s: empty response", step)
		}
		log.Printf("diffmapper llm_success step=%s attempt=%d elapsed_ms=%d response_chars=%d", step, attempt, time.Since(attemptStart).Milliseconds(), len(raw))
		return raw, nil
	}
	return "", fmt.Errorf("%s failed after retries", step)
}

func classifyTransportError(err error) llmFailureClass {
	msg := strings.ToLower(err.Error())
	if errors.Is(err, context.DeadlineExceeded) {
		return failureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return failureTimeout
	}
	m := statusCodeRe.FindStringSubmatch(msg)
	if len(m) == 2 {
		switch {
		case strings.HasPrefix(m[1], "429"):
			return failureRateLimit
		case strings.HasPrefix(m[1], "5"):
			return failureServer
		case strings.HasPrefix(m[1], "4"):
			return failureClient
		}
	}
	switch {
	case strings.Contains(msg, "status 429"), strings.Contains(msg, "status=429"), strings.Contains(msg, "rate limit"):
		return failureRateLimit
	case strings.Contains(msg, "status 5"), strings.Contains(msg, "status=5"), strings.Contains(msg, "status code: 5"), strings.Contains(msg, "server error"):
		return failureServer
	case strings.Contains(msg, "status 4"), strings.Contains(msg, "status=4"), strings.Contains(msg, "status code: 4"):
		return failureClient
	default:
		return failureServer
	}
}

func backoffDelay(attempt int) time.Duration {
	switch attempt {
	case 1:
		return 1 * time.Second
	case 2:
		return 2 * time.Second
	default:
		return 4 * time.Second
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
