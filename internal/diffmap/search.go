package diffmap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	TavilyBaseURL        = "https://api.tavily.com"
	tavilySearchPath     = "/search"
	DefaultMaxResults    = 10
	DefaultSearchDepth   = "advanced"
	searchRequestTimeout = 30 * time.Second
)

type SearchResult struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// Searcher is the web-search capability. May return zero hits; a failure is
// recoverable and caught per call site.
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

type TavilyConfig struct {
	APIKey      string
	BaseURL     string
	MaxResults  int
	SearchDepth string
	HTTPClient  *http.Client
}

type TavilySearcher struct {
	cfg TavilyConfig
}

func NewTavilySearcher(cfg TavilyConfig) (*TavilySearcher, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, errors.New("TAVILY_API_KEY not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = TavilyBaseURL
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.SearchDepth == "" {
		cfg.SearchDepth = DefaultSearchDepth
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: searchRequestTimeout}
	}
	return &TavilySearcher{cfg: cfg}, nil
}

type tavilyResponse struct {
	Results []SearchResult `json:"results"`
}

func (s *TavilySearcher) Search(ctx context.Context, query string) ([]SearchResult, error) {
	body := map[string]any{
		"api_key":      s.cfg.APIKey,
		"query":        query,
		"max_results":  s.cfg.MaxResults,
		"search_depth": s.cfg.SearchDepth,
	}
	resp, err := s.executeWithRetry(ctx, body)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (s *TavilySearcher) executeWithRetry(ctx context.Context, body map[string]any) (tavilyResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= 4; attempt++ {
		resp, code, retryAfter, err := s.executeOnce(ctx, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return tavilyResponse{}, ctx.Err()
		}
		if code == http.StatusBadRequest || code == http.StatusUnauthorized || code == http.StatusForbidden {
			return tavilyResponse{}, err
		}
		if attempt == 4 {
			break
		}
		sleep := backoffDelay(attempt)
		if code == http.StatusTooManyRequests && retryAfter > 0 {
			sleep = retryAfter
		}
		if err := sleepCtx(ctx, sleep); err != nil {
			return tavilyResponse{}, err
		}
	}
	return tavilyResponse{}, lastErr
}

func (s *TavilySearcher) executeOnce(ctx context.Context, body map[string]any) (tavilyResponse, int, time.Duration, error) {
	payload, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(s.cfg.BaseURL, "/")+tavilySearchPath, bytes.NewReader(payload))
	if err != nil {
		return tavilyResponse{}, 0, 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.cfg.HTTPClient.Do(req)
	if err != nil {
		return tavilyResponse{}, 0, 0, err
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(res.Body, 2<<20))

	retryAfter := parseRetryAfter(res.Header.Get("Retry-After"))
	if res.StatusCode >= 400 {
		return tavilyResponse{}, res.StatusCode, retryAfter, fmt.Errorf("status code: %d body=%s", res.StatusCode, string(b))
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(b, &parsed); err != nil {
		return tavilyResponse{}, res.StatusCode, retryAfter, err
	}
	return parsed, res.StatusCode, retryAfter, nil
}

func parseRetryAfter(v string) time.Duration {
	if strings.TrimSpace(v) == "" {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err == nil {
		return time.Duration(secs) * time.Second
	}
	return 0
}
