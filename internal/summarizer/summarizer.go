// Package summarizer is the summarization collaborator: it fetches a page,
// extracts its readable content and asks an OpenAI-compatible chat model for
// a markdown summary.
package summarizer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hpungsan/skim/internal/config"
	"github.com/hpungsan/skim/internal/logging"
	"github.com/hpungsan/skim/internal/ops"
)

const (
	// maxPageBytes caps how much of a fetched page is read.
	maxPageBytes = 5 << 20

	userAgent = "skim/1.0 (+https://github.com/hpungsan/skim)"
)

// CredentialSource provides the API key used as the bearer token.
type CredentialSource interface {
	Credential(ctx context.Context) (string, bool)
}

// Client summarizes web pages.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	model        string
	maxRetries   uint64
	maxPageChars int
	backoff      time.Duration

	creds CredentialSource
	log   *slog.Logger
	now   func() time.Time
}

// New creates a Client from cfg.
func New(cfg *config.Config, creds CredentialSource, log *slog.Logger) *Client {
	timeout := time.Duration(cfg.SummarizerTimeoutSeconds) * time.Second
	retries := cfg.SummarizerMaxRetries
	if retries < 0 {
		retries = 0
	}

	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      strings.TrimRight(cfg.SummarizerBaseURL, "/"),
		model:        cfg.SummarizerModel,
		maxRetries:   uint64(retries),
		maxPageChars: cfg.MaxPageChars,
		backoff:      time.Second,
		creds:        creds,
		log:          logging.OrDiscard(log).With("component", "summarizer"),
		now:          time.Now,
	}
}

// Summarize fetches rawURL and returns a markdown summary of it. A model
// reply with no content yields an empty Summary and a nil error.
func (c *Client) Summarize(ctx context.Context, rawURL string, withCode bool) (ops.Summary, error) {
	apiKey, ok := c.creds.Credential(ctx)
	if !ok {
		return ops.Summary{}, fmt.Errorf("no API key stored")
	}

	start := c.now()

	html, err := c.fetchPage(ctx, rawURL)
	if err != nil {
		return ops.Summary{}, err
	}

	page, err := extract(rawURL, html, withCode)
	if err != nil {
		return ops.Summary{}, err
	}
	page.Body = truncate(page.Body, c.maxPageChars)

	c.log.Debug("page extracted", "url", rawURL, "title", page.Title, "chars", len(page.Body))

	text, err := c.complete(ctx, apiKey, systemPrompt(withCode), userPrompt(rawURL, page))
	if err != nil {
		return ops.Summary{}, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		c.log.Warn("model returned no content", "url", rawURL)
		return ops.Summary{}, nil
	}

	c.log.Info("summary generated", "url", rawURL, "with_code", withCode,
		"duration", c.now().Sub(start).Round(time.Millisecond))

	return ops.Summary{
		FileName: ops.FileNameFromText(text, c.now()),
		Text:     text,
	}, nil
}

func (c *Client) fetchPage(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create page request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch page: status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read page body: %w", err)
	}
	return string(body), nil
}

// truncate cuts s to at most limit runes. limit <= 0 disables the limit.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

var _ ops.Summarizer = (*Client)(nil)
