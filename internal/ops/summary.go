package ops

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/hpungsan/skim/internal/errors"
)

// CredentialChecker reports whether an API key is stored.
type CredentialChecker interface {
	HasCredential(ctx context.Context) bool
}

// Summary is what the summarization service produces for one page.
type Summary struct {
	FileName string
	Text     string
}

// Summarizer produces a summary of the page at rawURL. An empty Text with a
// nil error means the service had nothing to say.
type Summarizer interface {
	Summarize(ctx context.Context, rawURL string, withCode bool) (Summary, error)
}

// SummaryInput contains parameters for the RequestSummary operation.
type SummaryInput struct {
	URL      string `json:"url"`
	WithCode bool   `json:"withCode"`
}

// SummaryOutput contains the result of the RequestSummary operation.
type SummaryOutput struct {
	FileName string `json:"fileName"`
	Text     string `json:"text"`
}

// RequestSummary validates input and asks svc for a summary.
// Rules:
// - No stored credential → ErrMissingCredential
// - URL not absolute → ErrInvalidURL
// - Service error or empty text → ErrEmptySummary (service error kept as cause)
// Both guards run before svc is called.
func RequestSummary(ctx context.Context, creds CredentialChecker, svc Summarizer, input SummaryInput) (*SummaryOutput, error) {
	if !creds.HasCredential(ctx) {
		return nil, errors.NewMissingCredential()
	}

	target, err := ParseAbsoluteURL(input.URL)
	if err != nil {
		return nil, err
	}

	summary, err := svc.Summarize(ctx, target, input.WithCode)
	if err != nil {
		return nil, errors.NewEmptySummary(err)
	}
	if strings.TrimSpace(summary.Text) == "" {
		return nil, errors.NewEmptySummary(nil)
	}

	return &SummaryOutput{
		FileName: summary.FileName,
		Text:     summary.Text,
	}, nil
}

// ParseAbsoluteURL returns raw (trimmed) when it parses as an absolute URL:
// a scheme plus a host or opaque part.
func ParseAbsoluteURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.NewInvalidURL(raw, fmt.Errorf("empty url"))
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", errors.NewInvalidURL(raw, err)
	}
	if !u.IsAbs() {
		return "", errors.NewInvalidURL(raw, fmt.Errorf("url has no scheme"))
	}
	if u.Host == "" && u.Opaque == "" {
		return "", errors.NewInvalidURL(raw, fmt.Errorf("url has no host"))
	}

	return trimmed, nil
}
