package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sethvargo/go-retry"
)

const (
	maxTokens   = 2000
	temperature = 0.3
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func systemPrompt(withCode bool) string {
	var b strings.Builder
	b.WriteString("You summarize web pages for a reader who wants the key ideas quickly.\n")
	b.WriteString("Reply in markdown only. The first line must be \"# \" followed by a short title for the page.\n")
	b.WriteString("Use \"## \" section headings, \"* \" bullet points and **bold** for key terms.\n")
	if withCode {
		b.WriteString("Keep the most important code examples from the page in fenced code blocks.\n")
	} else {
		b.WriteString("Do not include code; describe what code does in prose instead.\n")
	}
	return b.String()
}

func userPrompt(rawURL string, p page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\n", rawURL)
	if p.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", p.Title)
	}
	b.WriteString("\n")
	b.WriteString(p.Body)
	return b.String()
}

// complete sends one chat completion. 429s, 5xx and transport errors are
// retried with exponential backoff.
func (c *Client) complete(ctx context.Context, apiKey, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + "/chat/completions"
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.backoff))

	var content string
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		text, err := c.callOnce(ctx, endpoint, apiKey, body)
		if err != nil {
			c.log.Debug("completion attempt failed", "attempt", attempt, "error", err)
			return err
		}
		content = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

func (c *Client) callOnce(ctx context.Context, endpoint, apiKey string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		return "", retry.RetryableError(fmt.Errorf("call %s: %w", endpoint, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", retry.RetryableError(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("model returned %d: %s", resp.StatusCode, truncate(string(respBody), 200))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", retry.RetryableError(statusErr)
		}
		return "", statusErr
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", nil
	}
	return result.Choices[0].Message.Content, nil
}
