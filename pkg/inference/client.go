/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: client.go
Description: OpenAI-compatible chat-completion client. Each component is one independent
request; transport failures, 429 and 5xx replies are retried with exponential backoff, other
statuses and schema failures are returned immediately.
*/

package inference

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

	"github.com/cenkalti/backoff/v4"
	"github.com/kleascm/intentscout/pkg/intent"
	"github.com/kleascm/intentscout/pkg/logging"
	"github.com/sirupsen/logrus"
)

// Message is one chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []Message         `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
	Stream         bool              `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// statusError is a non-2xx reply
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.status, e.body)
}

// Client talks to a chat-completion endpoint
type Client struct {
	cfg    Config
	http   *http.Client
	logger logrus.FieldLogger
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the transport
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the logger used for retry notices
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for cfg
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{},
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the client settings
func (c *Client) Config() Config { return c.cfg }

// endpointURL joins the configured base with an API path. An endpoint that already
// names the chat route is used as is.
func (c *Client) endpointURL(path string) string {
	base := strings.TrimRight(c.cfg.Endpoint, "/")
	base = strings.TrimSuffix(base, "/chat/completions")
	return base + path
}

func (c *Client) authorize(req *http.Request) {
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
}

// Infer asks the model for the extras of one component
func (c *Client) Infer(ctx context.Context, req Request) ([]intent.ExtraParameter, error) {
	body := chatRequest{
		Model:       c.cfg.Model,
		Messages:    BuildMessages(req),
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	if c.cfg.JSONMode {
		body.ResponseFormat = map[string]string{"type": "json_object"}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	content, err := c.complete(ctx, payload, req.Component.Name)
	if err != nil {
		return nil, err
	}
	return ParseReply(content)
}

// complete posts the chat request with retries and returns the reply text
func (c *Client) complete(ctx context.Context, payload []byte, subject string) (string, error) {
	var content string
	attempts := 0

	operation := func() error {
		attempts++
		reqCtx := ctx
		if c.cfg.RequestTimeout > 0 {
			var cancel context.CancelFunc
			reqCtx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
			defer cancel()
		}

		httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpointURL("/chat/completions"), bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		c.authorize(httpReq)

		resp, err := c.http.Do(httpReq)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			serr := &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(raw))}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return serr
			}
			return backoff.Permanent(serr)
		}

		var out chatResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return backoff.Permanent(&SchemaError{Reason: fmt.Sprintf("chat response: %v", err)})
		}
		if len(out.Choices) == 0 {
			return backoff.Permanent(&SchemaError{Reason: "chat response has no choices"})
		}
		content = out.Choices[0].Message.Content
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	if c.cfg.RetryBaseDelay > 0 {
		policy.InitialInterval = c.cfg.RetryBaseDelay
	}
	policy.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.cfg.MaxRetries)), ctx)

	notify := func(err error, wait time.Duration) {
		c.logger.WithFields(logrus.Fields{
			"component": subject,
			"attempt":   attempts,
			"wait":      wait,
		}).Debugf("Inference request failed, retrying: %v", err)
	}

	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		var schemaErr *SchemaError
		if errors.As(err, &schemaErr) {
			return "", schemaErr
		}
		return "", &NetworkError{Attempts: attempts, Err: err}
	}
	return content, nil
}

// ListModels returns the model ids served by the endpoint
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	reqCtx := ctx
	if c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.endpointURL("/models"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build models request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Attempts: 1, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &NetworkError{Attempts: 1, Err: &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(raw))}}
	}

	var out struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &SchemaError{Reason: fmt.Sprintf("models response: %v", err)}
	}

	models := make([]string, 0, len(out.Data))
	for _, m := range out.Data {
		if m.ID != "" {
			models = append(models, m.ID)
		}
	}
	return models, nil
}

// SelectModel resolves a user choice against the served models. A 1-based index
// selects by position; anything else is a case-insensitive substring that must
// match exactly one model, or an exact id.
func SelectModel(models []string, choice string) (string, error) {
	choice = strings.TrimSpace(choice)
	if choice == "" {
		return "", fmt.Errorf("no model specified")
	}
	if len(models) == 0 {
		return "", fmt.Errorf("endpoint serves no models")
	}

	var index int
	if _, err := fmt.Sscanf(choice, "%d", &index); err == nil && fmt.Sprint(index) == choice {
		if index < 1 || index > len(models) {
			return "", fmt.Errorf("model index %d out of range 1-%d", index, len(models))
		}
		return models[index-1], nil
	}

	var matches []string
	lower := strings.ToLower(choice)
	for _, m := range models {
		if m == choice {
			return m, nil
		}
		if strings.Contains(strings.ToLower(m), lower) {
			matches = append(matches, m)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no model matches %q", choice)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%q matches %d models: %s", choice, len(matches), strings.Join(matches, ", "))
	}
}
