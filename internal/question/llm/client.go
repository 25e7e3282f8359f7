// Package llm talks to an OpenAI-compatible chat-completion endpoint and
// turns its replies into typed question payloads. Every failure mode is
// normalized into question.GenerationError; nothing provider-specific
// escapes this package.
package llm

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

	"github.com/rs/zerolog"

	"github.com/casnerano/snippet-war/internal/question"
)

// Config holds provider connection settings, fixed at construction.
type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	Timeout   time.Duration
	MaxTokens int
}

// Client sends generation prompts to the provider. It performs exactly one
// outbound call per invocation and never retries; retry policy belongs to
// the caller.
type Client struct {
	httpClient     *http.Client
	config         Config
	logger         zerolog.Logger
	completionsURL string
}

var _ question.Generator = (*Client)(nil)

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		config:         cfg,
		logger:         logger.With().Str("component", "llm_client").Logger(),
		completionsURL: base + "/chat/completions",
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type completionRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// batchEnvelope is the container the batch prompt asks the model to wrap
// multiple questions in.
type batchEnvelope struct {
	Questions []question.QuestionResponse `json:"questions"`
}

// GenerateQuestion sends one prompt and parses the reply as a single
// question payload, schema-validated before it is returned.
func (c *Client) GenerateQuestion(ctx context.Context, prompt string) (*question.QuestionResponse, error) {
	content, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var resp question.QuestionResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return nil, question.NewGenerationError(question.GenErrMalformedJSON,
			fmt.Sprintf("failed to parse JSON response: %v", err), err)
	}
	if err := resp.Validate(); err != nil {
		return nil, question.NewGenerationError(question.GenErrSchemaValidation,
			fmt.Sprintf("response failed validation: %v", err), err)
	}
	return &resp, nil
}

// GenerateQuestions sends one prompt built with BuildBatchPrompt and parses
// the reply as a non-empty list of question payloads.
func (c *Client) GenerateQuestions(ctx context.Context, prompt string) ([]question.QuestionResponse, error) {
	content, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var envelope batchEnvelope
	if err := json.Unmarshal([]byte(content), &envelope); err != nil {
		return nil, question.NewGenerationError(question.GenErrMalformedJSON,
			fmt.Sprintf("failed to parse JSON response: %v", err), err)
	}
	if len(envelope.Questions) == 0 {
		return nil, question.NewGenerationError(question.GenErrNoContent,
			"provider returned an empty question list", nil)
	}
	for i, resp := range envelope.Questions {
		if err := resp.Validate(); err != nil {
			return nil, question.NewGenerationError(question.GenErrSchemaValidation,
				fmt.Sprintf("question %d failed validation: %v", i, err), err)
		}
	}
	return envelope.Questions, nil
}

// complete performs the single chat-completion call and extracts the text
// content of the first choice.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	payload := completionRequest{
		Model:          c.config.Model,
		Messages:       []chatMessage{{Role: "user", Content: prompt}},
		ResponseFormat: responseFormat{Type: "json_object"},
		MaxTokens:      c.config.MaxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", question.NewGenerationError(question.GenErrUpstreamUnknown,
			fmt.Sprintf("failed to encode request: %v", err), err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.completionsURL, bytes.NewReader(body))
	if err != nil {
		return "", question.NewGenerationError(question.GenErrUpstreamUnknown,
			fmt.Sprintf("failed to build request: %v", err), err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return "", question.NewGenerationError(question.GenErrTimeout,
				fmt.Sprintf("request timed out after %s", c.httpClient.Timeout), err)
		}
		return "", question.NewGenerationError(question.GenErrUpstreamUnknown,
			fmt.Sprintf("request failed: %v", err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.statusError(resp)
	}

	var completion completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", question.NewGenerationError(question.GenErrMalformedJSON,
			fmt.Sprintf("failed to decode provider payload: %v", err), err)
	}
	if len(completion.Choices) == 0 {
		return "", question.NewGenerationError(question.GenErrNoContent,
			"empty response from provider: no choices returned", nil)
	}
	content := completion.Choices[0].Message.Content
	if content == "" {
		return "", question.NewGenerationError(question.GenErrNoContent,
			"empty response from provider: no text content", nil)
	}
	return content, nil
}

func (c *Client) statusError(resp *http.Response) error {
	message := readErrorMessage(resp.Body)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return question.NewGenerationError(question.GenErrRateLimited,
			fmt.Sprintf("rate limit exceeded: %s", message), nil)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return question.NewGenerationError(question.GenErrUnauthenticated,
			fmt.Sprintf("authentication failed: %s", message), nil)
	case resp.StatusCode >= 500:
		return question.NewGenerationError(question.GenErrUpstream,
			fmt.Sprintf("server error (status %d): %s", resp.StatusCode, message), nil)
	default:
		return question.NewGenerationError(question.GenErrUpstreamUnknown,
			fmt.Sprintf("provider error (status %d): %s", resp.StatusCode, message), nil)
	}
}

// readErrorMessage extracts a human-readable cause from an error body,
// falling back to the raw text when it is not the usual error envelope.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return "no error detail"
	}
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return strings.TrimSpace(string(raw))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
