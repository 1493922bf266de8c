package gpt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL   = "https://openrouter.ai/api/v1"
	DefaultModel     = "meta-llama/llama-3.2-3b-instruct:free"
	DefaultMaxTokens = 512
	DefaultTimeout   = 60 * time.Second

	completionsPath = "/chat/completions"
)

// Options configures a ChatClient.
type Options struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration

	// Optional OpenRouter attribution headers.
	Referer string
	Title   string

	Logger    logrus.FieldLogger
	Transport http.RoundTripper
}

// ChatClient talks to an OpenAI-compatible chat completions endpoint
// (OpenRouter by default).
type ChatClient struct {
	model     string
	maxTokens int
	http      *resty.Client
	logger    logrus.FieldLogger
}

// NewChatClient creates a new chat completions client
func NewChatClient(opts Options) *ChatClient {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	logger := opts.Logger
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(opts.APIKey).
		SetTimeout(timeout).
		SetLogger(logger)
	if opts.Transport != nil {
		client.SetTransport(opts.Transport)
	}
	if opts.Referer != "" {
		client.SetHeader("HTTP-Referer", opts.Referer)
	}
	if opts.Title != "" {
		client.SetHeader("X-Title", opts.Title)
	}

	return &ChatClient{
		model:     model,
		maxTokens: maxTokens,
		http:      client,
		logger:    logger,
	}
}

// Ask sends prompt as the only user message and returns the first choice's content.
func (c *ChatClient) Ask(ctx context.Context, prompt string) (string, error) {
	log := c.logger.WithFields(logrus.Fields{
		"request_id": uuid.NewString(),
		"model":      c.model,
	})

	payload, err := marshalJSON(NewChatRequest(c.model, prompt, c.maxTokens))
	if err != nil {
		return "", c.fail(log, transportFailure(fmt.Errorf("failed to marshal request: %w", err)), 0)
	}

	log.WithField("prompt_bytes", len(prompt)).Debug("Sending completion request")

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(completionsPath)
	elapsed := time.Since(start)
	if err != nil {
		return "", c.fail(log, transportFailure(err), elapsed)
	}

	content, failure := parseResponse(resp.Body(), resp.StatusCode())
	if failure != nil {
		return "", c.fail(log, failure, elapsed)
	}

	log.WithFields(logrus.Fields{
		"status":   resp.StatusCode(),
		"duration": elapsed,
	}).Debug("Completion received")

	return content, nil
}

func (c *ChatClient) fail(log logrus.FieldLogger, f *Failure, elapsed time.Duration) *Failure {
	entry := log.WithFields(logrus.Fields{
		"kind":     f.Kind,
		"status":   f.StatusCode,
		"duration": elapsed,
	})
	if f.Kind == KindMalformed && len(f.Payload) > 0 {
		entry = entry.WithField("payload", string(f.Payload))
	}
	entry.WithError(f).Debug("Completion request failed")
	return f
}

// parseResponse dispatches on the shape of body. The HTTP status is kept for
// diagnostics only.
func parseResponse(body []byte, status int) (string, *Failure) {
	if !json.Valid(body) {
		return "", malformedFailure("malformed response", status, body)
	}

	switch classify(body) {
	case shapeSuccess:
		var envelope struct {
			Choices []json.RawMessage `json:"choices"`
		}
		var choice chatChoice
		if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Choices) == 0 {
			return "", malformedFailure("malformed response", status, body)
		}
		if err := json.Unmarshal(envelope.Choices[0], &choice); err != nil {
			return "", malformedFailure("malformed response", status, body)
		}
		return choice.Message.Content, nil

	case shapeError:
		var envelope struct {
			Error apiError `json:"error"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return "", malformedFailure("malformed response", status, body)
		}
		return "", providerFailure(envelope.Error.Message, status, body)

	default:
		return "", malformedFailure("unexpected response: "+compact(body), status, body)
	}
}

func compact(body []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return string(body)
	}
	return buf.String()
}
