// Package ai wraps the Gemini API behind a small interface so the parsing
// pipeline can be tested without network access.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	retry "github.com/avast/retry-go"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"hishab/internal/logging"
	"hishab/internal/parsererror"
)

// Client is the model-facing surface the pipeline depends on. Complete sends
// one prompt and returns the raw text of the first candidate.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	ModelName() string
	Close() error
}

// Options configure a GeminiClient. Zero values fall back to conservative
// defaults suited to short structured-output prompts.
type Options struct {
	APIKey          string
	Model           string
	Timeout         time.Duration
	Temperature     float32
	MaxOutputTokens int32
}

const (
	defaultModel     = "gemini-2.0-flash"
	defaultTimeout   = 20 * time.Second
	minTimeout       = 15 * time.Second
	maxTimeout       = 30 * time.Second
	defaultMaxTokens = 1024
	healthCheckTries = 3
	healthCheckDelay = 500 * time.Millisecond
)

// GeminiClient talks to the Gemini generative API.
type GeminiClient struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	name    string
	timeout time.Duration
	logger  logging.Logger
}

// NewGeminiClient builds a client from Options. The API key is required;
// everything else has a default.
func NewGeminiClient(ctx context.Context, opts Options, logger logging.Logger) (*GeminiClient, error) {
	if logger == nil {
		logger = logging.GetLogger()
	}
	if opts.APIKey == "" {
		return nil, &parsererror.ApiError{Operation: "init", Model: opts.Model, Err: fmt.Errorf("missing API key")}
	}
	if opts.Model == "" {
		opts.Model = defaultModel
	}

	timeout := clampTimeout(opts.Timeout)

	client, err := genai.NewClient(ctx, option.WithAPIKey(opts.APIKey))
	if err != nil {
		return nil, &parsererror.ApiError{Operation: "init", Model: opts.Model, Err: err}
	}

	model := client.GenerativeModel(opts.Model)
	model.SetTemperature(opts.Temperature)
	if opts.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(opts.MaxOutputTokens)
	} else {
		model.SetMaxOutputTokens(defaultMaxTokens)
	}

	logger.WithFields(
		logging.Field{Key: logging.FieldModel, Value: opts.Model},
		logging.Field{Key: "timeout", Value: timeout.String()},
	).Debug("gemini client initialized")

	return &GeminiClient{
		client:  client,
		model:   model,
		name:    opts.Model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// clampTimeout keeps the per-call deadline inside the window the upstream
// API reliably answers in.
func clampTimeout(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return defaultTimeout
	case d < minTimeout:
		return minTimeout
	case d > maxTimeout:
		return maxTimeout
	}
	return d
}

// Complete sends the prompt and returns the text of the first candidate.
// Exactly one request is made; retries are the caller's policy, and the
// parsing pipeline deliberately has none.
func (g *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &parsererror.ApiError{Operation: "generate", Model: g.name, Err: err}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &parsererror.MalformedResponseError{Reason: "empty candidate content"}
	}

	text := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	if strings.TrimSpace(text) == "" {
		return "", &parsererror.MalformedResponseError{Reason: "blank candidate text"}
	}
	return text, nil
}

// ModelName reports the configured model identifier for audit records.
func (g *GeminiClient) ModelName() string { return g.name }

// Close releases the underlying connection.
func (g *GeminiClient) Close() error { return g.client.Close() }

// HealthCheck verifies the API key and connectivity by listing models until
// the configured one appears. This is the only networked path that retries;
// it runs from the CLI, never inside a parse.
func (g *GeminiClient) HealthCheck(ctx context.Context) error {
	err := retry.Do(
		func() error { return g.findModel(ctx) },
		retry.Attempts(healthCheckTries),
		retry.Delay(healthCheckDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return &parsererror.ApiError{Operation: "health", Model: g.name, Err: err}
	}
	return nil
}

func (g *GeminiClient) findModel(ctx context.Context) error {
	it := g.client.ListModels(ctx)
	for {
		m, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return err
		}
		if strings.HasSuffix(m.Name, g.name) {
			return nil
		}
	}
	return fmt.Errorf("model %q not available", g.name)
}
