// Package embedding wraps an OpenAI-compatible embedding provider with
// client-side rate limiting and transient-failure retry. The vector
// dimensionality is fixed per model and must agree with the vector index.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/coachdesk/coachdesk/ai/retry"
)

// Provider turns free text into a fixed-dimensionality float vector.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// Config represents embedding provider configuration.
type Config struct {
	BaseURL           string
	APIKey            string
	Model             string
	Dimensions        int
	Timeout           time.Duration
	RequestsPerSecond float64 // client-side rate limit; 0 disables
}

// DefaultConfig returns the provider defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:           "https://api.openai.com/v1",
		Model:             "text-embedding-3-small",
		Dimensions:        1536,
		Timeout:           30 * time.Second,
		RequestsPerSecond: 10,
	}
}

type provider struct {
	client      *openai.Client
	model       string
	dimensions  int
	timeout     time.Duration
	limiter     *rate.Limiter
	retryPolicy *retry.Policy
}

// NewProvider creates an embedding provider. A nil config uses defaults;
// zero-valued fields are filled from defaults.
func NewProvider(cfg *Config) (Provider, error) {
	defaults := DefaultConfig()
	if cfg == nil {
		cfg = defaults
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = defaults.Dimensions
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &provider{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		dimensions:  cfg.Dimensions,
		timeout:     cfg.Timeout,
		limiter:     limiter,
		retryPolicy: retry.DefaultPolicy(),
	}, nil
}

func (p *provider) Model() string {
	return p.model
}

func (p *provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, errors.New("text cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(p.model),
	}

	var resp openai.EmbeddingResponse
	err := p.retryPolicy.Do(ctx, func(ctx context.Context) error {
		var err error
		resp, err = p.client.CreateEmbeddings(ctx, req)
		return err
	}, retryableAPIError)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("empty embedding response")
	}

	vector := resp.Data[0].Embedding
	if p.dimensions > 0 && len(vector) != p.dimensions {
		return nil, fmt.Errorf("embedding dimensionality mismatch: got %d, want %d", len(vector), p.dimensions)
	}
	return vector, nil
}

func retryableAPIError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	return retry.Transient(err)
}
