// Package openaicompat provides a shared base implementation for providers
// speaking the OpenAI chat-completions wire format.
//
// OpenAI and Grok share the same request shape and the same response JSON
// path (choices[0].message.content). Instead of duplicating the HTTP
// handling in each provider, they embed openaicompat.Provider and only
// override what differs: provider name, base URL, default model, and
// custom headers.
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/geomflow/gen"
	"github.com/BaSui01/geomflow/gen/sanitize"
	"github.com/BaSui01/geomflow/internal/tlsutil"
	"github.com/BaSui01/geomflow/providers"
)

// Config holds the configuration for an OpenAI-compatible provider.
type Config struct {
	// ProviderName is the unique identifier for this provider (e.g. "openai", "grok").
	ProviderName string

	// APIKey is the authentication key for the provider's API.
	APIKey string

	// BaseURL is the base URL for the provider's API.
	BaseURL string

	// Model is the model identifier sent with every request.
	Model string

	// SystemPrompt is the code-generation ruleset; defaults to
	// providers.DefaultSystemPrompt when empty.
	SystemPrompt string

	// Temperature defaults to 0.1 when zero.
	Temperature float64

	// MaxTokens defaults to 2000 when zero.
	MaxTokens int

	// Timeout is the per-request HTTP timeout. Defaults to 30s if zero.
	Timeout time.Duration

	// EndpointPath is the chat completions endpoint path. Defaults to
	// "/v1/chat/completions".
	EndpointPath string

	// BuildHeaders optionally sets custom headers on each request.
	// If nil, "Authorization: Bearer <apiKey>" is used.
	BuildHeaders func(req *http.Request, apiKey string)
}

// Provider is the base implementation for OpenAI-compatible gateways.
// Embed this in a provider struct and override Name() if needed.
type Provider struct {
	Cfg    Config
	Client *http.Client
	Logger *zap.Logger
}

// New creates a base provider with defaults applied.
func New(cfg Config, logger *zap.Logger) *Provider {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/v1/chat/completions"
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = providers.DefaultSystemPrompt
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.1
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		Cfg:    cfg,
		Client: tlsutil.SecureHTTPClient(cfg.Timeout),
		Logger: logger,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return p.Cfg.ProviderName }

// SetBuildHeaders sets a custom header builder for the provider.
func (p *Provider) SetBuildHeaders(fn func(req *http.Request, apiKey string)) {
	p.Cfg.BuildHeaders = fn
}

func (p *Provider) buildHeaders(req *http.Request, apiKey string) {
	if p.Cfg.BuildHeaders != nil {
		p.Cfg.BuildHeaders(req, apiKey)
		return
	}
	providers.BearerTokenHeaders(req, apiKey)
}

func (p *Provider) endpoint() string {
	return fmt.Sprintf("%s%s", strings.TrimRight(p.Cfg.BaseURL, "/"), p.Cfg.EndpointPath)
}

// Generate performs one chat completion and sanitizes the assistant text.
// Transport failures and non-2xx statuses come back retryable; a 2xx
// response whose body yields no usable text is a permanent EmptyResponse.
func (p *Provider) Generate(ctx context.Context, req *gen.GenerationRequest) (*gen.ProviderResponse, error) {
	body := providers.ChatRequest{
		Model: p.Cfg.Model,
		Messages: []providers.Message{
			{Role: "system", Content: p.Cfg.SystemPrompt},
			{Role: "user", Content: providers.BuildUserMessage(req.Units, req.Prompt)},
		},
		Temperature: p.Cfg.Temperature,
		MaxTokens:   p.Cfg.MaxTokens,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.buildHeaders(httpReq, p.Cfg.APIKey)

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return nil, providers.NetworkError(err, p.Name())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		p.Logger.Warn("completion request failed",
			zap.String("provider", p.Name()),
			zap.Int("status", resp.StatusCode),
		)
		return nil, providers.MapHTTPError(resp.StatusCode, msg, p.Name())
	}

	var chatResp providers.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, providers.EmptyResponseError(fmt.Sprintf("failed to decode response: %v", err), p.Name())
	}

	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return nil, providers.EmptyResponseError("empty assistant message", p.Name())
	}

	raw := chatResp.Choices[0].Message.Content
	cleaned := sanitize.Clean(raw)
	if cleaned == "" {
		return nil, providers.EmptyResponseError("response contained no executable code", p.Name())
	}

	return &gen.ProviderResponse{RawText: raw, SanitizedText: cleaned}, nil
}
