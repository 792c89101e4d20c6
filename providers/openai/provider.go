// Package openai 实现 OpenAI 的 text-to-code Provider。
package openai

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/geomflow/providers"
	"github.com/BaSui01/geomflow/providers/openaicompat"
)

// Config 是 OpenAI Provider 的配置。
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration

	// Organization 是可选的 OpenAI-Organization 请求头。
	Organization string
}

// Provider 经由 openaicompat 基类实现 gen.Provider。
type Provider struct {
	*openaicompat.Provider
}

// New 创建 OpenAI Provider 实例。
func New(cfg Config, logger *zap.Logger) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4"
	}

	p := &Provider{
		Provider: openaicompat.New(openaicompat.Config{
			ProviderName: "openai",
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			Model:        cfg.Model,
			SystemPrompt: cfg.SystemPrompt,
			Temperature:  cfg.Temperature,
			MaxTokens:    cfg.MaxTokens,
			Timeout:      cfg.Timeout,
		}, logger),
	}

	if cfg.Organization != "" {
		org := cfg.Organization
		p.SetBuildHeaders(func(req *http.Request, apiKey string) {
			providers.BearerTokenHeaders(req, apiKey)
			req.Header.Set("OpenAI-Organization", org)
		})
	}

	return p
}
