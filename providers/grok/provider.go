// Package grok 实现 xAI Grok 的 text-to-code Provider。
// Grok 完全兼容 OpenAI 聊天完成格式，直接复用 openaicompat 基类。
package grok

import (
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/geomflow/providers/openaicompat"
)

// Config 是 Grok Provider 的配置。
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
}

// Provider 经由 openaicompat 基类实现 gen.Provider。
type Provider struct {
	*openaicompat.Provider
}

// New 创建 Grok Provider 实例。
func New(cfg Config, logger *zap.Logger) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.x.ai"
	}
	if cfg.Model == "" {
		cfg.Model = "grok-beta"
	}

	return &Provider{
		Provider: openaicompat.New(openaicompat.Config{
			ProviderName: "grok",
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			Model:        cfg.Model,
			SystemPrompt: cfg.SystemPrompt,
			Temperature:  cfg.Temperature,
			MaxTokens:    cfg.MaxTokens,
			Timeout:      cfg.Timeout,
		}, logger),
	}
}
