// Package claude 实现 Anthropic Claude 的 text-to-code Provider。
// Claude API 与 OpenAI 有显著差异：
// 1. 认证使用 x-api-key 请求头而非 Bearer Token
// 2. system 提示词作为请求体的独立字段传递
// 3. 助手文本位于 content[0].text 而非 choices[0].message.content
package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/geomflow/gen"
	"github.com/BaSui01/geomflow/gen/sanitize"
	"github.com/BaSui01/geomflow/internal/tlsutil"
	"github.com/BaSui01/geomflow/providers"
)

const anthropicVersion = "2023-06-01"

// Config 是 Claude Provider 的配置。
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
}

// Provider 实现 gen.Provider。
type Provider struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New 创建 Claude Provider。
func New(cfg Config, logger *zap.Logger) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if cfg.Model == "" {
		cfg.Model = "claude-3-sonnet-20240229"
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
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		cfg:    cfg,
		client: tlsutil.SecureHTTPClient(cfg.Timeout),
		logger: logger,
	}
}

func (p *Provider) Name() string { return "claude" }

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// system 消息单独传递，与 OpenAI 的 messages 角色不同。
type claudeRequest struct {
	Model       string          `json:"model"`
	System      string          `json:"system,omitempty"`
	Messages    []claudeMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature,omitempty"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type claudeResponse struct {
	ID      string          `json:"id"`
	Model   string          `json:"model"`
	Content []claudeContent `json:"content"`
}

type claudeErrorResp struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *Provider) buildHeaders(req *http.Request) {
	req.Header.Set("x-api-key", p.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// Generate 发起一次 /v1/messages 请求并清洗助手文本。
func (p *Provider) Generate(ctx context.Context, req *gen.GenerationRequest) (*gen.ProviderResponse, error) {
	body := claudeRequest{
		Model:  p.cfg.Model,
		System: p.cfg.SystemPrompt,
		Messages: []claudeMessage{
			{Role: "user", Content: providers.BuildUserMessage(req.Units, req.Prompt)},
		},
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/messages", strings.TrimRight(p.cfg.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.buildHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, providers.NetworkError(err, p.Name())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := readClaudeErrMsg(resp.Body)
		p.logger.Warn("claude request failed",
			zap.Int("status", resp.StatusCode),
		)
		return nil, providers.MapHTTPError(resp.StatusCode, msg, p.Name())
	}

	var claudeResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&claudeResp); err != nil {
		return nil, providers.EmptyResponseError(fmt.Sprintf("failed to decode response: %v", err), p.Name())
	}

	if len(claudeResp.Content) == 0 || claudeResp.Content[0].Text == "" {
		return nil, providers.EmptyResponseError("empty assistant message", p.Name())
	}

	raw := claudeResp.Content[0].Text
	cleaned := sanitize.Clean(raw)
	if cleaned == "" {
		return nil, providers.EmptyResponseError("response contained no executable code", p.Name())
	}

	return &gen.ProviderResponse{RawText: raw, SanitizedText: cleaned}, nil
}

func readClaudeErrMsg(body io.Reader) string {
	data, _ := io.ReadAll(body)
	var errResp claudeErrorResp
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		return fmt.Sprintf("%s (type: %s)", errResp.Error.Message, errResp.Error.Type)
	}
	return string(data)
}
