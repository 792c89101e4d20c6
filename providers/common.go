package providers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/BaSui01/geomflow/gen"
)

// MapHTTPError 将非 2xx 状态码映射为带重试标记的 gen.Error。
// 所有 HTTP 错误共用 ErrHTTP 错误码；可重试性交由重试包装器判断。
func MapHTTPError(status int, msg string, provider string) *gen.Error {
	return &gen.Error{
		Code:       gen.ErrHTTP,
		Message:    fmt.Sprintf("status=%d: %s", status, msg),
		HTTPStatus: status,
		Retryable:  true,
		Provider:   provider,
	}
}

// NetworkError 将传输层错误包装为 gen.Error。
func NetworkError(err error, provider string) *gen.Error {
	return &gen.Error{
		Code:      gen.ErrNetwork,
		Message:   err.Error(),
		Retryable: true,
		Provider:  provider,
	}
}

// EmptyResponseError 表示 2xx 响应但载荷为空或无法解析。永不重试。
func EmptyResponseError(msg string, provider string) *gen.Error {
	return &gen.Error{
		Code:       gen.ErrEmptyResponse,
		Message:    msg,
		HTTPStatus: http.StatusOK,
		Provider:   provider,
	}
}

// ReadErrorMessage 读取响应体中的错误消息。
// 尝试解析 JSON 错误响应，失败则回退到原始文本。
func ReadErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(body)
	if err != nil {
		return "failed to read error response"
	}

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		if errResp.Error.Type != "" {
			return fmt.Sprintf("%s (type: %s)", errResp.Error.Message, errResp.Error.Type)
		}
		return errResp.Error.Message
	}

	return string(data)
}

// OpenAI 兼容 API 通用类型。
// OpenAI 与 Grok 共用该聊天完成格式（见 openaicompat 基类）。

// Message 表示 OpenAI 兼容的消息格式.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest 表示 OpenAI 兼容的聊天完成请求.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

// ChatChoice 表示 OpenAI 兼容响应中的单个选项.
type ChatChoice struct {
	Index        int     `json:"index"`
	FinishReason string  `json:"finish_reason"`
	Message      Message `json:"message"`
}

// ChatResponse 表示 OpenAI 兼容的聊天完成响应.
type ChatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
}

// BearerTokenHeaders 是标准的 Bearer token 认证 header 构建函数。
func BearerTokenHeaders(r *http.Request, apiKey string) {
	r.Header.Set("Authorization", "Bearer "+apiKey)
	r.Header.Set("Content-Type", "application/json")
}
