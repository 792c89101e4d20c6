package gen

import (
	"context"
	"errors"
)

// 统一的生成错误码，用于对齐 HTTP 状态、可重试性与重试策略。
type ErrorCode string

const (
	ErrNetwork       ErrorCode = "GEN_NETWORK"        // 传输层失败（连接/超时）
	ErrHTTP          ErrorCode = "GEN_HTTP"           // 非 2xx 响应
	ErrEmptyResponse ErrorCode = "GEN_EMPTY_RESPONSE" // 2xx 但响应体无法解析或为空
	ErrTaskFailed    ErrorCode = "GEN_TASK_FAILED"    // 远端任务显式报告失败
	ErrNoTaskID      ErrorCode = "GEN_NO_TASK_ID"     // 创建响应缺少任务 ID
	ErrFileIO        ErrorCode = "GEN_FILE_IO"        // 资产写入/删除失败
	ErrBusy          ErrorCode = "GEN_BUSY"           // 已有生成任务在执行
	ErrInvalidInput  ErrorCode = "GEN_INVALID_INPUT"  // 请求参数在发出前即不合法
)

// Error 是生成管线的统一错误类型。
// EmptyResponse 永不重试；Network/HTTP 由重试包装器按策略重试。
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// IsRetryable 报告 err 是否为可重试的 *Error。
func IsRetryable(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Retryable
}

// CodeOf 返回 err 携带的错误码，非 *Error 时返回空串。
func CodeOf(err error) ErrorCode {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}

// Capability 标识一次生成请求所需的能力。
type Capability string

const (
	TextToCode Capability = "text-to-code"
	TextTo3D   Capability = "text-to-3d"
	ImageTo3D  Capability = "image-to-3d"
)

// GenerationRequest 描述一次生成请求。发出后不可变。
type GenerationRequest struct {
	Prompt     string     `json:"prompt"`
	Capability Capability `json:"capability"`
	ProviderID string     `json:"provider_id"`

	// Units 是宿主文档的单位制（如 "millimeters"），拼入用户消息。
	Units string `json:"units,omitempty"`
}

// ProviderResponse 是文本生成的结果，由产生它的调用独占。
// SanitizedText 经过 sanitize 包清洗，可直接作为脚本执行。
type ProviderResponse struct {
	RawText       string `json:"raw_text"`
	SanitizedText string `json:"sanitized_text"`
}

// Provider 定义 text-to-code 能力的统一适配接口。
type Provider interface {
	// Generate 发起一次同步生成请求，返回清洗后的脚本文本。
	// 失败返回 *Error（Network/HTTP/EmptyResponse）。
	Generate(ctx context.Context, req *GenerationRequest) (*ProviderResponse, error)

	// Name 返回 Provider 的唯一标识
	Name() string
}
