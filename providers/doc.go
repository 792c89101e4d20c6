// Package providers 包含各具体 Provider 共享的辅助代码：
// HTTP 错误映射、错误消息读取、OpenAI 兼容的请求/响应类型，
// 以及代码生成提示词的组装。
//
// 具体实现见子包 openai、grok（经 openaicompat 基类）与 claude。
package providers
