// Package gen 定义生成管线的统一类型：能力枚举、生成请求/响应、
// Provider 接口与带错误码的 Error 类型。
//
// 具体的 Provider 实现位于 providers/ 子包（openai、grok、claude），
// 3D 网格生成由 mesh 包负责。
package gen
