// Package openaiapi 提供 OpenAI v1 兼容接口的通用数据结构与错误载荷构建函数。
//
// 该包只关注协议层：响应 JSON 结构、错误信封以及 response.failed 流式事件。
// JSON 编码与 HTTP 写出由 openaihttp 负责。
//
// 示例：构建一个限流错误并输出
//
//	env := openaiapi.OpenAIError("rate_limit_exceeded", "Too many requests",
//		openaiapi.WithErrorType("rate_limit_error"),
//		openaiapi.WithResetsInSeconds(30),
//	)
//	_ = json.NewEncoder(w).Encode(env)
//
// 示例：流中途失败时输出 response.failed 事件
//
//	ev := openaiapi.ResponseFailed(openaiapi.ResponseFailedParams{
//		Code:       "stream_disconnected",
//		Message:    "upstream closed the stream",
//		ResponseID: "resp_123",
//	})
package openaiapi
