// Package gptlb 将 ChatGPT Backend API（基于 OAuth token 的 responses SSE 接口）
// 以 OpenAI v1 兼容的方式对外提供，并附带一个管理面板 API。
//
// 两类 API 表面各自有固定的错误契约：
//  1. openaihttp：/v1/models、/v1/responses，错误为 OpenAI 错误信封，流式失败输出 response.failed 事件
//  2. dashboardhttp：/api/settings，错误为面板错误信封（可带 validation_errors）
//
// 错误载荷的构建分别位于 openaiapi 与 dashboardapi 包。
package gptlb
