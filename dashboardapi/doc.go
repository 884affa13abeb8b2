// Package dashboardapi 提供管理面板（/api/*）接口使用的错误信封。
//
// 面板错误的形状与 OpenAI 错误不同：
//
//	{"error": {"code": "...", "message": "..."}, "validation_errors": [{"field": "...", "message": "...", "type": "..."}]}
//
// validation_errors 仅在非空时出现。
package dashboardapi
