// Package dashboardhttp 提供管理面板使用的 /api/* 接口（gin）。
//
// 所有错误都以 dashboardapi.ErrorEnvelope 返回；请求体校验失败时附带 validation_errors，
// 顺序与字段声明顺序一致。
//
//	store := dashboardhttp.NewSettingsStore(dashboardhttp.DefaultSettings())
//	_ = dashboardhttp.RegisterGinRoutes(r, dashboardhttp.Config{AdminToken: token, Store: store})
package dashboardhttp
