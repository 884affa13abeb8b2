// Package openaihttp 提供基于 ChatGPT Backend responses 端点的 OpenAI v1 兼容 HTTP 处理器。
//
// 该包对外只暴露：
// - net/http 形式的 handlers（models/responses）
// - Gin 路由注册方法与 NoRoute 兜底
//
// 所有错误响应都使用 openaiapi 的 OpenAI 错误信封；流式响应在后端出错或提前断开时，
// 以一个 response.failed 事件结束。
//
// 鉴权信息仅通过回调注入（AuthProvider），该包不会读取本地 auth.json。
//
// 使用示例：
//
//	// net/http
//	modelsH, responsesH, _ := openaihttp.Handlers(openaihttp.Config{
//		AuthProvider: func(ctx context.Context) (auth.Credentials, error) {
//			return auth.Credentials{AccessToken: accessToken, AccountID: accountID}, nil
//		},
//	})
//	mux.HandleFunc("/v1/models", modelsH)
//	mux.HandleFunc("/v1/responses", responsesH)
//
//	// gin
//	_ = openaihttp.RegisterGinRoutes(r, openaihttp.Config{
//		BasePath:     "/v1",
//		AuthProvider: provider.Auth,
//	})
//	r.NoRoute(openaihttp.NoRouteHandler("/v1", nil))
package openaihttp
