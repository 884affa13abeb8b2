package openaihttp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/LubyRuffy/gptlb/auth"
)

// AuthProvider 提供访问 ChatGPT backend 所需的凭据。
// AccessToken 用于 Authorization: Bearer <token>
// AccountID 用于 ChatGPT-Account-Id（可为空）
// PlanType 用于在限流错误中回填 plan_type（可为空）。
type AuthProvider func(ctx context.Context) (auth.Credentials, error)

type Config struct {
	// BasePath 仅用于 Gin 注册路由时拼接路径，默认 "/v1"。
	BasePath string
	// BackendURL ChatGPT backend responses 端点地址，默认 gptlb.DefaultBackendURL。
	BackendURL string
	// HTTPClient 可选，nil 时内部使用 &http.Client{}。
	HTTPClient *http.Client
	// AuthProvider 必填：通过回调注入凭据。
	AuthProvider AuthProvider
	// Originator 可选，用于请求头 Originator/User-Agent；为空时使用后端默认值。
	Originator string
	// ReasoningEffort 请求未指定 reasoning.effort 时使用的默认值，可为空；取值为 low/medium/high。
	ReasoningEffort string
	// DefaultReasoningEffort 可选，每个请求读取一次，非 nil 时取代 ReasoningEffort。
	// 用于运行时可修改的默认值（例如管理面板设置）。
	DefaultReasoningEffort func() string
	// Now 可选，用于 /models 的 created 字段与 response.failed 的默认 created_at。
	Now func() time.Time
	// Logger 可选，nil 时使用 slog.Default()。
	Logger *slog.Logger
}
