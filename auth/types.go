package auth

import "context"

// Credentials 访问 ChatGPT backend 所需的凭据。
// PlanType 来自 id_token（若可用），用于在限流错误中回填 plan_type。
type Credentials struct {
	AccessToken string
	AccountID   string
	PlanType    string
}

// Provider 用于从不同来源读取凭据。
type Provider interface {
	Auth(ctx context.Context) (Credentials, error)
}

type Source string

const (
	SourceCodex    Source = "codex"
	SourceOpenCode Source = "opencode"
	SourceEnv      Source = "env"
	SourceAuto     Source = "auto"
)
