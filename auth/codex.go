package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const openAIAuthClaim = "https://api.openai.com/auth"

type codexAuthFile struct {
	OpenAIAPIKey string `json:"OPENAI_API_KEY"`
	Tokens       struct {
		IDToken     string `json:"id_token"`
		AccessToken string `json:"access_token"`
		AccountID   string `json:"account_id"`
	} `json:"tokens"`
}

func ReadCodexAuthFromPath(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read codex auth file: %w", err)
	}

	var file codexAuthFile
	if err := json.Unmarshal(data, &file); err != nil {
		return Credentials{}, fmt.Errorf("failed to parse codex auth file: %w", err)
	}

	access := strings.TrimSpace(file.Tokens.AccessToken)
	if access == "" {
		// 兼容某些场景下只有 OPENAI_API_KEY 的情况（仍当作 bearer token 使用）。
		access = strings.TrimSpace(file.OpenAIAPIKey)
	}
	if access == "" {
		return Credentials{}, fmt.Errorf("codex auth missing tokens.access_token")
	}

	return Credentials{
		AccessToken: access,
		AccountID:   strings.TrimSpace(file.Tokens.AccountID),
		PlanType:    PlanTypeFromIDToken(file.Tokens.IDToken),
	}, nil
}

// PlanTypeFromIDToken 从 id_token 的 https://api.openai.com/auth.chatgpt_plan_type 中读取订阅类型。
// token 来自本地文件，这里只解析不验签；解析失败返回空字符串。
func PlanTypeFromIDToken(idToken string) string {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return ""
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return ""
	}
	authClaim, ok := claims[openAIAuthClaim].(map[string]any)
	if !ok {
		return ""
	}
	planType, _ := authClaim["chatgpt_plan_type"].(string)
	return strings.TrimSpace(planType)
}

func codexDefaultPath() (string, error) {
	if home := strings.TrimSpace(os.Getenv("CODEX_HOME")); home != "" {
		return filepath.Join(home, "auth.json"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".codex", "auth.json"), nil
}

type codexProvider struct{}

func (p *codexProvider) Auth(ctx context.Context) (Credentials, error) {
	path, err := codexDefaultPath()
	if err != nil {
		return Credentials{}, err
	}
	return ReadCodexAuthFromPath(path)
}
