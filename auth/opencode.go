package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type openCodeAuthFile struct {
	OpenAI struct {
		Access    string `json:"access"`
		AccountID string `json:"accountId"`
	} `json:"openai"`
}

// ReadOpenCodeAuthFromPath 读取 opencode 的 auth.json。该文件不含 id_token，PlanType 为空。
func ReadOpenCodeAuthFromPath(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read opencode auth file: %w", err)
	}

	var file openCodeAuthFile
	if err := json.Unmarshal(data, &file); err != nil {
		return Credentials{}, fmt.Errorf("failed to parse opencode auth file: %w", err)
	}

	access := strings.TrimSpace(file.OpenAI.Access)
	if access == "" {
		return Credentials{}, fmt.Errorf("opencode auth missing openai.access")
	}
	return Credentials{AccessToken: access, AccountID: strings.TrimSpace(file.OpenAI.AccountID)}, nil
}

func openCodeDefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "opencode", "auth.json"), nil
}

type openCodeProvider struct{}

func (p *openCodeProvider) Auth(ctx context.Context) (Credentials, error) {
	path, err := openCodeDefaultPath()
	if err != nil {
		return Credentials{}, err
	}
	return ReadOpenCodeAuthFromPath(path)
}
