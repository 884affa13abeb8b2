package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoCredentials 所有来源都没有可用凭据。
var ErrNoCredentials = errors.New("no auth available")

// NewProvider 根据来源创建 Provider。
// source 允许：codex/opencode/env/auto；空值按 codex 处理。
func NewProvider(source string) (Provider, error) {
	s := strings.ToLower(strings.TrimSpace(source))
	if s == "" {
		s = string(SourceCodex)
	}
	switch Source(s) {
	case SourceCodex:
		return &codexProvider{}, nil
	case SourceOpenCode:
		return &openCodeProvider{}, nil
	case SourceEnv:
		return &envProvider{}, nil
	case SourceAuto:
		return &autoProvider{providers: []Provider{&codexProvider{}, &openCodeProvider{}, &envProvider{}}}, nil
	default:
		return nil, fmt.Errorf("unsupported auth source: %s", source)
	}
}

type autoProvider struct {
	providers []Provider
}

// Auth 依次尝试各来源，返回第一个有效凭据；全部失败时合并各来源的错误。
func (p *autoProvider) Auth(ctx context.Context) (Credentials, error) {
	var errs []error
	for _, provider := range p.providers {
		creds, err := provider.Auth(ctx)
		if err == nil && strings.TrimSpace(creds.AccessToken) != "" {
			return creds, nil
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return Credentials{}, errors.Join(append([]error{ErrNoCredentials}, errs...)...)
}
