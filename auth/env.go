package auth

import (
	"context"
	"fmt"
	"os"
	"strings"
)

const (
	EnvAccessToken = "GPTLB_ACCESS_TOKEN"
	EnvAccountID   = "GPTLB_ACCOUNT_ID"
	EnvPlanType    = "GPTLB_PLAN_TYPE"
)

type envProvider struct{}

func (p *envProvider) Auth(ctx context.Context) (Credentials, error) {
	access := strings.TrimSpace(os.Getenv(EnvAccessToken))
	if access == "" {
		return Credentials{}, fmt.Errorf("%s is not set", EnvAccessToken)
	}
	return Credentials{
		AccessToken: access,
		AccountID:   strings.TrimSpace(os.Getenv(EnvAccountID)),
		PlanType:    strings.TrimSpace(os.Getenv(EnvPlanType)),
	}, nil
}
