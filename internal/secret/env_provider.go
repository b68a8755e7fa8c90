package secret

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvProvider - 환경변수에서 시크릿 조회
// "slack-webhook-url" -> SLACK_WEBHOOK_URL
type EnvProvider struct {
	lookup func(string) (string, bool)
}

func NewEnvProvider() *EnvProvider {
	return &EnvProvider{lookup: os.LookupEnv}
}

func (p *EnvProvider) Get(_ context.Context, key string) (string, error) {
	name := EnvName(key)
	val, ok := p.lookup(name)
	if !ok || val == "" {
		return "", fmt.Errorf("%w: %s (env %s)", ErrSecretNotFound, key, name)
	}
	return val, nil
}

// EnvName - 시크릿 이름을 환경변수 이름으로 변환
func EnvName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}
