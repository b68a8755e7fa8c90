// Package secret reads the notifier's named secrets from a secret backend.
package secret

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/exception-notifier/backend/internal/config"
)

// 시작 시 읽어오는 시크릿 이름
const (
	NameAPIKey          = "api-key"
	NameAppID           = "app-id"
	NameSlackWebhookURL = "slack-webhook-url"
	NameTenantID        = "tenant-id"
	NameResourceGroup   = "resource-group-name"
	NameResourceName    = "app-insights-resource-name"
	NameSubscriptionID  = "subscription-id"
)

// ErrSecretNotFound - 시크릿이 없거나 값이 비어있음
var ErrSecretNotFound = errors.New("secret not found")

// Provider is the abstraction for secret backends (env, JSON file, Azure Key Vault).
type Provider interface {
	// Get returns the plaintext value for a logical key.
	Get(ctx context.Context, key string) (string, error)
}

// NewProvider - SECRET_PROVIDER 설정에 맞는 Provider 생성
func NewProvider(ctx context.Context, cfg config.SecretStoreConfig) (Provider, error) {
	switch cfg.Provider {
	case "", "env":
		return NewEnvProvider(), nil
	case "json":
		return NewJSONProvider(cfg.FilePath)
	case "keyvault":
		return NewKeyVaultProvider(ctx, KeyVaultOptions{
			VaultURL:     cfg.VaultURL,
			TenantID:     cfg.TenantID,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
		})
	default:
		return nil, fmt.Errorf("unknown secret provider %q", cfg.Provider)
	}
}

// LoadSecrets - 필요한 시크릿을 모두 읽어 config.Secrets로 반환
// 하나라도 실패하면 에러 (시작 단계에서 치명적)
func LoadSecrets(ctx context.Context, p Provider) (config.Secrets, error) {
	var s config.Secrets
	targets := []struct {
		name string
		dst  *string
	}{
		{NameAPIKey, &s.APIKey},
		{NameAppID, &s.AppID},
		{NameSlackWebhookURL, &s.SlackWebhookURL},
		{NameTenantID, &s.TenantID},
		{NameResourceGroup, &s.ResourceGroup},
		{NameResourceName, &s.ResourceName},
		{NameSubscriptionID, &s.SubscriptionID},
	}

	for _, t := range targets {
		val, err := p.Get(ctx, t.name)
		if err != nil {
			return config.Secrets{}, fmt.Errorf("failed to load secret %s: %w", t.name, err)
		}
		val = strings.TrimSpace(val)
		if val == "" {
			return config.Secrets{}, fmt.Errorf("failed to load secret %s: %w", t.name, ErrSecretNotFound)
		}
		*t.dst = val
	}
	return s, nil
}
