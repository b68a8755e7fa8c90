package secret

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

const (
	defaultAuthorityHost = "https://login.microsoftonline.com"
	keyVaultScope        = "https://vault.azure.net/.default"
	keyVaultAPIVersion   = "7.4"
)

// KeyVaultOptions - Azure Key Vault 접근 설정
//   - VaultURL: https://<vault-name>.vault.azure.net
//   - TenantID/ClientID/ClientSecret: 서비스 주체 (client credentials)
type KeyVaultOptions struct {
	VaultURL      string
	TenantID      string
	ClientID      string
	ClientSecret  string
	AuthorityHost string
}

// KeyVaultProvider - Azure Key Vault REST API로 시크릿 조회
type KeyVaultProvider struct {
	vaultURL   string
	httpClient *http.Client
}

type keyVaultSecretBundle struct {
	Value string `json:"value"`
	ID    string `json:"id"`
}

// NewKeyVaultProvider - Azure AD client credentials 토큰을 사용하는 Provider 생성
// ctx는 토큰 갱신 요청에도 사용되므로 프로세스 수명 동안 유지되어야 함
func NewKeyVaultProvider(ctx context.Context, opts KeyVaultOptions) (*KeyVaultProvider, error) {
	if opts.VaultURL == "" {
		return nil, fmt.Errorf("keyvault secret provider requires KEY_VAULT_URL")
	}
	if opts.TenantID == "" || opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, fmt.Errorf("keyvault secret provider requires AZURE_TENANT_ID, AZURE_CLIENT_ID and AZURE_CLIENT_SECRET")
	}
	authority := strings.TrimSuffix(opts.AuthorityHost, "/")
	if authority == "" {
		authority = defaultAuthorityHost
	}

	cc := &clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     fmt.Sprintf("%s/%s/oauth2/v2.0/token", authority, url.PathEscape(opts.TenantID)),
		Scopes:       []string{keyVaultScope},
	}
	httpClient := cc.Client(ctx)
	httpClient.Timeout = 10 * time.Second

	return &KeyVaultProvider{
		vaultURL:   strings.TrimSuffix(opts.VaultURL, "/"),
		httpClient: httpClient,
	}, nil
}

// GET {vault}/secrets/{name}?api-version=7.4
func (p *KeyVaultProvider) Get(ctx context.Context, key string) (string, error) {
	endpoint := fmt.Sprintf("%s/secrets/%s?api-version=%s", p.vaultURL, url.PathEscape(key), keyVaultAPIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch secret %s: %w", key, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, key)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("key vault returned status %d for %s: %s", resp.StatusCode, key, strings.TrimSpace(string(body)))
	}

	var bundle keyVaultSecretBundle
	if err := json.Unmarshal(body, &bundle); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return bundle.Value, nil
}
