package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Server      ServerConfig
	Schedule    ScheduleConfig
	AppInsights AppInsightsConfig
	SecretStore SecretStoreConfig
	Slack       SlackConfig
	Auth        AuthConfig
	Postgres    PostgresConfig
	Log         LogConfig
}

type ServerConfig struct {
	Port string `env:"PORT" env-default:"8080"`
}

// ScheduleConfig - 주기 실행 관련 설정
//   - Interval: 예외 조회 주기 (기본 5분)
//   - QueryWindow: 한 번에 조회하는 구간 [now-window, now)
//   - LinkLookback: 포털 딥링크에 들어가는 조회 기간 (기본 24시간)
//   - RepeatSuppression: 0이 아니면 해당 기간 내 이미 알린 operation은 다시 알리지 않음
type ScheduleConfig struct {
	Interval          time.Duration `env:"SCHEDULE_INTERVAL" env-default:"5m"`
	QueryWindow       time.Duration `env:"QUERY_WINDOW" env-default:"5m"`
	LinkLookback      time.Duration `env:"LINK_LOOKBACK" env-default:"24h"`
	RepeatSuppression time.Duration `env:"REPEAT_SUPPRESSION_WINDOW" env-default:"0s"`
}

type AppInsightsConfig struct {
	BaseURL string `env:"APPINSIGHTS_BASE_URL" env-default:"https://api.applicationinsights.io"`
}

// SecretStoreConfig - 시크릿 조회 백엔드 설정
//   - Provider: env | json | keyvault
type SecretStoreConfig struct {
	Provider     string `env:"SECRET_PROVIDER" env-default:"env"`
	FilePath     string `env:"SECRET_FILE"`
	VaultURL     string `env:"KEY_VAULT_URL"`
	TenantID     string `env:"AZURE_TENANT_ID"`
	ClientID     string `env:"AZURE_CLIENT_ID"`
	ClientSecret string `env:"AZURE_CLIENT_SECRET"`
}

type SlackConfig struct {
	HeaderTemplate string `env:"ALERT_HEADER_TEMPLATE" env-default:":rotating_light: {{summary.unique}} failing operations in {{app.name}}"`
}

// AuthConfig - /exceptions 인바운드 인증 설정 (모두 비어있으면 인증 없음)
type AuthConfig struct {
	JWTSecret    string `env:"INBOUND_JWT_SECRET"`
	OIDCIssuer   string `env:"INBOUND_OIDC_ISSUER"`
	OIDCAudience string `env:"INBOUND_OIDC_AUDIENCE"`
}

type PostgresConfig struct {
	DatabaseURL string `env:"DATABASE_URL"`
	Host        string `env:"PGHOST" env-default:"localhost"`
	Port        string `env:"PGPORT" env-default:"5432"`
	User        string `env:"PGUSER"`
	Password    string `env:"PGPASSWORD"`
	Database    string `env:"PGDATABASE"`
	SSLMode     string `env:"PGSSLMODE" env-default:"disable"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"text"`
}

// Secrets - 시크릿 스토어에서 시작 시 한 번 읽어오는 값
// 프로세스 전체에서 읽기 전용으로 공유
type Secrets struct {
	APIKey          string
	AppID           string
	SlackWebhookURL string
	TenantID        string
	ResourceGroup   string
	ResourceName    string
	SubscriptionID  string
}

// Load - 환경변수를 Config로 읽어옴
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read config from env: %w", err)
	}

	s := cfg.Schedule
	if s.Interval <= 0 || s.QueryWindow <= 0 || s.LinkLookback <= 0 {
		return Config{}, fmt.Errorf("SCHEDULE_INTERVAL, QUERY_WINDOW and LINK_LOOKBACK must be positive")
	}
	if s.RepeatSuppression < 0 {
		return Config{}, fmt.Errorf("REPEAT_SUPPRESSION_WINDOW must not be negative")
	}
	cfg.SecretStore.Provider = strings.ToLower(strings.TrimSpace(cfg.SecretStore.Provider))
	return cfg, nil
}

// Postgres 설정 여부 체크 (히스토리 저장은 선택 기능)
func (c PostgresConfig) IsConfigured() bool {
	return c.DatabaseURL != "" || (c.User != "" && c.Database != "")
}
