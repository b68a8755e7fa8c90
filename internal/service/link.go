package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

const (
	portalBaseURL = "https://portal.azure.com"

	// ProviderNamespace - Application Insights 리소스 provider
	ProviderNamespace = "microsoft.insights/components"

	portalTimeLayout = "2006-01-02T15:04:05.000Z"
)

// LinkIdentity - 딥링크 대상 Application Insights 리소스
type LinkIdentity struct {
	TenantID          string
	SubscriptionID    string
	ResourceGroup     string
	ProviderNamespace string
	ComponentName     string
}

// LinkBuilder - operation 단위 Logs 블레이드 딥링크 생성기
//
// 링크의 조회 기간은 에러 발생 시각과 무관하게 [now-Lookback, now] 로 고정된다.
type LinkBuilder struct {
	identity LinkIdentity
	lookback time.Duration
	now      func() time.Time
}

// LinkBuilder 객체 생성 (now가 nil이면 time.Now)
func NewLinkBuilder(identity LinkIdentity, lookback time.Duration, now func() time.Time) *LinkBuilder {
	if identity.ProviderNamespace == "" {
		identity.ProviderNamespace = ProviderNamespace
	}
	if lookback <= 0 {
		lookback = 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &LinkBuilder{identity: identity, lookback: lookback, now: now}
}

// Build - operationID로 범위를 좁힌 쿼리가 미리 채워진 포털 URL 반환
func (b *LinkBuilder) Build(operationID string) (string, error) {
	encodedQuery, err := EncodeQuery(OperationQuery(operationID))
	if err != nil {
		return "", err
	}

	end := b.now().UTC()
	start := end.Add(-b.lookback)
	timespan := start.Format(portalTimeLayout) + "/" + end.Format(portalTimeLayout)

	return fmt.Sprintf(
		"%s/#@%s/blade/Microsoft_OperationsManagementSuite_Workspace/Logs.ReactView/resourceId/%s/source/LogsBlade.AnalyticsShareLinkToQuery/q/%s/timespan/%s",
		portalBaseURL,
		b.identity.TenantID,
		escapeSegment(b.resourcePath()),
		escapeSegment(encodedQuery),
		escapeSegment(timespan),
	), nil
}

func (b *LinkBuilder) resourcePath() string {
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/%s/%s",
		b.identity.SubscriptionID,
		b.identity.ResourceGroup,
		b.identity.ProviderNamespace,
		b.identity.ComponentName,
	)
}

// OperationQuery - 특정 operation의 traces, exceptions, requests를 조회하는 KQL
func OperationQuery(operationID string) string {
	return fmt.Sprintf(`union traces, exceptions, requests | where operation_Id == "%s"`, escapeKQLString(operationID))
}

// EncodeQuery - gzip 압축 후 표준 base64 인코딩
func EncodeQuery(query string) (string, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(query)); err != nil {
		return "", fmt.Errorf("failed to compress query: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to compress query: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeQuery - EncodeQuery의 역변환
func DecodeQuery(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode query: %w", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to decompress query: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return "", fmt.Errorf("failed to decompress query: %w", err)
	}
	return string(out), nil
}

// KQL 큰따옴표 문자열 리터럴 이스케이프
var kqlStringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func escapeKQLString(s string) string {
	return kqlStringEscaper.Replace(s)
}

// 경로 세그먼트 하나로 쓰기 위해 예약 문자를 모두 퍼센트 인코딩
func escapeSegment(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
