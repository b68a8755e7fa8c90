package service

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)
}

func testIdentity() LinkIdentity {
	return LinkIdentity{
		TenantID:       "tenant-1",
		SubscriptionID: "sub-1",
		ResourceGroup:  "rg-prod",
		ComponentName:  "orders-api",
	}
}

// 딥링크에서 q, timespan, resourceId 세그먼트 추출
func linkSegments(t *testing.T, link string) (resource, query, timespan string) {
	t.Helper()
	_, rest, ok := strings.Cut(link, "/resourceId/")
	require.True(t, ok)
	resource, rest, ok = strings.Cut(rest, "/source/LogsBlade.AnalyticsShareLinkToQuery/q/")
	require.True(t, ok)
	query, timespan, ok = strings.Cut(rest, "/timespan/")
	require.True(t, ok)

	var err error
	resource, err = url.PathUnescape(resource)
	require.NoError(t, err)
	query, err = url.PathUnescape(query)
	require.NoError(t, err)
	timespan, err = url.PathUnescape(timespan)
	require.NoError(t, err)
	return resource, query, timespan
}

func TestLinkBuilderBuild(t *testing.T) {
	b := NewLinkBuilder(testIdentity(), 24*time.Hour, fixedClock)

	link, err := b.Build("abc123")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(link, "https://portal.azure.com/#@tenant-1/blade/Microsoft_OperationsManagementSuite_Workspace/Logs.ReactView/resourceId/"))

	resource, encoded, timespan := linkSegments(t, link)
	assert.Equal(t, "/subscriptions/sub-1/resourceGroups/rg-prod/providers/microsoft.insights/components/orders-api", resource)
	assert.Equal(t, "2024-03-14T12:30:00.000Z/2024-03-15T12:30:00.000Z", timespan)

	query, err := DecodeQuery(encoded)
	require.NoError(t, err)
	assert.Equal(t, `union traces, exceptions, requests | where operation_Id == "abc123"`, query)
}

func TestLinkBuilderDeterministic(t *testing.T) {
	b := NewLinkBuilder(testIdentity(), 0, fixedClock)

	first, err := b.Build("op")
	require.NoError(t, err)
	second, err := b.Build("op")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLinkBuilderEscapesSegments(t *testing.T) {
	b := NewLinkBuilder(testIdentity(), time.Hour, fixedClock)

	link, err := b.Build("op")
	require.NoError(t, err)

	_, fragment, _ := strings.Cut(link, "/resourceId/")
	for _, reserved := range []string{"+", "=", ":", " "} {
		assert.NotContains(t, fragment, reserved)
	}
	assert.Contains(t, fragment, "%2Fsubscriptions%2Fsub-1")
}

func TestOperationQueryEscapesQuotes(t *testing.T) {
	q := OperationQuery(`a"b\c`)
	assert.Equal(t, `union traces, exceptions, requests | where operation_Id == "a\"b\\c"`, q)

	b := NewLinkBuilder(testIdentity(), time.Hour, fixedClock)
	link, err := b.Build(`a"b\c`)
	require.NoError(t, err)
	_, encoded, _ := linkSegments(t, link)
	decoded, err := DecodeQuery(encoded)
	require.NoError(t, err)
	assert.Equal(t, q, decoded)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, q := range []string{"", "exceptions | take 1", "유니코드 쿼리 | where x == \"y\""} {
		enc, err := EncodeQuery(q)
		require.NoError(t, err)
		dec, err := DecodeQuery(enc)
		require.NoError(t, err)
		assert.Equal(t, q, dec)
	}
}

func TestDecodeQueryRejectsGarbage(t *testing.T) {
	_, err := DecodeQuery("not base64!!")
	assert.Error(t, err)
	_, err = DecodeQuery("aGVsbG8=")
	assert.Error(t, err)
}
