// Application Insights Query API와 HTTP 통신하는 클라이언트 정의
//
// 시크릿:
//   - app-id: Application Insights Application ID
//   - api-key: Application Insights API Key (x-api-key 헤더)
//
// 요청: POST {base}/v1/apps/{appId}/query  {"query": "<KQL>"}
// 응답: {"tables": [{"rows": [[timestamp, errorType, errorMessage, operationId], ...]}]}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/exception-notifier/backend/internal/model"
)

// AppInsightsClient 구조체 정의
type AppInsightsClient struct {
	baseURL    string
	appID      string
	apiKey     string
	httpClient *http.Client
}

type appInsightsQueryRequest struct {
	Query string `json:"query"`
}

// AppInsightsQueryResponse - Query API 응답
type AppInsightsQueryResponse struct {
	Tables []AppInsightsTable `json:"tables"`
}

// AppInsightsTable - 결과 테이블 (rows는 컬럼 순서대로의 값 배열)
type AppInsightsTable struct {
	Name    string              `json:"name"`
	Columns []AppInsightsColumn `json:"columns"`
	Rows    [][]any             `json:"rows"`
}

type AppInsightsColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// AppInsightsClient 객체 생성
func NewAppInsightsClient(baseURL, appID, apiKey string) *AppInsightsClient {
	if baseURL == "" {
		baseURL = "https://api.applicationinsights.io"
	}
	return &AppInsightsClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		appID:   appID,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// [start, end) 구간의 exceptions와 error 레벨 traces를 조회
func (c *AppInsightsClient) QueryExceptions(ctx context.Context, start, end time.Time) ([]model.ErrorRecord, error) {
	resp, err := c.Query(ctx, ExceptionsQuery(start, end))
	if err != nil {
		return nil, err
	}
	return ParseErrorRecords(resp)
}

// POST /v1/apps/{appId}/query
func (c *AppInsightsClient) Query(ctx context.Context, query string) (*AppInsightsQueryResponse, error) {
	payload, err := json.Marshal(appInsightsQueryRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/apps/%s/query", c.baseURL, url.PathEscape(c.appID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send query: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("app insights returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var queryResp AppInsightsQueryResponse
	if err := json.Unmarshal(body, &queryResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &queryResp, nil
}

// 조회 구간의 KQL 생성
// 컬럼 순서: timestamp, errorType, errorMessage, operation_Id
func ExceptionsQuery(start, end time.Time) string {
	return fmt.Sprintf(`let windowStart = datetime(%s);
let windowEnd = datetime(%s);
union
    (exceptions
        | where timestamp >= windowStart and timestamp < windowEnd
        | project timestamp, errorType = type, errorMessage = coalesce(outerMessage, innermostMessage, type), operation_Id),
    (traces
        | where timestamp >= windowStart and timestamp < windowEnd and severityLevel >= 3
        | project timestamp, errorType = message, errorMessage = message, operation_Id)
| order by timestamp asc`,
		start.UTC().Format(time.RFC3339Nano), end.UTC().Format(time.RFC3339Nano))
}

// 첫 번째 테이블의 rows를 ErrorRecord로 변환
func ParseErrorRecords(resp *AppInsightsQueryResponse) ([]model.ErrorRecord, error) {
	records := []model.ErrorRecord{}
	if resp == nil || len(resp.Tables) == 0 {
		return records, nil
	}

	for i, row := range resp.Tables[0].Rows {
		if len(row) < 4 {
			return nil, fmt.Errorf("row %d: expected 4 columns, got %d", i, len(row))
		}
		rawTS, ok := row[0].(string)
		if !ok {
			return nil, fmt.Errorf("row %d: timestamp is %T, want string", i, row[0])
		}
		ts, err := time.Parse(time.RFC3339Nano, rawTS)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid timestamp %q: %w", i, rawTS, err)
		}
		records = append(records, model.ErrorRecord{
			Timestamp:    ts,
			ErrorType:    cellString(row[1]),
			ErrorMessage: cellString(row[2]),
			OperationID:  cellString(row[3]),
		})
	}
	return records, nil
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
