// Slack Incoming Webhook과 통신하는 클라이언트 정의
// Client 레이어에서만 사용하는 구조체 및 Slack 공통 메서드 정의
//
// 시크릿:
//   - slack-webhook-url: Slack Incoming Webhook URL (https://hooks.slack.com/services/...)

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrWebhookStatus - Webhook이 2xx 이외의 응답을 반환한 경우
var ErrWebhookStatus = errors.New("slack webhook returned non-2xx status")

// SlackWebhookClient 구조체 정의
type SlackWebhookClient struct {
	webhookURL string
	httpClient *http.Client
}

// SlackBlockMessage(Block Kit 메시지) 구조체 정의
type SlackBlockMessage struct {
	Text   string       `json:"text,omitempty"` // 알림 미리보기용 fallback 텍스트
	Blocks []SlackBlock `json:"blocks"`
}

// SlackBlock(header, divider, section, context) 구조체 정의
type SlackBlock struct {
	Type     string      `json:"type"`
	Text     *SlackText  `json:"text,omitempty"`
	Fields   []SlackText `json:"fields,omitempty"`
	Elements []SlackText `json:"elements,omitempty"`
}

// SlackText(plain_text, mrkdwn) 구조체 정의
type SlackText struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// WebhookResponse - Webhook 응답 원문
type WebhookResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// 2xx 여부
func (r *WebhookResponse) OK() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// SlackWebhookClient 객체 생성
func NewSlackWebhookClient(webhookURL string) *SlackWebhookClient {
	return &SlackWebhookClient{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Webhook URL 설정 여부 체크
func (c *SlackWebhookClient) IsConfigured() bool {
	return c.webhookURL != ""
}

// 직렬화된 JSON을 그대로 Webhook으로 전송
// 응답 status와 관계없이 응답을 반환하며, 에러는 전송 자체가 실패한 경우에만 반환
func (c *SlackWebhookClient) PostRaw(ctx context.Context, payload []byte) (*WebhookResponse, error) {
	if !c.IsConfigured() {
		return nil, fmt.Errorf("slack webhook url not configured")
	}

	// HTTP 요청 생성
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// 요청 전송
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	// 응답 읽기
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &WebhookResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// 메시지를 JSON으로 직렬화하여 전송, 2xx가 아니면 ErrWebhookStatus 반환
func (c *SlackWebhookClient) Send(ctx context.Context, msg any) (*WebhookResponse, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	resp, err := c.PostRaw(ctx, payload)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		trimmed := strings.TrimSpace(string(resp.Body))
		return resp, fmt.Errorf("%w: status %d (%s)", ErrWebhookStatus, resp.StatusCode, trimmed)
	}
	return resp, nil
}
