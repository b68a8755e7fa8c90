// Slack 예외 알림 메시지 관련 메서드 정의

package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/exception-notifier/backend/internal/model"
)

const (
	defaultAlertHeader = "Application Insights exceptions"

	// Slack Block Kit 제한
	maxSlackBlocks      = 50
	maxHeaderRunes      = 150
	maxFieldRunes       = 2000
	fixedAlertBlocks    = 5 // header, divider, summary, divider, column header
	maxAlertRowsNoSpill = maxSlackBlocks - fixedAlertBlocks
)

// AlertFormatOptions - 메시지 포맷 옵션
type AlertFormatOptions struct {
	// Header: 렌더링이 끝난 헤더 텍스트 (비어있으면 기본값)
	Header string
}

// 대표 레코드 목록과 집계값으로 Slack Block Kit 메시지 생성
//
// 메시지 구조:
//   - header
//   - divider
//   - section: Total Errors / Unique Operations
//   - divider
//   - section: 컬럼 헤더 (Error Type / Operation)
//   - section: 대표 레코드마다 한 줄 (errorType, <link|operationId>)
//
// 블록이 50개를 넘으면 나머지 operation은 마지막 context 블록에 개수로 표시
func FormatExceptionAlert(reps []model.ErrorRecord, totalCount, uniqueCount int, opts AlertFormatOptions) SlackBlockMessage {
	header := strings.TrimSpace(opts.Header)
	if header == "" {
		header = defaultAlertHeader
	}

	blocks := []SlackBlock{
		{
			Type: "header",
			Text: &SlackText{Type: "plain_text", Text: truncateRunes(header, maxHeaderRunes), Emoji: true},
		},
		{Type: "divider"},
		{
			Type: "section",
			Fields: []SlackText{
				{Type: "mrkdwn", Text: "*Total Errors:*\n" + strconv.Itoa(totalCount)},
				{Type: "mrkdwn", Text: "*Unique Operations:*\n" + strconv.Itoa(uniqueCount)},
			},
		},
		{Type: "divider"},
		{
			Type: "section",
			Fields: []SlackText{
				{Type: "mrkdwn", Text: "*Error Type*"},
				{Type: "mrkdwn", Text: "*Operation*"},
			},
		},
	}

	rows := reps
	overflow := 0
	if len(reps) > maxAlertRowsNoSpill {
		// context 블록 자리 하나를 남겨둠
		rows = reps[:maxAlertRowsNoSpill-1]
		overflow = len(reps) - len(rows)
	}

	for _, rec := range rows {
		blocks = append(blocks, SlackBlock{
			Type: "section",
			Fields: []SlackText{
				{Type: "mrkdwn", Text: truncateRunes(escapeMrkdwn(rec.ErrorType), maxFieldRunes)},
				{Type: "mrkdwn", Text: operationLabel(rec)},
			},
		})
	}

	if overflow > 0 {
		blocks = append(blocks, SlackBlock{
			Type: "context",
			Elements: []SlackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("…and %d more operations", overflow)},
			},
		})
	}

	return SlackBlockMessage{
		Text:   fmt.Sprintf("%s: %d errors across %d operations", header, totalCount, uniqueCount),
		Blocks: blocks,
	}
}

// 예외 요약 알림을 Slack으로 전송
func (c *SlackWebhookClient) SendExceptionAlert(ctx context.Context, summary model.AlertSummary, opts AlertFormatOptions) (*WebhookResponse, error) {
	msg := FormatExceptionAlert(summary.Representatives, summary.TotalCount, summary.UniqueCount, opts)
	return c.Send(ctx, msg)
}

// 링크가 있으면 <link|operationId>, 없으면 operationId만 표시
func operationLabel(rec model.ErrorRecord) string {
	label := escapeMrkdwn(rec.OperationID)
	if rec.Link == "" {
		return label
	}
	// '|'는 링크 라벨 구분자이므로 라벨에서 제거
	return fmt.Sprintf("<%s|%s>", rec.Link, strings.ReplaceAll(label, "|", "¦"))
}

// Slack mrkdwn 제어 문자 이스케이프
var mrkdwnEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeMrkdwn(s string) string {
	return mrkdwnEscaper.Replace(s)
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
