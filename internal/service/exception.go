// 예외 알림 비즈니스 로직 정의
// 스케줄러가 주기적으로 Run을 호출하고, 결과를 Slack으로 전송
//
// 처리 흐름:
//  1. [now-window, now) 구간의 에러를 Application Insights에서 조회
//  2. operation이 하나도 없으면 알림 없이 종료
//  3. (옵션) 최근에 알린 operation 제외 (전송 성공 시에만 기록)
//  4. operation별 대표 레코드 선택 (가장 이른 timestamp)
//  5. 대표 레코드마다 포털 딥링크 생성
//  6. Slack Block Kit 메시지 생성 후 Webhook 전송
//  7. 2xx 이외 응답은 로그만 남기고 정상 종료
//  8. (옵션) 전송 결과를 DB에 기록

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/exception-notifier/backend/internal/client"
	"github.com/exception-notifier/backend/internal/metrics"
	"github.com/exception-notifier/backend/internal/model"
	tmpl "github.com/exception-notifier/backend/internal/template"
	"github.com/google/uuid"
)

// exceptionQuerier - 텔레메트리 조회 인터페이스
type exceptionQuerier interface {
	QueryExceptions(ctx context.Context, start, end time.Time) ([]model.ErrorRecord, error)
}

// alertSender - Slack 전송 인터페이스
type alertSender interface {
	SendExceptionAlert(ctx context.Context, summary model.AlertSummary, opts client.AlertFormatOptions) (*client.WebhookResponse, error)
}

// notificationRecorder - 전송 기록 저장 인터페이스 (nil 허용)
type notificationRecorder interface {
	SaveNotification(ctx context.Context, rec model.NotificationRecord) error
}

// linkBuilder - 딥링크 생성 인터페이스
type linkBuilder interface {
	Build(operationID string) (string, error)
}

// ExceptionServiceOptions - ExceptionService 의존성
type ExceptionServiceOptions struct {
	Querier        exceptionQuerier
	Sender         alertSender
	Links          linkBuilder
	Recorder       notificationRecorder
	Recent         *RecentOperations
	Metrics        *metrics.Metrics
	App            tmpl.AppData
	HeaderTemplate string
	Window         time.Duration
	Now            func() time.Time
}

// ExceptionService 구조체 정의
type ExceptionService struct {
	querier        exceptionQuerier
	sender         alertSender
	links          linkBuilder
	recorder       notificationRecorder
	recent         *RecentOperations
	metrics        *metrics.Metrics
	app            tmpl.AppData
	headerTemplate string
	window         time.Duration
	now            func() time.Time
}

// ExceptionService 객체 생성
func NewExceptionService(opts ExceptionServiceOptions) *ExceptionService {
	window := opts.Window
	if window <= 0 {
		window = 5 * time.Minute
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &ExceptionService{
		querier:        opts.Querier,
		sender:         opts.Sender,
		links:          opts.Links,
		recorder:       opts.Recorder,
		recent:         opts.Recent,
		metrics:        opts.Metrics,
		app:            opts.App,
		headerTemplate: opts.HeaderTemplate,
		window:         window,
		now:            now,
	}
}

// Run - 조회 → 중복 제거 → 링크 → 포맷 → 전송 1회 수행
//
// 조회 실패는 에러로 반환되고 (다음 주기에는 영향 없음),
// Webhook 2xx 이외 응답은 로그만 남기고 nil을 반환한다.
func (s *ExceptionService) Run(ctx context.Context) (*model.RunResult, error) {
	started := s.now()
	result := &model.RunResult{RunID: uuid.NewString()}
	logger := log.With("run_id", result.RunID)

	end := started.UTC()
	start := end.Add(-s.window)

	// 1. 조회
	records, err := s.querier.QueryExceptions(ctx, start, end)
	if err != nil {
		s.metrics.ObserveRun("failed", s.now().Sub(started).Seconds())
		return result, fmt.Errorf("failed to query exceptions: %w", err)
	}
	s.metrics.AddErrorsSeen(len(records))

	// 2. operation이 없으면 종료
	if countOperations(records) == 0 {
		logger.Debug("no exceptions in window", "start", start, "end", end)
		s.metrics.ObserveRun("empty", s.now().Sub(started).Seconds())
		return result, nil
	}

	result.QueriedCount = len(records)

	// 3. 최근에 알린 operation 제외
	records, suppressed := s.recent.Filter(records, end)
	result.SuppressedOperations = suppressed
	s.metrics.AddSuppressed(suppressed)
	if len(records) == 0 {
		logger.Info("all operations notified recently; skipping", "suppressed_operations", suppressed)
		s.metrics.ObserveRun("empty", s.now().Sub(started).Seconds())
		return result, nil
	}

	// 4. 대표 레코드 선택
	// TotalCount는 알림 대상 operation의 레코드 수 (제외된 operation의 레코드는 QueriedCount에만 포함)
	reps := Deduplicate(records)
	result.TotalCount = len(records)
	result.UniqueCount = len(reps)

	// 5. 딥링크 (대표 레코드에만 한 번씩)
	for i := range reps {
		link, err := s.links.Build(reps[i].OperationID)
		if err != nil {
			logger.Warn("failed to build link", "operation_id", reps[i].OperationID, "error", err)
			continue
		}
		reps[i].Link = link
	}

	summary := model.AlertSummary{
		TotalCount:      result.TotalCount,
		UniqueCount:     result.UniqueCount,
		Representatives: reps,
		WindowStart:     start,
		WindowEnd:       end,
	}

	// 6. 전송
	summaryData := tmpl.SummaryDataFromModel(summary)
	header := tmpl.RenderHeader(s.headerTemplate, &s.app, &summaryData)
	resp, sendErr := s.sender.SendExceptionAlert(ctx, summary, client.AlertFormatOptions{Header: header})
	if resp != nil {
		result.StatusCode = resp.StatusCode
	}
	s.metrics.ObserveDelivery("schedule", result.StatusCode)

	// 7. 2xx 이외 응답은 로그만
	switch {
	case sendErr == nil:
		result.Notified = true
		s.recent.Mark(operationIDs(reps), end)
		s.metrics.AddOperationsNotified(result.UniqueCount)
		s.metrics.ObserveRun("notified", s.now().Sub(started).Seconds())
		logger.Info("sent exception alert", "total", result.TotalCount, "unique", result.UniqueCount, "queried", result.QueriedCount, "status", result.StatusCode)
	case errors.Is(sendErr, client.ErrWebhookStatus):
		s.metrics.ObserveRun("delivery_failed", s.now().Sub(started).Seconds())
		logger.Error("slack webhook rejected alert", "status", result.StatusCode, "error", sendErr)
	default:
		s.metrics.ObserveRun("delivery_failed", s.now().Sub(started).Seconds())
		logger.Error("failed to send alert to slack", "error", sendErr)
	}

	// 8. 전송 기록
	s.record(ctx, result, summary, sendErr)
	return result, nil
}

func (s *ExceptionService) record(ctx context.Context, result *model.RunResult, summary model.AlertSummary, sendErr error) {
	if s.recorder == nil {
		return
	}
	rec := model.NotificationRecord{
		ID:           uuid.NewString(),
		RunID:        result.RunID,
		TotalCount:   result.TotalCount,
		UniqueCount:  result.UniqueCount,
		OperationIDs: operationIDs(summary.Representatives),
		StatusCode:   result.StatusCode,
		Delivered:    result.Notified,
		WindowStart:  summary.WindowStart,
		WindowEnd:    summary.WindowEnd,
	}
	if sendErr != nil {
		rec.Error = sendErr.Error()
	}
	if err := s.recorder.SaveNotification(ctx, rec); err != nil {
		log.Error("failed to save notification history", "run_id", result.RunID, "error", err)
	}
}

func operationIDs(records []model.ErrorRecord) []string {
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.OperationID)
	}
	return ids
}
