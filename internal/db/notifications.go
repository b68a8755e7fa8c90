package db

import (
	"context"
	"fmt"

	"github.com/exception-notifier/backend/internal/model"
)

// EnsureNotificationSchema - exception_notifications 테이블 생성 (없으면)
func (p *Postgres) EnsureNotificationSchema(ctx context.Context) error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS exception_notifications (
			id            TEXT         PRIMARY KEY,
			run_id        TEXT         NOT NULL DEFAULT '',
			total_count   INTEGER      NOT NULL DEFAULT 0,
			unique_count  INTEGER      NOT NULL DEFAULT 0,
			operation_ids TEXT[]       NOT NULL DEFAULT '{}',
			status_code   INTEGER      NOT NULL DEFAULT 0,
			delivered     BOOLEAN      NOT NULL DEFAULT FALSE,
			error         TEXT         NOT NULL DEFAULT '',
			window_start  TIMESTAMPTZ,
			window_end    TIMESTAMPTZ,
			created_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)
		`,
		`CREATE INDEX IF NOT EXISTS exception_notifications_created_at_idx ON exception_notifications(created_at DESC)`,
	}

	for _, query := range queries {
		if _, err := p.Pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to create exception_notifications table: %w", err)
		}
	}
	return nil
}

// SaveNotification - 전송 결과 1건 저장
func (p *Postgres) SaveNotification(ctx context.Context, rec model.NotificationRecord) error {
	operationIDs := rec.OperationIDs
	if operationIDs == nil {
		operationIDs = []string{}
	}

	_, err := p.Pool.Exec(ctx, `
		INSERT INTO exception_notifications (
			id, run_id, total_count, unique_count, operation_ids,
			status_code, delivered, error, window_start, window_end, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW());
	`,
		rec.ID,
		rec.RunID,
		rec.TotalCount,
		rec.UniqueCount,
		operationIDs,
		rec.StatusCode,
		rec.Delivered,
		rec.Error,
		rec.WindowStart,
		rec.WindowEnd,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// ListNotifications - 최근 전송 기록 조회 (최신순)
func (p *Postgres) ListNotifications(ctx context.Context, limit int) ([]model.NotificationRecord, error) {
	rows, err := p.Pool.Query(ctx, `
		SELECT id, run_id, total_count, unique_count, operation_ids,
		       status_code, delivered, error, window_start, window_end, created_at
		FROM exception_notifications
		ORDER BY created_at DESC
		LIMIT $1;
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var list []model.NotificationRecord
	for rows.Next() {
		var rec model.NotificationRecord
		if err := rows.Scan(
			&rec.ID, &rec.RunID, &rec.TotalCount, &rec.UniqueCount, &rec.OperationIDs,
			&rec.StatusCode, &rec.Delivered, &rec.Error, &rec.WindowStart, &rec.WindowEnd, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		list = append(list, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}

	if list == nil {
		list = []model.NotificationRecord{}
	}
	return list, nil
}
