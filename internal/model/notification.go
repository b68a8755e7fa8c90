package model

import "time"

// NotificationRecord - exception_notifications 테이블에 저장되는 전송 기록
type NotificationRecord struct {
	ID           string    `json:"id"`
	RunID        string    `json:"run_id"`
	TotalCount   int       `json:"total_count"`
	UniqueCount  int       `json:"unique_count"`
	OperationIDs []string  `json:"operation_ids"`
	StatusCode   int       `json:"status_code"`
	Delivered    bool      `json:"delivered"`
	Error        string    `json:"error,omitempty"`
	WindowStart  time.Time `json:"window_start"`
	WindowEnd    time.Time `json:"window_end"`
	CreatedAt    time.Time `json:"created_at"`
}

// NotificationListResponse - 목록 조회 응답
type NotificationListResponse struct {
	Status string               `json:"status"`
	Data   []NotificationRecord `json:"data"`
}
