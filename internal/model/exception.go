// 예외 조회 결과 및 알림 요약 구조체 정의
// client, service 레이어에서 공통으로 사용하기 때문에 model 레이어에 별도로 정의

package model

import "time"

// ErrorRecord - Application Insights에서 조회한 개별 에러 발생 건
// 하나의 OperationID에 여러 ErrorRecord가 존재할 수 있음
type ErrorRecord struct {
	// Timestamp: 에러 기록 시각 (정렬 기준)
	Timestamp time.Time `json:"timestamp"`

	// ErrorType: 예외 타입 이름 또는 trace 메시지
	ErrorType string `json:"errorType"`

	// ErrorMessage: 상세 메시지 (trace 기반 레코드는 ErrorType과 같을 수 있음)
	ErrorMessage string `json:"errorMessage"`

	// OperationID: 하나의 요청/트랜잭션에 속한 텔레메트리를 묶는 식별자
	OperationID string `json:"operationId"`

	// Link: 대표 레코드로 선택된 경우에만 채워지는 포털 딥링크
	Link string `json:"link,omitempty"`
}

// AlertSummary - 실행 1회당 하나, Slack 메시지로 직렬화된 뒤 버려짐
type AlertSummary struct {
	TotalCount      int
	UniqueCount     int
	Representatives []ErrorRecord
	WindowStart     time.Time
	WindowEnd       time.Time
}

// RunResult - 스케줄 1회 실행 결과 (로그/메트릭/히스토리용)
//   - QueriedCount: 조회된 레코드 수
//   - TotalCount: 알림 대상 operation의 레코드 수
//   - SuppressedOperations: 최근에 알려서 제외된 operation 수
type RunResult struct {
	RunID                string
	QueriedCount         int
	TotalCount           int
	UniqueCount          int
	SuppressedOperations int
	Notified             bool
	StatusCode           int
}
