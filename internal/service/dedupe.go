package service

import (
	"sort"

	"github.com/exception-notifier/backend/internal/model"
)

// Deduplicate - operation별 대표 레코드(가장 이른 timestamp)만 남김
//
// 입력을 복사한 뒤 timestamp 오름차순으로 stable sort 하고,
// 처음 만난 OperationID의 레코드만 유지한다.
// 결과는 대표 레코드의 timestamp 오름차순이며 입력 슬라이스는 변경하지 않는다.
func Deduplicate(records []model.ErrorRecord) []model.ErrorRecord {
	sorted := make([]model.ErrorRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	seen := make(map[string]struct{}, len(sorted))
	reps := make([]model.ErrorRecord, 0, len(sorted))
	for _, rec := range sorted {
		if _, ok := seen[rec.OperationID]; ok {
			continue
		}
		seen[rec.OperationID] = struct{}{}
		reps = append(reps, rec)
	}
	return reps
}

// 서로 다른 OperationID 개수
func countOperations(records []model.ErrorRecord) int {
	ops := make(map[string]struct{}, len(records))
	for _, rec := range records {
		ops[rec.OperationID] = struct{}{}
	}
	return len(ops)
}
