package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/exception-notifier/backend/internal/model"
	"github.com/stretchr/testify/assert"
)

func recs(ops ...string) []model.ErrorRecord {
	out := make([]model.ErrorRecord, 0, len(ops))
	for _, op := range ops {
		out = append(out, model.ErrorRecord{OperationID: op})
	}
	return out
}

func TestRecentOperationsDisabled(t *testing.T) {
	var nilCache *RecentOperations
	kept, suppressed := nilCache.Filter(recs("a", "b"), time.Now())
	assert.Len(t, kept, 2)
	assert.Zero(t, suppressed)
	assert.NotPanics(t, func() { nilCache.Mark([]string{"a"}, time.Now()) })

	r := NewRecentOperations(0, 0)
	assert.False(t, r.Enabled())
	r.Mark([]string{"a"}, time.Now())
	kept, suppressed = r.Filter(recs("a", "a"), time.Now())
	assert.Len(t, kept, 2)
	assert.Zero(t, suppressed)
	assert.Zero(t, r.Len())
}

func TestRecentOperationsFilterDoesNotRecord(t *testing.T) {
	r := NewRecentOperations(time.Minute, 0)
	t0 := at("2024-01-01T00:00:00Z")

	kept, _ := r.Filter(recs("a", "b"), t0)
	assert.Len(t, kept, 2)
	assert.Zero(t, r.Len())

	kept, suppressed := r.Filter(recs("a", "b"), t0.Add(time.Second))
	assert.Len(t, kept, 2)
	assert.Zero(t, suppressed)
}

func TestRecentOperationsSuppressesWithinTTL(t *testing.T) {
	r := NewRecentOperations(time.Minute, 0)
	t0 := at("2024-01-01T00:00:00Z")

	r.Mark([]string{"a", "b"}, t0)

	kept, suppressed := r.Filter(recs("a", "a", "c"), t0.Add(30*time.Second))
	assert.Equal(t, []string{"c"}, operationIDs(kept))
	assert.Equal(t, 1, suppressed, "suppressed counts operations, not rows")

	kept, suppressed = r.Filter(recs("a"), t0.Add(2*time.Minute))
	assert.Equal(t, []string{"a"}, operationIDs(kept))
	assert.Zero(t, suppressed)

	r.Mark([]string{"c"}, t0.Add(2*time.Minute))
	assert.Equal(t, 1, r.Len(), "expired entries are evicted on Mark")
}

func TestRecentOperationsRemarkExtendsTTL(t *testing.T) {
	r := NewRecentOperations(time.Minute, 0)
	t0 := at("2024-01-01T00:00:00Z")

	r.Mark([]string{"a"}, t0)
	r.Mark([]string{"a"}, t0.Add(50*time.Second))
	r.Mark([]string{"b"}, t0.Add(70*time.Second))

	_, suppressed := r.Filter(recs("a"), t0.Add(80*time.Second))
	assert.Equal(t, 1, suppressed)
	assert.Equal(t, 2, r.Len())
}

func TestRecentOperationsMaxEntries(t *testing.T) {
	r := NewRecentOperations(time.Hour, 2)
	t0 := at("2024-01-01T00:00:00Z")

	r.Mark([]string{"a"}, t0)
	r.Mark([]string{"b"}, t0.Add(time.Second))
	r.Mark([]string{"c"}, t0.Add(2*time.Second))
	assert.Equal(t, 2, r.Len())

	// 가장 먼저 기록된 a가 제거되어 다시 통과
	kept, _ := r.Filter(recs("a", "b", "c"), t0.Add(3*time.Second))
	assert.Equal(t, []string{"a"}, operationIDs(kept))
}

func TestRecentOperationsLargeBurstStaysBounded(t *testing.T) {
	const limit = 1000
	r := NewRecentOperations(time.Hour, limit)
	t0 := at("2024-01-01T00:00:00Z")

	ids := make([]string, 0, 5*limit)
	for i := 0; i < 5*limit; i++ {
		ids = append(ids, fmt.Sprintf("op-%d", i))
	}
	r.Mark(ids, t0)
	assert.Equal(t, limit, r.Len())

	// 마지막 limit개만 남음
	kept, suppressed := r.Filter(recs("op-0", ids[len(ids)-1]), t0.Add(time.Second))
	assert.Equal(t, []string{"op-0"}, operationIDs(kept))
	assert.Equal(t, 1, suppressed)

	r.mu.Lock()
	queued := len(r.order)
	r.mu.Unlock()
	assert.LessOrEqual(t, queued, 2*limit+64)
}
