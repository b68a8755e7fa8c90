package service

import (
	"sync"
	"time"

	"github.com/exception-notifier/backend/internal/model"
)

// RecentOperations - 최근에 알린 OperationID를 TTL 동안 기억하는 캐시
//
// 인접한 조회 구간에 걸친 operation이 두 번 알림되는 것을 막기 위해 사용.
// ttl이 0이면 비활성화되어 모든 operation을 그대로 통과시킨다.
// Filter는 조회만 하고, 전송에 성공한 operation만 Mark로 기록한다.
// maxEntries를 넘으면 가장 먼저 기록된 항목부터 제거한다.
type RecentOperations struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	seen       map[string]time.Time

	// 기록 순서 큐. 같은 id가 다시 기록되면 이전 항목은 seen과 시각이 달라 무시된다.
	order []recentEntry
}

type recentEntry struct {
	id string
	at time.Time
}

func NewRecentOperations(ttl time.Duration, maxEntries int) *RecentOperations {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	return &RecentOperations{
		ttl:        ttl,
		maxEntries: maxEntries,
		seen:       make(map[string]time.Time),
	}
}

func (r *RecentOperations) Enabled() bool {
	return r != nil && r.ttl > 0
}

// Filter - TTL 내에 이미 알린 operation의 레코드를 제외
// suppressed는 제외된 서로 다른 operation 수. 캐시는 변경하지 않는다.
func (r *RecentOperations) Filter(records []model.ErrorRecord, now time.Time) (kept []model.ErrorRecord, suppressed int) {
	if !r.Enabled() {
		return records, 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := make(map[string]struct{})
	kept = make([]model.ErrorRecord, 0, len(records))
	for _, rec := range records {
		if at, ok := r.seen[rec.OperationID]; ok && now.Sub(at) < r.ttl {
			dropped[rec.OperationID] = struct{}{}
			continue
		}
		kept = append(kept, rec)
	}
	return kept, len(dropped)
}

// Mark - 알림이 전송된 operation을 now 시각으로 기록
func (r *RecentOperations) Mark(ids []string, now time.Time) {
	if !r.Enabled() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictLocked(now)
	for _, id := range ids {
		r.seen[id] = now
		r.order = append(r.order, recentEntry{id: id, at: now})
	}
	r.trimLocked()
	r.compactLocked()
}

func (r *RecentOperations) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

// 큐 앞쪽의 만료되었거나 이미 갱신된 항목 제거
func (r *RecentOperations) evictLocked(now time.Time) {
	for len(r.order) > 0 {
		head := r.order[0]
		at, ok := r.seen[head.id]
		switch {
		case !ok || !at.Equal(head.at):
		case now.Sub(at) >= r.ttl:
			delete(r.seen, head.id)
		default:
			return
		}
		r.order = r.order[1:]
	}
}

func (r *RecentOperations) trimLocked() {
	for len(r.seen) > r.maxEntries && len(r.order) > 0 {
		head := r.order[0]
		r.order = r.order[1:]
		if at, ok := r.seen[head.id]; ok && at.Equal(head.at) {
			delete(r.seen, head.id)
		}
	}
}

// 재기록으로 쌓인 무효 항목이 많아지면 큐를 새로 만든다
func (r *RecentOperations) compactLocked() {
	if len(r.order) <= 2*len(r.seen)+64 {
		return
	}
	live := make([]recentEntry, 0, len(r.seen))
	for _, e := range r.order {
		if at, ok := r.seen[e.id]; ok && at.Equal(e.at) {
			live = append(live, e)
		}
	}
	r.order = live
}
