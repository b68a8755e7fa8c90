package service

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/exception-notifier/backend/internal/model"
)

// runner - 주기적으로 실행할 작업
type runner interface {
	Run(ctx context.Context) (*model.RunResult, error)
}

// Scheduler - 시작 시 1회, 이후 interval마다 runner를 실행
//
// 하나의 goroutine에서 순차 실행되므로 실행이 겹치지 않는다.
// 한 번의 실행이 실패해도 다음 주기는 그대로 진행된다.
type Scheduler struct {
	runner   runner
	interval time.Duration

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewScheduler(r runner, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Scheduler{
		runner:   r,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start - 실행 루프 시작 (non-blocking)
func (s *Scheduler) Start(ctx context.Context) {
	log.Info("starting exception scheduler", "interval", s.interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		// 시작 직후 1회 실행
		s.tick(ctx)

		for {
			select {
			case <-ticker.C:
				s.tick(ctx)
			case <-s.stop:
				log.Info("exception scheduler stopping")
				return
			case <-ctx.Done():
				log.Info("exception scheduler context cancelled")
				return
			}
		}
	}()
}

// Stop - 루프 종료 후 진행 중인 실행이 끝날 때까지 대기
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	result, err := s.runner.Run(ctx)
	if err != nil {
		runID := ""
		if result != nil {
			runID = result.RunID
		}
		log.Error("exception run failed", "run_id", runID, "error", err)
	}
}
