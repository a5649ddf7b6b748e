// Package worker hosts the background schedulers.
package worker

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/effectmoe/ai-accounting-system-sub019/internal/pkg/distlock"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/pkg/logger"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/resend"
)

const resendLockKey = "scheduler:resend-pass"

// ResendScheduler runs one resend pass per day at a fixed UTC hour. A
// distributed lock keeps concurrent replicas from double-sending: whichever
// replica acquires the lock runs the pass, the others skip the tick.
type ResendScheduler struct {
	loop        *resend.Loop
	db          *sql.DB
	redisClient *redis.Client // optional; nil falls back to PG advisory locks
	tickHourUTC int
	lockTTL     time.Duration
	workerID    string

	// Injectable for tests.
	now     func() time.Time
	newLock func() distlock.DistLock

	passesRun    int64
	passesFailed int64

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// NewResendScheduler creates the daily resend scheduler.
func NewResendScheduler(loop *resend.Loop, db *sql.DB, tickHourUTC int, lockTTL time.Duration) *ResendScheduler {
	hostname, _ := os.Hostname()
	s := &ResendScheduler{
		loop:        loop,
		db:          db,
		tickHourUTC: tickHourUTC,
		lockTTL:     lockTTL,
		workerID:    fmt.Sprintf("resend-%s-%d", hostname, time.Now().UnixNano()%10000),
		now:         time.Now,
	}
	s.newLock = func() distlock.DistLock {
		return distlock.NewLock(s.redisClient, s.db, resendLockKey, s.lockTTL)
	}
	return s
}

// SetRedisClient switches the scheduler to Redis-based locking.
func (s *ResendScheduler) SetRedisClient(client *redis.Client) {
	s.redisClient = client
}

// Start begins the daily schedule.
func (s *ResendScheduler) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("resend scheduler already running")
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	logger.Info("resend scheduler starting", "worker_id", s.workerID, "tick_hour_utc", s.tickHourUTC)

	s.wg.Add(1)
	go s.scheduleLoop()
	return nil
}

// Stop waits for an in-flight pass to finish.
func (s *ResendScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	logger.Info("resend scheduler stopped",
		"passes_run", atomic.LoadInt64(&s.passesRun),
		"passes_failed", atomic.LoadInt64(&s.passesFailed))
}

func (s *ResendScheduler) scheduleLoop() {
	defer s.wg.Done()

	for {
		wait := time.Until(s.nextRun(s.now()))
		select {
		case <-s.ctx.Done():
			return
		case <-time.After(wait):
			s.runOnce(s.ctx)
		}
	}
}

// nextRun returns the next occurrence of the tick hour strictly after now.
func (s *ResendScheduler) nextRun(now time.Time) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.tickHourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

// runOnce executes a single pass under the distributed lock. Holding the
// lock until its TTL expires rather than releasing early would also be
// correct; we release so that a crashed pass does not block the manual
// trigger for the full TTL.
func (s *ResendScheduler) runOnce(ctx context.Context) {
	lock := s.newLock()
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		atomic.AddInt64(&s.passesFailed, 1)
		logger.Error("resend pass lock acquire failed", "error", err)
		return
	}
	if !acquired {
		logger.Info("resend pass skipped, another replica holds the lock", "worker_id", s.workerID)
		return
	}
	defer func() {
		if err := lock.Release(ctx); err != nil {
			logger.Warn("resend pass lock release failed", "error", err)
		}
	}()

	result, err := s.loop.Run(ctx)
	if err != nil {
		atomic.AddInt64(&s.passesFailed, 1)
		logger.Error("resend pass failed", "error", err)
		return
	}
	atomic.AddInt64(&s.passesRun, 1)
	logger.Info("resend pass finished",
		"processed", result.Processed,
		"resent", result.Resent,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"duration_ms", result.DurationMS)
}
