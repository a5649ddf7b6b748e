package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/effectmoe/ai-accounting-system-sub019/internal/domain"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/pkg/distlock"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/resend"
)

type fakeLock struct {
	acquired bool
	held     bool
	released bool
}

func (l *fakeLock) Acquire(context.Context) (bool, error) {
	if l.held {
		return false, nil
	}
	l.acquired = true
	return true, nil
}

func (l *fakeLock) Release(context.Context) error {
	l.released = true
	return nil
}

func (l *fakeLock) Extend(context.Context) (bool, error) { return true, nil }

type countingRepo struct{ lists int }

func (r *countingRepo) ListResendCandidates(context.Context, int, int) ([]domain.EmailSendRecord, error) {
	r.lists++
	return nil, nil
}

func (r *countingRepo) SetResendCount(context.Context, string, int) error { return nil }

type noopSender struct{}

func (noopSender) Send(context.Context, *domain.EmailMessage) (*domain.SendResult, error) {
	return &domain.SendResult{Success: true}, nil
}

type noopRenderer struct{}

func (noopRenderer) RenderReminder(rec *domain.EmailSendRecord, _ int) (*domain.EmailMessage, error) {
	return &domain.EmailMessage{To: rec.RecipientEmail}, nil
}

func newTestScheduler(repo resend.Repository, lock distlock.DistLock) *ResendScheduler {
	loop := resend.NewLoop(repo, noopSender{}, noopRenderer{}, resend.LoopConfig{
		Policy:     resend.DefaultPolicyConfig(),
		WindowDays: 30,
		BatchLimit: 50,
	})
	s := NewResendScheduler(loop, nil, 9, 10*time.Minute)
	s.newLock = func() distlock.DistLock { return lock }
	return s
}

func TestResendScheduler_NextRun(t *testing.T) {
	s := newTestScheduler(&countingRepo{}, &fakeLock{})

	before := time.Date(2026, 8, 29, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC), s.nextRun(before))

	exactly := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC), s.nextRun(exactly),
		"a tick at the boundary must not run twice in one day")

	after := time.Date(2026, 8, 29, 21, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC), s.nextRun(after))
}

func TestResendScheduler_RunOnceUnderLock(t *testing.T) {
	repo := &countingRepo{}
	lock := &fakeLock{}
	s := newTestScheduler(repo, lock)

	s.runOnce(context.Background())

	assert.True(t, lock.acquired)
	assert.True(t, lock.released, "lock is released after the pass")
	assert.Equal(t, 1, repo.lists, "pass ran exactly once")
}

func TestResendScheduler_SkipsTickWhenLockHeld(t *testing.T) {
	repo := &countingRepo{}
	s := newTestScheduler(repo, &fakeLock{held: true})

	s.runOnce(context.Background())

	assert.Equal(t, 0, repo.lists, "pass must not run without the lock")
}

func TestResendScheduler_StartStop(t *testing.T) {
	s := newTestScheduler(&countingRepo{}, &fakeLock{})

	require.NoError(t, s.Start())
	assert.Error(t, s.Start(), "double start is rejected")
	s.Stop()
	s.Stop() // idempotent
}
