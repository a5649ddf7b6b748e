package resend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/effectmoe/ai-accounting-system-sub019/internal/domain"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/pkg/logger"
)

// ErrStoreUnavailable means the candidate query itself failed; there is
// nothing to iterate and the whole batch fails.
var ErrStoreUnavailable = errors.New("email send record store unavailable")

// Repository is the data access contract for email send records.
type Repository interface {
	// ListResendCandidates returns unopened records sent within the last
	// windowDays days, oldest first, capped at limit.
	ListResendCandidates(ctx context.Context, windowDays, limit int) ([]domain.EmailSendRecord, error)

	// SetResendCount records a completed resend. Last-write-wins; a rare
	// concurrent double-resend is accepted and bounded by the resend budget.
	SetResendCount(ctx context.Context, trackingID string, count int) error
}

// Sender delivers a single email. Satisfied by the SES mailer.
type Sender interface {
	Send(ctx context.Context, msg *domain.EmailMessage) (*domain.SendResult, error)
}

// ReminderRenderer produces the resend subject and body for a record.
// The subject carries a resend-count prefix; the body escalates with each
// attempt.
type ReminderRenderer interface {
	RenderReminder(rec *domain.EmailSendRecord, resendNumber int) (*domain.EmailMessage, error)
}

// LoopConfig holds the batch parameters of one orchestration pass.
type LoopConfig struct {
	Policy     PolicyConfig
	WindowDays int
	BatchLimit int
	// Delay is the fixed pause between candidates, protecting the outbound
	// mail provider from bursts. Candidates are therefore processed strictly
	// sequentially within one pass.
	Delay time.Duration
}

// DefaultLoopConfig returns the product-configured batch parameters.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		Policy:     DefaultPolicyConfig(),
		WindowDays: 30,
		BatchLimit: 50,
		Delay:      time.Second,
	}
}

// Result aggregates one orchestration pass.
type Result struct {
	Processed  int      `json:"processed"`
	Resent     int      `json:"resent"`
	Skipped    int      `json:"skipped"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors,omitempty"`
	DurationMS int64    `json:"duration_ms"`
}

// Loop iterates resend candidates, applies the eligibility policy, and
// triggers sends. One Loop value may be reused across invocations; Run holds
// no state between calls.
type Loop struct {
	repo     Repository
	sender   Sender
	renderer ReminderRenderer
	cfg      LoopConfig

	// Injectable for tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// NewLoop creates a resend orchestration loop.
func NewLoop(repo Repository, sender Sender, renderer ReminderRenderer, cfg LoopConfig) *Loop {
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 30
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 50
	}
	return &Loop{
		repo:     repo,
		sender:   sender,
		renderer: renderer,
		cfg:      cfg,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Run executes one pass. A failure on a single candidate is recorded and the
// loop continues; only a failed candidate fetch aborts the whole pass.
func (l *Loop) Run(ctx context.Context) (*Result, error) {
	start := l.now()

	candidates, err := l.repo.ListResendCandidates(ctx, l.cfg.WindowDays, l.cfg.BatchLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	logger.Info("resend pass started", "candidates", len(candidates), "window_days", l.cfg.WindowDays)

	res := &Result{}
	for i := range candidates {
		rec := &candidates[i]
		res.Processed++

		l.processOne(ctx, rec, res)

		// Fixed pacing between candidates regardless of outcome.
		if i < len(candidates)-1 && l.cfg.Delay > 0 {
			l.sleep(l.cfg.Delay)
		}
	}

	res.DurationMS = l.now().Sub(start).Milliseconds()
	logger.Info("resend pass finished",
		"processed", res.Processed,
		"resent", res.Resent,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"duration_ms", res.DurationMS,
	)
	return res, nil
}

func (l *Loop) processOne(ctx context.Context, rec *domain.EmailSendRecord, res *Result) {
	decision := Evaluate(rec.DaysSinceSent(l.now()), rec.ResendCount, rec.Opened(), l.cfg.Policy)
	if decision.Action != ActionResend {
		res.Skipped++
		logger.Debug("resend skipped", "tracking_id", rec.TrackingID, "reason", decision.Reason)
		return
	}

	resendNumber := rec.ResendCount + 1
	msg, err := l.renderer.RenderReminder(rec, resendNumber)
	if err != nil {
		res.Failed++
		res.Errors = append(res.Errors, fmt.Sprintf("%s: render: %v", rec.TrackingID, err))
		logger.Error("reminder render failed", "tracking_id", rec.TrackingID, "error", err)
		return
	}

	sent, err := l.sender.Send(ctx, msg)
	if err != nil {
		res.Failed++
		res.Errors = append(res.Errors, fmt.Sprintf("%s: send: %v", rec.TrackingID, err))
		logger.Error("resend failed", "tracking_id", rec.TrackingID, "recipient", rec.RecipientEmail, "error", err)
		return
	}
	if !sent.Success {
		res.Failed++
		res.Errors = append(res.Errors, fmt.Sprintf("%s: send: %s", rec.TrackingID, sent.Error))
		logger.Error("resend rejected", "tracking_id", rec.TrackingID, "recipient", rec.RecipientEmail, "error", sent.Error)
		return
	}

	res.Resent++
	logger.Info("resent",
		"tracking_id", rec.TrackingID,
		"recipient", rec.RecipientEmail,
		"resend_number", resendNumber,
		"message_id", sent.MessageID,
	)

	// Best-effort bookkeeping: the email went out either way, so a failed
	// count update is logged and swallowed rather than failing the record.
	if err := l.repo.SetResendCount(ctx, rec.TrackingID, resendNumber); err != nil {
		logger.Error("resend count update failed", "tracking_id", rec.TrackingID, "error", err)
	}
}
