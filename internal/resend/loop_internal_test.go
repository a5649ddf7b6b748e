package resend

import (
	"context"
	"testing"
	"time"

	"github.com/effectmoe/ai-accounting-system-sub019/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticRepo struct{ records []domain.EmailSendRecord }

func (s staticRepo) ListResendCandidates(context.Context, int, int) ([]domain.EmailSendRecord, error) {
	return s.records, nil
}
func (s staticRepo) SetResendCount(context.Context, string, int) error { return nil }

type noopSender struct{}

func (noopSender) Send(_ context.Context, _ *domain.EmailMessage) (*domain.SendResult, error) {
	return &domain.SendResult{Success: true}, nil
}

type noopRenderer struct{}

func (noopRenderer) RenderReminder(rec *domain.EmailSendRecord, _ int) (*domain.EmailMessage, error) {
	return &domain.EmailMessage{To: rec.RecipientEmail}, nil
}

// The inter-record delay applies between candidates regardless of outcome,
// but not after the last one.
func TestLoop_PacesBetweenCandidates(t *testing.T) {
	now := time.Now()
	records := []domain.EmailSendRecord{
		{TrackingID: "t1", SentAt: now.Add(-5 * 24 * time.Hour)},           // resend
		{TrackingID: "t2", SentAt: now.Add(-1 * 24 * time.Hour)},           // skip
		{TrackingID: "t3", SentAt: now.Add(-5 * 24 * time.Hour), OpenCount: 1}, // skip
	}

	cfg := DefaultLoopConfig()
	l := NewLoop(staticRepo{records}, noopSender{}, noopRenderer{}, cfg)

	var slept []time.Duration
	l.sleep = func(d time.Duration) { slept = append(slept, d) }

	res, err := l.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Processed)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, slept)
}
