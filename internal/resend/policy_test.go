package resend_test

import (
	"testing"

	"github.com/effectmoe/ai-accounting-system-sub019/internal/resend"
	"github.com/stretchr/testify/assert"
)

func TestEvaluate_BackoffSchedule(t *testing.T) {
	cfg := resend.PolicyConfig{IntervalDays: []int{3, 7, 14, 30}, MaxResendCount: 4}

	tests := []struct {
		name          string
		daysSinceSent int
		resendCount   int
		want          resend.Action
	}{
		{"first resend too soon", 2, 0, resend.ActionSkip},
		{"first resend at 3 days", 3, 0, resend.ActionResend},
		{"second resend too soon", 6, 1, resend.ActionSkip},
		{"second resend at 7 days", 7, 1, resend.ActionResend},
		{"third resend at 14 days", 14, 2, resend.ActionResend},
		{"fourth resend at 30 days", 30, 3, resend.ActionResend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := resend.Evaluate(tt.daysSinceSent, tt.resendCount, false, cfg)
			assert.Equal(t, tt.want, d.Action)
			assert.NotEmpty(t, d.Reason)
		})
	}
}

func TestEvaluate_OpenedAlwaysSkips(t *testing.T) {
	cfg := resend.DefaultPolicyConfig()
	for _, days := range []int{0, 3, 100} {
		for _, count := range []int{0, 1, 2} {
			d := resend.Evaluate(days, count, true, cfg)
			assert.Equal(t, resend.ActionSkip, d.Action,
				"opened email must never be resent (days=%d count=%d)", days, count)
		}
	}
}

func TestEvaluate_ExhaustedBudgetAlwaysSkips(t *testing.T) {
	cfg := resend.DefaultPolicyConfig()
	for _, days := range []int{0, 30, 365} {
		d := resend.Evaluate(days, cfg.MaxResendCount, false, cfg)
		assert.Equal(t, resend.ActionSkip, d.Action)
	}
	// Also past the budget, not just at it.
	d := resend.Evaluate(365, cfg.MaxResendCount+2, false, cfg)
	assert.Equal(t, resend.ActionSkip, d.Action)
}

func TestEvaluate_IntervalIndexClampsAtLast(t *testing.T) {
	// More resends allowed than intervals configured: the last interval
	// keeps serving as the cadence.
	cfg := resend.PolicyConfig{IntervalDays: []int{3, 7}, MaxResendCount: 5}

	d := resend.Evaluate(6, 3, false, cfg)
	assert.Equal(t, resend.ActionSkip, d.Action)

	d = resend.Evaluate(7, 3, false, cfg)
	assert.Equal(t, resend.ActionResend, d.Action)
}

func TestEvaluate_IsPureFunction(t *testing.T) {
	cfg := resend.DefaultPolicyConfig()
	first := resend.Evaluate(7, 1, false, cfg)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, resend.Evaluate(7, 1, false, cfg))
	}
}
