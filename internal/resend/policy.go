// Package resend decides when unopened quote/invoice emails should be sent
// again, and runs the batch loop that performs the resends.
package resend

import "fmt"

// Action is the outcome of an eligibility evaluation.
type Action string

const (
	ActionResend Action = "resend"
	ActionSkip   Action = "skip"
)

// PolicyConfig holds the backoff schedule. IntervalDays must be strictly
// ascending; values carried over from the original product are [3,7,14,30]
// with at most 3 resends.
type PolicyConfig struct {
	IntervalDays   []int
	MaxResendCount int
}

// DefaultPolicyConfig returns the product-configured schedule.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		IntervalDays:   []int{3, 7, 14, 30},
		MaxResendCount: 3,
	}
}

// Decision is the result of an eligibility evaluation. Reason is a diagnostic
// for logs and dry-run previews; callers must branch on Action only.
type Decision struct {
	Action Action `json:"action"`
	Reason string `json:"reason"`
}

// Evaluate decides whether an email is due for a resend. It is a pure
// function of its inputs: the outcome never depends on other candidates in
// the same batch.
//
// Rules, in order:
//  1. An opened email is never resent.
//  2. A record at the resend budget is never resent.
//  3. Otherwise the Nth resend requires IntervalDays[N] days since the
//     original send. Past the last configured interval, the last (longest)
//     interval keeps serving as the cadence so the policy degrades gracefully
//     instead of needing an interval per possible resend count.
func Evaluate(daysSinceSent, resendCount int, hasBeenOpened bool, cfg PolicyConfig) Decision {
	if hasBeenOpened {
		return Decision{
			Action: ActionSkip,
			Reason: "already opened; resend not needed",
		}
	}
	if resendCount >= cfg.MaxResendCount {
		return Decision{
			Action: ActionSkip,
			Reason: fmt.Sprintf("resend count %d reached the limit %d", resendCount, cfg.MaxResendCount),
		}
	}

	idx := resendCount
	if idx > len(cfg.IntervalDays)-1 {
		idx = len(cfg.IntervalDays) - 1
	}
	threshold := cfg.IntervalDays[idx]

	if daysSinceSent < threshold {
		return Decision{
			Action: ActionSkip,
			Reason: fmt.Sprintf("only %d days since sent; next resend at %d days", daysSinceSent, threshold),
		}
	}
	return Decision{
		Action: ActionResend,
		Reason: fmt.Sprintf("%d days since sent meets the %d-day threshold for resend #%d", daysSinceSent, threshold, resendCount+1),
	}
}
