package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/effectmoe/ai-accounting-system-sub019/internal/domain"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/pkg/httputil"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/repository/postgres"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/resend"
)

// HandleTriggerResend runs one resend pass synchronously and returns its
// summary. Per-candidate failures are reported inside the summary; only a
// failure to fetch candidates fails the request.
//
//	POST /api/resend/trigger
func (h *Handlers) HandleTriggerResend(w http.ResponseWriter, r *http.Request) {
	result, err := h.loop.Run(r.Context())
	if err != nil {
		if errors.Is(err, resend.ErrStoreUnavailable) {
			httputil.Error(w, http.StatusInternalServerError, "send record store unavailable")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, result)
}

// ResendCandidate pairs a send record with the policy's verdict for it.
type ResendCandidate struct {
	Record   domain.EmailSendRecord `json:"record"`
	Decision resend.Decision        `json:"decision"`
}

// HandleListResendCandidates previews the next resend pass without sending
// anything: each in-window unopened record with the decision the policy
// would make right now.
//
//	GET /api/resend/candidates
func (h *Handlers) HandleListResendCandidates(w http.ResponseWriter, r *http.Request) {
	records, err := h.sends.ListResendCandidates(r.Context(), h.loopCfg.WindowDays, h.loopCfg.BatchLimit)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	now := h.now()
	out := make([]ResendCandidate, 0, len(records))
	for _, rec := range records {
		out = append(out, ResendCandidate{
			Record:   rec,
			Decision: resend.Evaluate(rec.DaysSinceSent(now), rec.ResendCount, rec.Opened(), h.loopCfg.Policy),
		})
	}
	httputil.OK(w, map[string]any{
		"candidates": out,
		"total":      len(out),
	})
}

// HandleGetSendRecord returns a single send record with its open state, the
// read model behind the "did they open it" dashboard column.
//
//	GET /api/email-sends/{trackingID}
func (h *Handlers) HandleGetSendRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.sends.GetByTrackingID(r.Context(), chi.URLParam(r, "trackingID"))
	if err != nil {
		if errors.Is(err, postgres.ErrSendRecordNotFound) {
			httputil.NotFound(w, "send record not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"record": rec,
		"opened": rec.Opened(),
	})
}
