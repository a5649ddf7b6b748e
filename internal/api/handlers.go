// Package api exposes the HTTP surface: receipt classification, retrieval
// history CRUD, resend triggering, and the receipt image archive.
package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/effectmoe/ai-accounting-system-sub019/internal/domain"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/estimate"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/pkg/httputil"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/rag"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/resend"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/storage"
)

// SendRecordStore is the read surface the API needs over email send records.
// *postgres.EmailSendRepo satisfies it.
type SendRecordStore interface {
	GetByTrackingID(ctx context.Context, trackingID string) (*domain.EmailSendRecord, error)
	ListResendCandidates(ctx context.Context, windowDays, limit int) ([]domain.EmailSendRecord, error)
}

// Handlers bundles the services behind the HTTP surface.
type Handlers struct {
	rag        *rag.Service
	classifier *rag.Classifier
	estimator  estimate.Estimator
	loop       *resend.Loop
	loopCfg    resend.LoopConfig
	sends      SendRecordStore
	archive    storage.ReceiptArchive
	db         *sql.DB

	now func() time.Time
}

// NewHandlers creates the handler set. archive and db may be nil; the routes
// that need them respond 503 / report degraded instead.
func NewHandlers(
	ragService *rag.Service,
	classifier *rag.Classifier,
	estimator estimate.Estimator,
	loop *resend.Loop,
	loopCfg resend.LoopConfig,
	sends SendRecordStore,
	archive storage.ReceiptArchive,
	db *sql.DB,
) *Handlers {
	return &Handlers{
		rag:        ragService,
		classifier: classifier,
		estimator:  estimator,
		loop:       loop,
		loopCfg:    loopCfg,
		sends:      sends,
		archive:    archive,
		db:         db,
		now:        time.Now,
	}
}

// HealthCheck reports process liveness plus database reachability.
//
//	GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	dbStatus := "not_configured"
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			status = "degraded"
			dbStatus = "down"
		} else {
			dbStatus = "up"
		}
	}
	httputil.OK(w, map[string]string{
		"status":   status,
		"database": dbStatus,
	})
}
