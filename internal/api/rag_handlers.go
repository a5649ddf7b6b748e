package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/effectmoe/ai-accounting-system-sub019/internal/domain"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/pkg/httputil"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/rag"
)

// writeRAGError maps service errors onto HTTP statuses.
func writeRAGError(w http.ResponseWriter, err error) {
	var verr *rag.ValidationError
	switch {
	case errors.As(err, &verr):
		httputil.BadRequest(w, verr.Error())
	case errors.Is(err, rag.ErrNotFound):
		httputil.NotFound(w, "rag record not found")
	default:
		httputil.InternalError(w, err)
	}
}

// ClassifyRequest is the input for receipt classification. ai_estimate is
// optional: when absent the rule estimator supplies the fallback.
type ClassifyRequest struct {
	StoreName       string                   `json:"store_name"`
	ItemDescription string                   `json:"item_description"`
	Description     string                   `json:"description"`
	TotalAmount     int64                    `json:"total_amount"`
	AIEstimate      *domain.CategoryEstimate `json:"ai_estimate,omitempty"`
}

// HandleClassify classifies a receipt against the retrieval history.
//
//	POST /api/classify
func (h *Handlers) HandleClassify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	query := domain.ReceiptQuery{
		StoreName:       req.StoreName,
		ItemDescription: req.ItemDescription,
		Description:     req.Description,
	}

	est := req.AIEstimate
	if est == nil || est.Category == "" {
		fallback, err := h.estimator.Estimate(r.Context(), query, req.TotalAmount)
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
		est = &fallback
	}

	result, err := h.classifier.Classify(r.Context(), query, *est)
	if err != nil {
		writeRAGError(w, err)
		return
	}
	httputil.OK(w, result)
}

// HandleLearn upserts the history record for a classified receipt.
//
//	POST /api/rag-records/learn
func (h *Handlers) HandleLearn(w http.ResponseWriter, r *http.Request) {
	var in rag.LearnInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	rec, err := h.rag.Learn(r.Context(), in)
	if err != nil {
		writeRAGError(w, err)
		return
	}
	httputil.OK(w, rec)
}

// HandleCreateRAGRecord creates a history record by hand.
//
//	POST /api/rag-records
func (h *Handlers) HandleCreateRAGRecord(w http.ResponseWriter, r *http.Request) {
	var in rag.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	rec, err := h.rag.Create(r.Context(), in)
	if err != nil {
		writeRAGError(w, err)
		return
	}
	httputil.Created(w, rec)
}

// HandleGetRAGRecord returns one history record.
//
//	GET /api/rag-records/{id}
func (h *Handlers) HandleGetRAGRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.rag.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeRAGError(w, err)
		return
	}
	httputil.OK(w, rec)
}

// HandleSearchRAGRecords lists history records with filters and pagination.
//
//	GET /api/rag-records?verified=true&store_name=...&category=...&q=...&limit=...&offset=...
func (h *Handlers) HandleSearchRAGRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := rag.SearchFilter{
		StoreName: q.Get("store_name"),
		Category:  domain.AccountCategory(q.Get("category")),
		Text:      q.Get("q"),
	}
	if v := q.Get("verified"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			httputil.BadRequest(w, "verified must be true or false")
			return
		}
		f.Verified = &b
	}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))

	records, total, err := h.rag.Search(r.Context(), f)
	if err != nil {
		writeRAGError(w, err)
		return
	}
	if records == nil {
		records = []domain.RAGRecord{}
	}
	httputil.OK(w, map[string]any{
		"records": records,
		"total":   total,
	})
}

// HandleUpdateRAGRecord partially updates a history record. Text field
// changes regenerate the combined search document.
//
//	PUT /api/rag-records/{id}
func (h *Handlers) HandleUpdateRAGRecord(w http.ResponseWriter, r *http.Request) {
	var u rag.UpdateFields
	if !httputil.Decode(w, r, &u) {
		return
	}
	rec, err := h.rag.Update(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		writeRAGError(w, err)
		return
	}
	httputil.OK(w, rec)
}

// HandleDeleteRAGRecord removes a history record.
//
//	DELETE /api/rag-records/{id}
func (h *Handlers) HandleDeleteRAGRecord(w http.ResponseWriter, r *http.Request) {
	if err := h.rag.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeRAGError(w, err)
		return
	}
	httputil.NoContent(w)
}

// HandleRAGStats summarizes the retrieval history.
//
//	GET /api/rag-records/stats
func (h *Handlers) HandleRAGStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.rag.Stats(r.Context())
	if err != nil {
		writeRAGError(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"stats":        stats,
		"generated_at": h.now().UTC().Format(time.RFC3339),
	})
}

// HandleListCategories returns the assignable account categories.
//
//	GET /api/categories
func (h *Handlers) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{"categories": domain.AccountCategories})
}
