package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/effectmoe/ai-accounting-system-sub019/internal/pkg/httputil"
)

// maxReceiptImageBytes bounds uploads; scans above 10MB are almost always
// a client-side mistake.
const maxReceiptImageBytes = 10 << 20

// HandleUploadReceiptImage archives a receipt scan and returns its object key.
//
//	POST /api/receipts/images
func (h *Handlers) HandleUploadReceiptImage(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "receipt archive not configured")
		return
	}

	contentType := r.Header.Get("Content-Type")
	switch contentType {
	case "image/jpeg", "image/png", "application/pdf":
	default:
		httputil.BadRequest(w, "content type must be image/jpeg, image/png or application/pdf")
		return
	}

	receiptID := r.URL.Query().Get("receipt_id")
	if receiptID == "" {
		receiptID = uuid.New().String()
	}

	body := http.MaxBytesReader(w, r.Body, maxReceiptImageBytes)
	key, err := h.archive.Put(r.Context(), receiptID, contentType, body)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.Created(w, map[string]string{
		"receipt_id": receiptID,
		"key":        key,
	})
}

// HandleGetReceiptImage streams a stored receipt scan.
//
//	GET /api/receipts/images/{key}
func (h *Handlers) HandleGetReceiptImage(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "receipt archive not configured")
		return
	}

	key := chi.URLParam(r, "*")
	body, contentType, err := h.archive.Get(r.Context(), key)
	if err != nil {
		httputil.NotFound(w, "receipt image not found")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	io.Copy(w, body)
}

// HandleDeleteReceiptImage removes a stored receipt scan.
//
//	DELETE /api/receipts/images/{key}
func (h *Handlers) HandleDeleteReceiptImage(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "receipt archive not configured")
		return
	}

	key := chi.URLParam(r, "*")
	if err := h.archive.Delete(r.Context(), key); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.NoContent(w)
}
