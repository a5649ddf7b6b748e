package rag

import (
	"context"

	"github.com/effectmoe/ai-accounting-system-sub019/internal/domain"
)

// Repository defines the data access contract for RAG records.
// Implementations must be safe for concurrent use.
type Repository interface {
	// GetByID returns a single record. Returns ErrNotFound if it doesn't exist.
	GetByID(ctx context.Context, id string) (*domain.RAGRecord, error)

	// FindBySourceReceiptID returns the record derived from the given receipt,
	// or nil (no error) if none exists. If duplicates exist the most recently
	// updated record is returned.
	FindBySourceReceiptID(ctx context.Context, sourceReceiptID string) (*domain.RAGRecord, error)

	// Search returns records matching the filter plus the total match count,
	// ordered by created_at DESC.
	Search(ctx context.Context, f SearchFilter) ([]domain.RAGRecord, int, error)

	// SearchCandidates returns a bounded set of retrieval candidates for the
	// query, cheaply pre-filtered before similarity scoring. Both verified and
	// unverified history are included.
	SearchCandidates(ctx context.Context, q domain.ReceiptQuery, limit int) ([]domain.RAGRecord, error)

	// Create inserts a new record and returns it with id and timestamps set.
	Create(ctx context.Context, rec *domain.RAGRecord) (*domain.RAGRecord, error)

	// Update applies the non-nil fields and returns the updated record.
	// Returns ErrNotFound if the id doesn't exist.
	Update(ctx context.Context, id string, u UpdateFields) (*domain.RAGRecord, error)

	// Delete removes a record. Returns ErrNotFound if the id doesn't exist.
	Delete(ctx context.Context, id string) error

	// Stats summarizes the stored history.
	Stats(ctx context.Context) (*domain.RAGStats, error)
}

// SearchFilter controls filtering and pagination for record lists.
type SearchFilter struct {
	Verified  *bool
	StoreName string
	Category  domain.AccountCategory
	Text      string // free text matched against the combined document
	Limit     int
	Offset    int
}

// UpdateFields holds the mutable fields for a record update.
// Nil fields are not applied.
type UpdateFields struct {
	StoreName       *string                 `json:"store_name"`
	ItemDescription *string                 `json:"item_description"`
	Description     *string                 `json:"description"`
	Category        *domain.AccountCategory `json:"category"`
	TotalAmount     *int64                  `json:"total_amount"`
	Verified        *bool                   `json:"verified"`
	Document        *string                 `json:"-"` // regenerated by the service, not by callers
}
