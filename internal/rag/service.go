package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/effectmoe/ai-accounting-system-sub019/internal/domain"
)

// Service implements RAG record business logic on top of the repository:
// document text generation, learn-from-receipt upsert, and stats.
type Service struct {
	repo Repository
}

// NewService creates a record service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GenerateDocument builds the combined search text persisted with each
// record: store name, item description and memo joined with spaces, empty
// fields dropped.
func GenerateDocument(storeName, itemDescription, description string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{storeName, itemDescription, description} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// CreateInput holds the fields for a new RAG record.
type CreateInput struct {
	StoreName       string                 `json:"store_name"`
	ItemDescription string                 `json:"item_description"`
	Description     string                 `json:"description"`
	Category        domain.AccountCategory `json:"category"`
	TotalAmount     int64                  `json:"total_amount"`
	IssueDate       *time.Time             `json:"issue_date"`
	Verified        bool                   `json:"verified"`
	SourceReceiptID string                 `json:"source_receipt_id"`
}

// Create validates and persists a new record.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.RAGRecord, error) {
	if strings.TrimSpace(in.StoreName) == "" {
		return nil, &ValidationError{Field: "store_name", Message: "required"}
	}
	if !in.Category.Valid() {
		return nil, &ValidationError{Field: "category", Message: fmt.Sprintf("unknown category %q", in.Category)}
	}

	rec := &domain.RAGRecord{
		Document:        GenerateDocument(in.StoreName, in.ItemDescription, in.Description),
		StoreName:       in.StoreName,
		ItemDescription: in.ItemDescription,
		Description:     in.Description,
		Category:        in.Category,
		TotalAmount:     in.TotalAmount,
		IssueDate:       in.IssueDate,
		Verified:        in.Verified,
		SourceReceiptID: in.SourceReceiptID,
	}
	return s.repo.Create(ctx, rec)
}

// Get returns a single record. Returns ErrNotFound if absent.
func (s *Service) Get(ctx context.Context, id string) (*domain.RAGRecord, error) {
	return s.repo.GetByID(ctx, id)
}

// Search lists records matching the filter.
func (s *Service) Search(ctx context.Context, f SearchFilter) ([]domain.RAGRecord, int, error) {
	if f.Limit <= 0 {
		f.Limit = 100
	}
	return s.repo.Search(ctx, f)
}

// Update applies the given fields and regenerates the combined document text
// from the resulting field values.
func (s *Service) Update(ctx context.Context, id string, u UpdateFields) (*domain.RAGRecord, error) {
	if u.Category != nil && !u.Category.Valid() {
		return nil, &ValidationError{Field: "category", Message: fmt.Sprintf("unknown category %q", *u.Category)}
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	storeName := current.StoreName
	if u.StoreName != nil {
		storeName = *u.StoreName
	}
	item := current.ItemDescription
	if u.ItemDescription != nil {
		item = *u.ItemDescription
	}
	memo := current.Description
	if u.Description != nil {
		memo = *u.Description
	}
	doc := GenerateDocument(storeName, item, memo)
	u.Document = &doc

	return s.repo.Update(ctx, id, u)
}

// Delete removes a record. Returns ErrNotFound if absent.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Stats summarizes the stored history.
func (s *Service) Stats(ctx context.Context) (*domain.RAGStats, error) {
	return s.repo.Stats(ctx)
}

// LearnInput carries a human-confirmed (or freshly estimated) receipt
// classification back into the retrieval history.
type LearnInput struct {
	SourceReceiptID string                 `json:"source_receipt_id"`
	StoreName       string                 `json:"store_name"`
	ItemDescription string                 `json:"item_description"`
	Description     string                 `json:"description"`
	Category        domain.AccountCategory `json:"category"`
	TotalAmount     int64                  `json:"total_amount"`
	IssueDate       *time.Time             `json:"issue_date"`
	Verified        bool                   `json:"verified"`
}

// Learn upserts the history record for a receipt, keyed by SourceReceiptID.
// A second Learn call for the same receipt updates the existing record in
// place rather than creating a duplicate.
func (s *Service) Learn(ctx context.Context, in LearnInput) (*domain.RAGRecord, error) {
	if strings.TrimSpace(in.SourceReceiptID) == "" {
		return nil, &ValidationError{Field: "source_receipt_id", Message: "required"}
	}
	if strings.TrimSpace(in.StoreName) == "" {
		return nil, &ValidationError{Field: "store_name", Message: "required"}
	}
	if !in.Category.Valid() {
		return nil, &ValidationError{Field: "category", Message: fmt.Sprintf("unknown category %q", in.Category)}
	}

	existing, err := s.repo.FindBySourceReceiptID(ctx, in.SourceReceiptID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return s.Create(ctx, CreateInput{
			StoreName:       in.StoreName,
			ItemDescription: in.ItemDescription,
			Description:     in.Description,
			Category:        in.Category,
			TotalAmount:     in.TotalAmount,
			IssueDate:       in.IssueDate,
			Verified:        in.Verified,
			SourceReceiptID: in.SourceReceiptID,
		})
	}

	return s.Update(ctx, existing.ID, UpdateFields{
		StoreName:       &in.StoreName,
		ItemDescription: &in.ItemDescription,
		Description:     &in.Description,
		Category:        &in.Category,
		TotalAmount:     &in.TotalAmount,
		Verified:        &in.Verified,
	})
}
