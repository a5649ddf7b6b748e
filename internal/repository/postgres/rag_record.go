// Package postgres implements the repository contracts against PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/effectmoe/ai-accounting-system-sub019/internal/domain"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/rag"
)

// RAGRecordRepo implements rag.Repository against PostgreSQL.
type RAGRecordRepo struct{ db *sql.DB }

// NewRAGRecordRepo creates a Postgres-backed RAG record repository.
func NewRAGRecordRepo(db *sql.DB) *RAGRecordRepo { return &RAGRecordRepo{db: db} }

const ragRecordColumns = `id, document, store_name, COALESCE(item_description,''),
	       COALESCE(description,''), category, total_amount, issue_date,
	       verified, COALESCE(source_receipt_id,''), created_at, updated_at`

func scanRAGRecord(row interface{ Scan(...any) error }) (*domain.RAGRecord, error) {
	r := &domain.RAGRecord{}
	err := row.Scan(
		&r.ID, &r.Document, &r.StoreName, &r.ItemDescription,
		&r.Description, &r.Category, &r.TotalAmount, &r.IssueDate,
		&r.Verified, &r.SourceReceiptID, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RAGRecordRepo) GetByID(ctx context.Context, id string) (*domain.RAGRecord, error) {
	rec, err := scanRAGRecord(r.db.QueryRowContext(ctx, `
		SELECT `+ragRecordColumns+`
		FROM rag_records
		WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, rag.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get rag record: %w", err)
	}
	return rec, nil
}

// FindBySourceReceiptID returns nil (no error) when no record exists. If
// duplicates slipped in, the most recently updated record wins.
func (r *RAGRecordRepo) FindBySourceReceiptID(ctx context.Context, sourceReceiptID string) (*domain.RAGRecord, error) {
	rec, err := scanRAGRecord(r.db.QueryRowContext(ctx, `
		SELECT `+ragRecordColumns+`
		FROM rag_records
		WHERE source_receipt_id = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`, sourceReceiptID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find rag record by source receipt: %w", err)
	}
	return rec, nil
}

func (r *RAGRecordRepo) Search(ctx context.Context, f rag.SearchFilter) ([]domain.RAGRecord, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	idx := 1
	add := func(cond string, val interface{}) {
		where += fmt.Sprintf(" AND "+cond, idx)
		args = append(args, val)
		idx++
	}

	if f.Verified != nil {
		add("verified = $%d", *f.Verified)
	}
	if f.StoreName != "" {
		add("store_name ILIKE '%%' || $%d || '%%'", f.StoreName)
	}
	if f.Category != "" {
		add("category = $%d", string(f.Category))
	}
	if f.Text != "" {
		add("document ILIKE '%%' || $%d || '%%'", f.Text)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rag_records "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count rag records: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	q := fmt.Sprintf(`
		SELECT `+ragRecordColumns+`
		FROM rag_records
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list rag records: %w", err)
	}
	defer rows.Close()

	var out []domain.RAGRecord
	for rows.Next() {
		rec, err := scanRAGRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan rag record: %w", err)
		}
		out = append(out, *rec)
	}
	return out, total, rows.Err()
}

// SearchCandidates pre-filters cheaply: records whose store name or combined
// document text overlaps the query sort first, newest history breaking ties.
// Scoring proper happens in the classifier; this only bounds the set.
func (r *RAGRecordRepo) SearchCandidates(ctx context.Context, q domain.ReceiptQuery, limit int) ([]domain.RAGRecord, error) {
	if limit <= 0 {
		limit = rag.DefaultCandidateLimit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+ragRecordColumns+`
		FROM rag_records
		ORDER BY (store_name ILIKE '%' || $1 || '%') DESC,
		         (document ILIKE '%' || $2 || '%') DESC,
		         created_at DESC
		LIMIT $3
	`, q.StoreName, q.ItemDescription, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rag.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []domain.RAGRecord
	for rows.Next() {
		rec, err := scanRAGRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan: %v", rag.ErrStoreUnavailable, err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", rag.ErrStoreUnavailable, err)
	}
	return out, nil
}

func (r *RAGRecordRepo) Create(ctx context.Context, rec *domain.RAGRecord) (*domain.RAGRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO rag_records
			(id, document, store_name, item_description, description, category,
			 total_amount, issue_date, verified, source_receipt_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING created_at, updated_at
	`, rec.ID, rec.Document, rec.StoreName, rec.ItemDescription, rec.Description,
		string(rec.Category), rec.TotalAmount, rec.IssueDate, rec.Verified, rec.SourceReceiptID,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create rag record: %w", err)
	}
	out := *rec
	return &out, nil
}

func (r *RAGRecordRepo) Update(ctx context.Context, id string, u rag.UpdateFields) (*domain.RAGRecord, error) {
	sets := []string{}
	args := []interface{}{}
	idx := 1
	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if u.StoreName != nil {
		add("store_name", *u.StoreName)
	}
	if u.ItemDescription != nil {
		add("item_description", *u.ItemDescription)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.Category != nil {
		add("category", string(*u.Category))
	}
	if u.TotalAmount != nil {
		add("total_amount", *u.TotalAmount)
	}
	if u.Verified != nil {
		add("verified", *u.Verified)
	}
	if u.Document != nil {
		add("document", *u.Document)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	q := "UPDATE rag_records SET "
	for i, s := range sets {
		if i > 0 {
			q += ", "
		}
		q += s
	}
	q += fmt.Sprintf(", updated_at = NOW() WHERE id = $%d", idx)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("update rag record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, rag.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *RAGRecordRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rag_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete rag record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return rag.ErrNotFound
	}
	return nil
}

func (r *RAGRecordRepo) Stats(ctx context.Context) (*domain.RAGStats, error) {
	s := &domain.RAGStats{}
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE verified),
		       COUNT(DISTINCT store_name)
		FROM rag_records
	`).Scan(&s.Total, &s.Verified, &s.StoreCount)
	if err != nil {
		return nil, fmt.Errorf("rag record stats: %w", err)
	}
	s.Unverified = s.Total - s.Verified
	return s, nil
}
