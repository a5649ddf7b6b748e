package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/effectmoe/ai-accounting-system-sub019/internal/domain"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/resend"
)

// ErrSendRecordNotFound means the tracking id does not exist.
var ErrSendRecordNotFound = errors.New("email send record not found")

// EmailSendRepo implements resend.Repository against PostgreSQL. The
// open_count and status columns are written by the tracking collaborator;
// this repository only reads them.
type EmailSendRepo struct{ db *sql.DB }

// NewEmailSendRepo creates a Postgres-backed email send record repository.
func NewEmailSendRepo(db *sql.DB) *EmailSendRepo { return &EmailSendRepo{db: db} }

const sendRecordColumns = `tracking_id, COALESCE(quote_id,''), COALESCE(invoice_id,''),
	       recipient_email, subject, sent_at, resend_count, open_count,
	       last_opened_at, status`

func scanSendRecord(row interface{ Scan(...any) error }) (*domain.EmailSendRecord, error) {
	r := &domain.EmailSendRecord{}
	err := row.Scan(
		&r.TrackingID, &r.QuoteID, &r.InvoiceID,
		&r.RecipientEmail, &r.Subject, &r.SentAt, &r.ResendCount, &r.OpenCount,
		&r.LastOpenedAt, &r.Status,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Create persists a send record at send time.
func (r *EmailSendRepo) Create(ctx context.Context, rec *domain.EmailSendRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO email_send_records
			(tracking_id, quote_id, invoice_id, recipient_email, subject,
			 sent_at, resend_count, open_count, status)
		VALUES ($1, NULLIF($2,''), NULLIF($3,''), $4, $5, $6, 0, 0, $7)
	`, rec.TrackingID, rec.QuoteID, rec.InvoiceID, rec.RecipientEmail, rec.Subject,
		rec.SentAt, string(domain.SendStatusSent))
	if err != nil {
		return fmt.Errorf("create send record: %w", err)
	}
	return nil
}

// GetByTrackingID returns a single send record.
func (r *EmailSendRepo) GetByTrackingID(ctx context.Context, trackingID string) (*domain.EmailSendRecord, error) {
	rec, err := scanSendRecord(r.db.QueryRowContext(ctx, `
		SELECT `+sendRecordColumns+`
		FROM email_send_records
		WHERE tracking_id = $1
	`, trackingID))
	if err == sql.ErrNoRows {
		return nil, ErrSendRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get send record: %w", err)
	}
	return rec, nil
}

// ListResendCandidates returns unopened records sent within the last
// windowDays days, oldest first. The opened filter lives in SQL so the loop
// never pages through records the policy would skip on the open test anyway;
// the policy re-checks regardless.
func (r *EmailSendRepo) ListResendCandidates(ctx context.Context, windowDays, limit int) ([]domain.EmailSendRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sendRecordColumns+`
		FROM email_send_records
		WHERE open_count = 0
		  AND status <> 'opened'
		  AND sent_at >= NOW() - make_interval(days => $1)
		ORDER BY sent_at ASC
		LIMIT $2
	`, windowDays, limit)
	if err != nil {
		return nil, fmt.Errorf("list resend candidates: %w", err)
	}
	defer rows.Close()

	var out []domain.EmailSendRecord
	for rows.Next() {
		rec, err := scanSendRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan send record: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// SetResendCount records a completed resend. Plain last-write-wins update:
// the cost of a lost update is one extra resend, bounded by the budget.
func (r *EmailSendRepo) SetResendCount(ctx context.Context, trackingID string, count int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE email_send_records SET resend_count = $2 WHERE tracking_id = $1
	`, trackingID, count)
	if err != nil {
		return fmt.Errorf("set resend count: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSendRecordNotFound
	}
	return nil
}

var _ resend.Repository = (*EmailSendRepo)(nil)
