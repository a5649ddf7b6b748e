package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/effectmoe/ai-accounting-system-sub019/internal/domain"
)

var sendCols = []string{
	"tracking_id", "quote_id", "invoice_id", "recipient_email", "subject",
	"sent_at", "resend_count", "open_count", "last_opened_at", "status",
}

func sendRow(trackingID string, sentAt time.Time, resendCount int) []driverValue {
	return []driverValue{
		trackingID, "Q-001", "", "customer@example.co.jp", "お見積書の送付",
		sentAt, resendCount, 0, nil, "sent",
	}
}

func TestEmailSendRepo_Create(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewEmailSendRepo(db)

	sentAt := time.Now()
	mock.ExpectExec("INSERT INTO email_send_records").
		WithArgs("trk-1", "Q-001", "", "customer@example.co.jp", "お見積書の送付", sentAt, "sent").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &domain.EmailSendRecord{
		TrackingID:     "trk-1",
		QuoteID:        "Q-001",
		RecipientEmail: "customer@example.co.jp",
		Subject:        "お見積書の送付",
		SentAt:         sentAt,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmailSendRepo_GetByTrackingID(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewEmailSendRepo(db)

	sentAt := time.Now().Add(-72 * time.Hour)
	mock.ExpectQuery("SELECT (.+) FROM email_send_records\\s+WHERE tracking_id =").
		WithArgs("trk-1").
		WillReturnRows(sqlmock.NewRows(sendCols).AddRow(sendRow("trk-1", sentAt, 1)...))

	rec, err := repo.GetByTrackingID(context.Background(), "trk-1")
	require.NoError(t, err)
	assert.Equal(t, "Q-001", rec.QuoteID)
	assert.Equal(t, 1, rec.ResendCount)
	assert.False(t, rec.Opened())

	mock.ExpectQuery("SELECT (.+) FROM email_send_records\\s+WHERE tracking_id =").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetByTrackingID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSendRecordNotFound)
}

func TestEmailSendRepo_ListResendCandidates(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewEmailSendRepo(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM email_send_records\\s+WHERE open_count = 0").
		WithArgs(30, 50).
		WillReturnRows(sqlmock.NewRows(sendCols).
			AddRow(sendRow("trk-old", now.Add(-14*24*time.Hour), 1)...).
			AddRow(sendRow("trk-new", now.Add(-3*24*time.Hour), 0)...))

	out, err := repo.ListResendCandidates(context.Background(), 30, 50)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "trk-old", out[0].TrackingID, "oldest first")
}

func TestEmailSendRepo_SetResendCount(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewEmailSendRepo(db)

	mock.ExpectExec("UPDATE email_send_records SET resend_count =").
		WithArgs("trk-1", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetResendCount(context.Background(), "trk-1", 2))

	mock.ExpectExec("UPDATE email_send_records SET resend_count =").
		WithArgs("missing", 1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.SetResendCount(context.Background(), "missing", 1), ErrSendRecordNotFound)
}
