package domain

import "time"

// EmailSendStatus enumerates the delivery/engagement states recorded by the
// tracking collaborator.
type EmailSendStatus string

const (
	SendStatusSent   EmailSendStatus = "sent"
	SendStatusOpened EmailSendStatus = "opened"
	SendStatusFailed EmailSendStatus = "failed"
)

// EmailSendRecord correlates a sent quote/invoice email with its open events.
// TrackingID, the document reference, RecipientEmail, Subject and SentAt are
// immutable once created. ResendCount is bumped by the resend loop after each
// confirmed resend. OpenCount and Status are owned by the tracking
// collaborator and are read-only here.
type EmailSendRecord struct {
	TrackingID     string          `json:"tracking_id" db:"tracking_id"`
	QuoteID        string          `json:"quote_id,omitempty" db:"quote_id"`
	InvoiceID      string          `json:"invoice_id,omitempty" db:"invoice_id"`
	RecipientEmail string          `json:"recipient_email" db:"recipient_email"`
	Subject        string          `json:"subject" db:"subject"`
	SentAt         time.Time       `json:"sent_at" db:"sent_at"`
	ResendCount    int             `json:"resend_count" db:"resend_count"`
	OpenCount      int             `json:"open_count" db:"open_count"`
	LastOpenedAt   *time.Time      `json:"last_opened_at,omitempty" db:"last_opened_at"`
	Status         EmailSendStatus `json:"status" db:"status"`
}

// Opened reports whether the recipient has opened the email at least once.
func (r *EmailSendRecord) Opened() bool {
	return r.OpenCount > 0 || r.Status == SendStatusOpened
}

// DaysSinceSent returns whole days elapsed between SentAt and now.
func (r *EmailSendRecord) DaysSinceSent(now time.Time) int {
	return int(now.Sub(r.SentAt).Hours() / 24)
}

// DocumentRef returns the kind and id of the source document. Exactly one of
// QuoteID/InvoiceID is populated at creation time.
func (r *EmailSendRecord) DocumentRef() (kind, id string) {
	if r.QuoteID != "" {
		return "quote", r.QuoteID
	}
	return "invoice", r.InvoiceID
}

// EmailMessage is a fully-resolved outbound message ready for the mail
// provider.
type EmailMessage struct {
	To       string `json:"to"`
	FromName string `json:"from_name"`
	From     string `json:"from"`
	ReplyTo  string `json:"reply_to,omitempty"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
	TextBody string `json:"text_body,omitempty"`
}

// SendResult is returned by the mail provider after attempting delivery.
type SendResult struct {
	Success   bool      `json:"success"`
	MessageID string    `json:"message_id,omitempty"`
	SentAt    time.Time `json:"sent_at"`
	Error     string    `json:"error,omitempty"`
}
