package mailer_test

import (
	"testing"
	"time"

	"github.com/effectmoe/ai-accounting-system-sub019/internal/domain"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/mailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord() *domain.EmailSendRecord {
	return &domain.EmailSendRecord{
		TrackingID:     "trk-1",
		QuoteID:        "quote-1",
		RecipientEmail: "tanaka@example.co.jp",
		Subject:        "お見積書の送付",
		SentAt:         time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestRenderReminder_SubjectPrefix(t *testing.T) {
	tpl, err := mailer.NewReminderTemplates()
	require.NoError(t, err)

	for n, want := range map[int]string{
		1: "【再送1回目】お見積書の送付",
		2: "【再送2回目】お見積書の送付",
		3: "【再送3回目】お見積書の送付",
	} {
		msg, err := tpl.RenderReminder(testRecord(), n)
		require.NoError(t, err)
		assert.Equal(t, want, msg.Subject)
		assert.Equal(t, "tanaka@example.co.jp", msg.To)
	}
}

func TestRenderReminder_BodyEscalates(t *testing.T) {
	tpl, err := mailer.NewReminderTemplates()
	require.NoError(t, err)

	bodies := make(map[int]string)
	for n := 1; n <= 3; n++ {
		msg, err := tpl.RenderReminder(testRecord(), n)
		require.NoError(t, err)
		require.NotEmpty(t, msg.TextBody)
		require.NotEmpty(t, msg.HTMLBody)
		bodies[n] = msg.TextBody
	}

	assert.NotEqual(t, bodies[1], bodies[2])
	assert.NotEqual(t, bodies[2], bodies[3])
	assert.Contains(t, bodies[3], "度々のご連絡")
}

func TestRenderReminder_DocumentKindAndDate(t *testing.T) {
	tpl, err := mailer.NewReminderTemplates()
	require.NoError(t, err)

	quote := testRecord()
	msg, err := tpl.RenderReminder(quote, 1)
	require.NoError(t, err)
	assert.Contains(t, msg.TextBody, "お見積書")
	assert.Contains(t, msg.TextBody, "2026年8月1日")

	invoice := testRecord()
	invoice.QuoteID = ""
	invoice.InvoiceID = "inv-1"
	msg, err = tpl.RenderReminder(invoice, 1)
	require.NoError(t, err)
	assert.Contains(t, msg.TextBody, "ご請求書")
}
