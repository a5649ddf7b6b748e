package mailer

import (
	"fmt"
	"strings"
	"time"

	"github.com/osteele/liquid"

	"github.com/effectmoe/ai-accounting-system-sub019/internal/domain"
)

// Reminder templates, Liquid syntax. The subject carries the resend-count
// prefix; the body escalates with each attempt.
const (
	reminderSubjectTemplate = `【再送{{ resend_number }}回目】{{ subject }}`

	reminderTextTemplate = `{{ recipient }} 様

{{ sent_date | jdate }}にお送りした{{ document_kind }}について、ご確認のご連絡です。

{% if resend_number == 1 -%}
ご多忙のところ恐れ入りますが、内容をご確認いただけますと幸いです。
{%- elsif resend_number == 2 -%}
再度のご連絡となり恐縮です。ご不明点などございましたらお気軽にお問い合わせください。
{%- else -%}
度々のご連絡失礼いたします。本件についてご返答をいただけていないため、改めてご確認をお願いいたします。ご不要の場合はその旨お知らせください。
{%- endif %}

お手数をおかけしますが、よろしくお願いいたします。
`

	reminderHTMLTemplate = `<p>{{ recipient }} 様</p>
<p>{{ sent_date | jdate }}にお送りした{{ document_kind }}について、ご確認のご連絡です。</p>
{% if resend_number == 1 -%}
<p>ご多忙のところ恐れ入りますが、内容をご確認いただけますと幸いです。</p>
{%- elsif resend_number == 2 -%}
<p>再度のご連絡となり恐縮です。ご不明点などございましたらお気軽にお問い合わせください。</p>
{%- else -%}
<p>度々のご連絡失礼いたします。本件についてご返答をいただけていないため、改めてご確認をお願いいたします。ご不要の場合はその旨お知らせください。</p>
{%- endif %}
<p>お手数をおかけしますが、よろしくお願いいたします。</p>
`
)

// ReminderTemplates renders resend reminder emails from Liquid templates.
// Templates are parsed once at construction; rendering is concurrency-safe.
type ReminderTemplates struct {
	subject *liquid.Template
	text    *liquid.Template
	html    *liquid.Template
}

// NewReminderTemplates parses the built-in reminder templates.
func NewReminderTemplates() (*ReminderTemplates, error) {
	engine := liquid.NewEngine()

	// Japanese date: {{ sent_date | jdate }} → "2026年8月1日"
	engine.RegisterFilter("jdate", func(v interface{}) string {
		t, ok := v.(time.Time)
		if !ok {
			return fmt.Sprintf("%v", v)
		}
		return fmt.Sprintf("%d年%d月%d日", t.Year(), int(t.Month()), t.Day())
	})

	subject, err := engine.ParseString(reminderSubjectTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse subject template: %w", err)
	}
	text, err := engine.ParseString(reminderTextTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse text template: %w", err)
	}
	html, err := engine.ParseString(reminderHTMLTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse html template: %w", err)
	}

	return &ReminderTemplates{subject: subject, text: text, html: html}, nil
}

// RenderReminder builds the outbound message for the Nth resend of a record.
func (t *ReminderTemplates) RenderReminder(rec *domain.EmailSendRecord, resendNumber int) (*domain.EmailMessage, error) {
	kind, _ := rec.DocumentRef()
	documentKind := "お見積書"
	if kind == "invoice" {
		documentKind = "ご請求書"
	}

	bindings := liquid.Bindings{
		"recipient":     recipientName(rec.RecipientEmail),
		"subject":       rec.Subject,
		"resend_number": resendNumber,
		"document_kind": documentKind,
		"sent_date":     rec.SentAt,
	}

	subject, err := t.subject.RenderString(bindings)
	if err != nil {
		return nil, fmt.Errorf("render subject: %w", err)
	}
	textBody, err := t.text.RenderString(bindings)
	if err != nil {
		return nil, fmt.Errorf("render text body: %w", err)
	}
	htmlBody, err := t.html.RenderString(bindings)
	if err != nil {
		return nil, fmt.Errorf("render html body: %w", err)
	}

	return &domain.EmailMessage{
		To:       rec.RecipientEmail,
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	}, nil
}

// recipientName derives a salutation from the address local part. Send
// records do not carry the customer name; the original message did.
func recipientName(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
