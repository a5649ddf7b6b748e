// Package mailer delivers outbound mail through AWS SES and renders the
// resend reminder templates.
package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	appconfig "github.com/effectmoe/ai-accounting-system-sub019/internal/config"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/domain"
	"github.com/effectmoe/ai-accounting-system-sub019/internal/pkg/logger"
)

// SESSender sends emails via AWS SES using the SDK v2.
type SESSender struct {
	client   *sesv2.Client
	fromName string
	from     string
	replyTo  string
}

// NewSESSender creates an SES sender from config. Returns an error if
// credentials are missing or the AWS config cannot be assembled.
func NewSESSender(ctx context.Context, cfg appconfig.SESConfig) (*SESSender, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("SES credentials not configured")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &SESSender{
		client:   sesv2.NewFromConfig(awsCfg),
		fromName: cfg.FromName,
		from:     cfg.FromEmail,
		replyTo:  cfg.ReplyTo,
	}, nil
}

// Send delivers a single email through AWS SES. Provider rejections are
// returned as an unsuccessful SendResult, not an error, so batch callers can
// count them without unwrapping.
func (s *SESSender) Send(ctx context.Context, msg *domain.EmailMessage) (*domain.SendResult, error) {
	from := msg.From
	if from == "" {
		from = s.from
	}
	fromName := msg.FromName
	if fromName == "" {
		fromName = s.fromName
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", fromName, from)),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTMLBody), Charset: aws.String("UTF-8")},
				},
			},
		},
	}
	if msg.TextBody != "" {
		input.Content.Simple.Body.Text = &types.Content{Data: aws.String(msg.TextBody), Charset: aws.String("UTF-8")}
	}
	replyTo := msg.ReplyTo
	if replyTo == "" {
		replyTo = s.replyTo
	}
	if replyTo != "" {
		input.ReplyToAddresses = []string{replyTo}
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		logger.Error("SES send failed", "recipient", msg.To, "error", err)
		return &domain.SendResult{Success: false, Error: err.Error(), SentAt: time.Now()}, nil
	}

	messageID := ""
	if result.MessageId != nil {
		messageID = *result.MessageId
	}
	logger.Info("SES sent", "recipient", msg.To, "message_id", messageID)

	return &domain.SendResult{
		Success:   true,
		MessageID: messageID,
		SentAt:    time.Now(),
	}, nil
}
