package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"flockmanager/internal/domain"
)

// SESConfig holds configuration for AWS SES.
type SESConfig struct {
	Region             string
	AccessKeyID        string
	SecretAccessKey    string
	InsecureSkipVerify bool
}

// MailerConfig holds configuration for creating a mailer.
type MailerConfig struct {
	// Provider is a comma separated list of "ses", "smtp" and "noop", tried in
	// order until one delivers.
	Provider    string
	FromAddress string
	FromName    string
	SES         SESConfig
	SMTP        SMTPConfig
}

// NewMailer creates a mailer from config. Every configured transport is tried
// in order and a log-only mailer always terminates the chain, so a message is
// never silently lost.
func NewMailer(config MailerConfig, logger *slog.Logger) (domain.Mailer, error) {
	var chain []namedMailer
	for _, name := range strings.Split(config.Provider, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		switch name {
		case "ses":
			if config.SES.Region == "" {
				return nil, errors.New("email provider ses requires AWS_REGION")
			}
			chain = append(chain, namedMailer{name: name, mailer: newSESMailer(config, logger)})
		case "smtp":
			if config.SMTP.Host == "" {
				return nil, errors.New("email provider smtp requires SMTP_HOST")
			}
			chain = append(chain, namedMailer{name: name, mailer: newSMTPMailer(config.SMTP, config.FromAddress, config.FromName)})
		case "", "noop", "log":
		default:
			logger.Warn("unknown email provider, ignoring", "provider", name)
		}
	}
	chain = append(chain, namedMailer{name: "log", mailer: &logMailer{logger: logger}})
	if len(chain) == 1 {
		return chain[0].mailer, nil
	}
	return &fallbackMailer{chain: chain, logger: logger}, nil
}

func newSESMailer(config MailerConfig, logger *slog.Logger) *sesMailer {
	sesConfig := config.SES
	if sesConfig.InsecureSkipVerify {
		logger.Warn("TLS certificate verification is disabled for SES. Use only in development.")
	}
	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: sesConfig.InsecureSkipVerify,
				MinVersion:         tls.VersionTLS12,
			},
		},
	}
	awsCfg := aws.Config{
		Region:     sesConfig.Region,
		HTTPClient: httpClient,
	}
	if sesConfig.AccessKeyID != "" {
		awsCfg.Credentials = aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(
				sesConfig.AccessKeyID,
				sesConfig.SecretAccessKey,
				"",
			),
		)
	}
	return &sesMailer{
		client:      ses.NewFromConfig(awsCfg),
		fromAddress: config.FromAddress,
		fromName:    config.FromName,
		logger:      logger,
	}
}

type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type sesMailer struct {
	client      sesAPI
	fromAddress string
	fromName    string
	logger      *slog.Logger
}

func (s *sesMailer) Send(ctx context.Context, to, subject, html, text string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(formatAddress(s.fromName, s.fromAddress)),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{},
		},
	}
	if html != "" {
		input.Message.Body.Html = &types.Content{
			Data:    aws.String(html),
			Charset: aws.String("UTF-8"),
		}
	}
	if text != "" {
		input.Message.Body.Text = &types.Content{
			Data:    aws.String(text),
			Charset: aws.String("UTF-8"),
		}
	}
	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email via SES: %w", err)
	}
	s.logger.DebugContext(ctx, "email sent via SES", "message_id", aws.ToString(result.MessageId))
	return nil
}

// logMailer writes the message to the log instead of delivering it. It is the
// last link of every chain and the whole chain when nothing is configured.
type logMailer struct {
	logger *slog.Logger
}

func (l *logMailer) Send(ctx context.Context, to, subject, html, text string) error {
	l.logger.InfoContext(ctx, "email not delivered, logging instead", "to", to, "subject", subject, "body", text)
	return nil
}

func formatAddress(name, address string) string {
	if name == "" {
		return address
	}
	return fmt.Sprintf("%s <%s>", name, address)
}
