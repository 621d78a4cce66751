package email

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingMailer struct {
	err   error
	calls int
	to    string
}

func (m *recordingMailer) Send(_ context.Context, to, _, _, _ string) error {
	m.calls++
	m.to = to
	return m.err
}

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestNewMailer(t *testing.T) {
	tests := []struct {
		name    string
		cfg     MailerConfig
		wantLen int
		wantErr bool
		wantLog bool
	}{
		{name: "empty falls back to log", cfg: MailerConfig{}, wantLog: true},
		{name: "noop", cfg: MailerConfig{Provider: "noop"}, wantLog: true},
		{name: "ses then smtp", cfg: MailerConfig{
			Provider: "ses, smtp",
			SES:      SESConfig{Region: "us-east-1"},
			SMTP:     SMTPConfig{Host: "smtp.example.com"},
		}, wantLen: 3},
		{name: "ses without region", cfg: MailerConfig{Provider: "ses"}, wantErr: true},
		{name: "smtp without host", cfg: MailerConfig{Provider: "smtp"}, wantErr: true},
		{name: "unknown ignored", cfg: MailerConfig{Provider: "sendgrid"}, wantLog: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMailer(tt.cfg, discardLogger())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantLog {
				assert.IsType(t, &logMailer{}, m)
				return
			}
			fb, ok := m.(*fallbackMailer)
			require.True(t, ok)
			assert.Len(t, fb.chain, tt.wantLen)
			assert.Equal(t, "log", fb.chain[len(fb.chain)-1].name)
		})
	}
}

func TestFallbackMailer_firstSuccessWins(t *testing.T) {
	broken := &recordingMailer{err: errors.New("throttled")}
	working := &recordingMailer{}
	never := &recordingMailer{}
	f := &fallbackMailer{logger: discardLogger(), chain: []namedMailer{
		{name: "ses", mailer: broken},
		{name: "smtp", mailer: working},
		{name: "log", mailer: never},
	}}

	require.NoError(t, f.Send(context.Background(), "a@b.com", "s", "<p>h</p>", "t"))
	assert.Equal(t, 1, broken.calls)
	assert.Equal(t, 1, working.calls)
	assert.Equal(t, 0, never.calls)
}

func TestFallbackMailer_allFail(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")
	f := &fallbackMailer{logger: discardLogger(), chain: []namedMailer{
		{name: "ses", mailer: &recordingMailer{err: first}},
		{name: "smtp", mailer: &recordingMailer{err: second}},
	}}
	err := f.Send(context.Background(), "a@b.com", "s", "", "t")
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
}

func TestFallbackMailer_stopsOnCancelledContext(t *testing.T) {
	m := &recordingMailer{}
	f := &fallbackMailer{logger: discardLogger(), chain: []namedMailer{{name: "smtp", mailer: m}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, f.Send(ctx, "a@b.com", "s", "", "t"), context.Canceled)
	assert.Equal(t, 0, m.calls)
}

func TestSESMailer_Send(t *testing.T) {
	api := &fakeSES{}
	m := &sesMailer{client: api, fromAddress: "noreply@example.org", fromName: "UOSW Administration", logger: discardLogger()}

	require.NoError(t, m.Send(context.Background(), "jane@example.com", "Hello", "<p>hi</p>", "hi"))
	require.NotNil(t, api.input)
	assert.Equal(t, "UOSW Administration <noreply@example.org>", aws.ToString(api.input.Source))
	assert.Equal(t, []string{"jane@example.com"}, api.input.Destination.ToAddresses)
	assert.Equal(t, "Hello", aws.ToString(api.input.Message.Subject.Data))
	assert.Equal(t, "<p>hi</p>", aws.ToString(api.input.Message.Body.Html.Data))
	assert.Equal(t, "hi", aws.ToString(api.input.Message.Body.Text.Data))

	api.err = errors.New("MessageRejected")
	assert.Error(t, m.Send(context.Background(), "jane@example.com", "Hello", "", "hi"))
}

func TestSMTPMailer_buildMessage(t *testing.T) {
	m := newSMTPMailer(SMTPConfig{Host: "smtp.example.com"}, "noreply@example.org", "Flock Manager")
	m.now = func() time.Time { return time.Date(2025, 6, 2, 18, 0, 0, 0, time.UTC) }

	raw, err := m.buildMessage("jane@example.com", "Check-in Confirmation - Café", "<p>hi</p>", "hi")
	require.NoError(t, err)

	msg, err := mail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)
	subject, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Check-in Confirmation - Café", subject)
	assert.Equal(t, "jane@example.com", msg.Header.Get("To"))

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/alternative", mediaType)

	mr := multipart.NewReader(msg.Body, params["boundary"])
	var types []string
	for {
		p, err := mr.NextPart()
		if err != nil {
			break
		}
		types = append(types, p.Header.Get("Content-Type"))
	}
	assert.Equal(t, []string{"text/plain; charset=UTF-8", "text/html; charset=UTF-8"}, types)
	assert.Equal(t, 587, m.cfg.Port)
}
