package mailer

import (
	"context"
	"fmt"

	"mentor-booking/pkg/utils"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

type Message struct {
	ToEmail   string
	ToName    string
	Subject   string
	PlainText string
	HTML      string
}

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns a SendGrid sender when an API key is configured and a
// log-only sender otherwise.
func New(cfg utils.MailConfig, log *zap.Logger) Sender {
	if cfg.SendGridAPIKey == "" {
		log.Warn("Mailer in log-only mode, set SENDGRID_API_KEY to deliver email")
		return NewLogSender(log)
	}
	log.Info("Mailer initialized with SendGrid")
	return NewSendGrid(cfg, "", log)
}

type SendGrid struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	log       *zap.Logger
}

// NewSendGrid builds a SendGrid sender. host overrides the API host and is
// empty in production.
func NewSendGrid(cfg utils.MailConfig, host string, log *zap.Logger) *SendGrid {
	request := sendgrid.GetRequest(cfg.SendGridAPIKey, "/v3/mail/send", host)
	request.Method = "POST"

	return &SendGrid{
		client:    &sendgrid.Client{Request: request},
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		log:       log.With(zap.String("mailer", "sendgrid")),
	}
}

func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.PlainText, msg.HTML)

	// SendWithContext stores the body on the client; copy it per message.
	client := *s.client
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		s.log.Error("SendGrid request failed", zap.Error(err), zap.String("to", msg.ToEmail))
		return fmt.Errorf("send email to %s: %w", msg.ToEmail, err)
	}

	if response.StatusCode >= 400 {
		s.log.Error("SendGrid returned error status",
			zap.Int("status", response.StatusCode),
			zap.String("body", response.Body),
			zap.String("to", msg.ToEmail),
		)
		return fmt.Errorf("sendgrid returned status %d", response.StatusCode)
	}

	s.log.Debug("Email sent", zap.String("to", msg.ToEmail), zap.Int("status", response.StatusCode))
	return nil
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log.With(zap.String("mailer", "log"))}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Info("Email not sent (log-only mode)",
		zap.String("to", msg.ToEmail),
		zap.String("to_name", msg.ToName),
		zap.String("subject", msg.Subject),
	)
	return nil
}
