package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/neurofit/internal/config"
	"github.com/jon4hz/neurofit/internal/notify"
	mail "github.com/xhit/go-simple-mail/v2"
)

const defaultTimeout = 10 * time.Second

// Service sends plain text emails over SMTP.
type Service struct {
	config *config.EmailConfig
}

// New creates a new SMTP email service.
func New(cfg *config.EmailConfig) *Service {
	return &Service{
		config: cfg,
	}
}

// SendEmail sends a plain text email. The context deadline, if any, bounds connect and send.
func (s *Service) SendEmail(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", notify.ErrConnection, err)
	}

	server := s.newServer(timeoutFromContext(ctx))

	smtpClient, err := server.Connect()
	if err != nil {
		return fmt.Errorf("%w: failed to connect to SMTP server: %w", notify.ErrConnection, err)
	}
	defer func() {
		if closeErr := smtpClient.Close(); closeErr != nil {
			log.Warn("Failed to close SMTP client", "error", closeErr)
		}
	}()

	email := mail.NewMSG()

	fromName := s.config.FromName
	if fromName == "" {
		fromName = "NeuroFit"
	}
	email.SetFrom(fmt.Sprintf("%s <%s>", fromName, s.config.FromEmail))
	email.AddTo(to)
	email.SetSubject(subject)
	email.SetBody(mail.TextPlain, body)

	if email.Error != nil {
		return fmt.Errorf("failed to build email: %w", email.Error)
	}

	if err := email.Send(smtpClient); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Info("Email sent", "to", to, "subject", subject)
	return nil
}

func (s *Service) newServer(timeout time.Duration) *mail.SMTPServer {
	server := mail.NewSMTPClient()
	server.Host = s.config.SMTPHost
	server.Port = s.config.SMTPPort
	server.Username = s.config.Username
	server.Password = s.config.Password

	if s.config.UseSSL {
		server.Encryption = mail.EncryptionSSLTLS
	} else if s.config.UseTLS {
		server.Encryption = mail.EncryptionSTARTTLS
	} else {
		server.Encryption = mail.EncryptionNone
	}

	if s.config.InsecureSkipVerify {
		server.TLSConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	server.KeepAlive = false
	server.ConnectTimeout = timeout
	server.SendTimeout = timeout
	return server
}

func timeoutFromContext(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return defaultTimeout
	}
	if remaining := time.Until(deadline); remaining > 0 {
		return remaining
	}
	return time.Millisecond
}
