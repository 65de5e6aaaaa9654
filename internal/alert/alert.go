package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jon4hz/neurofit/internal/config"
	"github.com/jon4hz/neurofit/internal/notify/email"
	"github.com/jon4hz/neurofit/internal/notify/relay"
	"github.com/jon4hz/neurofit/internal/notify/sms"
	"golang.org/x/sync/errgroup"
)

// Subject is the subject of every alert email.
const Subject = "NeuroFit Emergency Alert"

const (
	channelEmail = "email"
	channelSMS   = "sms"
)

// Status is the outcome of a single channel.
type Status string

const (
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// EmailSender delivers an email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers a text message to one number.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) error
}

// Trigger is an emergency alert request. Email and Phone are optional recipients.
type Trigger struct {
	Message  string
	Location string
	Email    string
	Phone    string
}

// Sender identifies the user raising the alert.
type Sender struct {
	Username string
	Email    string
}

func (s Sender) String() string {
	return fmt.Sprintf("%s (%s)", s.Username, s.Email)
}

// ChannelResult is the outcome of one channel.
type ChannelResult struct {
	Status     Status      `json:"status"`
	Failure    FailureKind `json:"failure,omitempty"`
	StatusCode int         `json:"statusCode,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Result aggregates the outcomes of all channels.
type Result struct {
	ID    string        `json:"id"`
	Email ChannelResult `json:"emailResult"`
	SMS   ChannelResult `json:"smsResult"`
}

// Summary renders the result as a human readable status line.
// It is empty if no channel was attempted.
func (r Result) Summary() string {
	var parts []string
	switch r.Email.Status {
	case StatusSent:
		parts = append(parts, "Emergency alert email sent.")
	case StatusFailed:
		parts = append(parts, "Failed to send email.")
	}
	switch r.SMS.Status {
	case StatusSent:
		parts = append(parts, "Emergency SMS sent.")
	case StatusFailed:
		parts = append(parts, fmt.Sprintf("Failed to send SMS (%s error).", r.SMS.Failure))
	}
	return strings.Join(parts, " ")
}

// Dispatcher fans an alert out to the email and SMS channels.
type Dispatcher struct {
	email   EmailSender
	sms     SMSSender
	timeout time.Duration
}

// NewDispatcher creates a dispatcher. A nil sender disables its channel.
func NewDispatcher(emailSender EmailSender, smsSender SMSSender, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		email:   emailSender,
		sms:     smsSender,
		timeout: timeout,
	}
}

// New creates a dispatcher with the channels enabled in the config.
func New(cfg *config.AlertConfig) *Dispatcher {
	if cfg == nil {
		cfg = &config.AlertConfig{}
	}

	var emailSender EmailSender
	if cfg.EmailEnabled() {
		switch cfg.Email.Mode {
		case config.EmailModeSMTP:
			emailSender = email.New(cfg.Email)
		default:
			emailSender = relay.NewClient(cfg.Email.RelayURL)
		}
	} else {
		log.Warn("No email transport configured, alert emails will be skipped")
	}

	var smsSender SMSSender
	if cfg.SMSEnabled() {
		smsSender = sms.NewClient(cfg.SMS)
	} else {
		log.Warn("No sms gateway configured, alert text messages will be skipped")
	}

	return NewDispatcher(emailSender, smsSender, cfg.Timeout)
}

// Dispatch delivers the alert through every channel that has a recipient, concurrently.
// A failing channel never affects the other one. Nothing is retried.
func (d *Dispatcher) Dispatch(ctx context.Context, sender Sender, trigger Trigger) Result {
	result := Result{
		ID:    uuid.NewString(),
		Email: ChannelResult{Status: StatusSkipped},
		SMS:   ChannelResult{Status: StatusSkipped},
	}

	to := strings.TrimSpace(trigger.Email)
	phone := strings.TrimSpace(trigger.Phone)
	logger := log.With("alert_id", result.ID, "user", sender.Username)

	var g errgroup.Group
	if to != "" && d.email != nil {
		g.Go(func() error {
			result.Email = d.deliver(ctx, logger, channelEmail, func(ctx context.Context) error {
				return d.email.SendEmail(ctx, to, Subject, EmailBody(sender, trigger))
			})
			return nil
		})
	} else if to != "" {
		logger.Warn("Alert has an email recipient but no email transport is configured")
	}

	if phone != "" && d.sms != nil {
		g.Go(func() error {
			result.SMS = d.deliver(ctx, logger, channelSMS, func(ctx context.Context) error {
				return d.sms.SendSMS(ctx, phone, SMSBody(sender, trigger))
			})
			return nil
		})
	} else if phone != "" {
		logger.Warn("Alert has a phone number but no sms gateway is configured")
	}

	_ = g.Wait()

	logger.Info("Emergency alert dispatched", "email", result.Email.Status, "sms", result.SMS.Status)
	return result
}

func (d *Dispatcher) deliver(ctx context.Context, logger *log.Logger, channel string, send func(context.Context) error) ChannelResult {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if err := send(ctx); err != nil {
		ce := classify(channel, err)
		logger.Error("Alert channel failed", "channel", channel, "kind", ce.Kind, "error", err)
		return ChannelResult{
			Status:     StatusFailed,
			Failure:    ce.Kind,
			StatusCode: ce.StatusCode,
			Error:      err.Error(),
		}
	}
	return ChannelResult{Status: StatusSent}
}

// EmailBody composes the body of the alert email.
func EmailBody(sender Sender, trigger Trigger) string {
	return fmt.Sprintf("%s\nLocation: %s\nUser: %s", trigger.Message, trigger.Location, sender)
}

// SMSBody composes the alert text message.
func SMSBody(sender Sender, trigger Trigger) string {
	return fmt.Sprintf("NeuroFit Emergency: %s\nLocation: %s\nUser: %s", trigger.Message, trigger.Location, sender)
}
