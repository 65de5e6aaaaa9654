// Package relay sends emails through an HTTPS relay that accepts {email, subject, body} JSON.
package relay

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/neurofit/internal/notify"
)

// Message is the payload understood by the relay.
type Message struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Client posts messages to the email relay.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a new relay client.
func NewClient(url string) *Client {
	return &Client{
		url:        url,
		httpClient: notify.NewHTTPClient(),
	}
}

// SendEmail asks the relay to deliver one email.
func (c *Client) SendEmail(ctx context.Context, to, subject, body string) error {
	msg := Message{
		Email:   to,
		Subject: subject,
		Body:    body,
	}
	if err := notify.PostJSON(ctx, c.httpClient, "email relay", c.url, nil, msg); err != nil {
		return err
	}

	log.Debug("Sent email via relay", "to", to, "subject", subject)
	return nil
}
