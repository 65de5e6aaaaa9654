// Package sms sends text messages through a bulk SMS gateway.
package sms

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/neurofit/internal/config"
	"github.com/jon4hz/neurofit/internal/notify"
)

// Message is the payload understood by the gateway.
type Message struct {
	Message string   `json:"message"`
	Numbers []string `json:"numbers"`
}

// Client posts messages to the SMS gateway.
type Client struct {
	url        string
	apiKey     string
	keyHeader  string
	httpClient *http.Client
}

// NewClient creates a new SMS gateway client.
func NewClient(cfg *config.SMSConfig) *Client {
	header := cfg.APIKeyHeader
	if header == "" {
		header = "authorization"
	}
	return &Client{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		keyHeader:  header,
		httpClient: notify.NewHTTPClient(),
	}
}

// SendSMS delivers message to a single phone number.
func (c *Client) SendSMS(ctx context.Context, phone, message string) error {
	msg := Message{
		Message: message,
		Numbers: []string{phone},
	}
	headers := map[string]string{
		c.keyHeader: c.apiKey,
	}
	if err := notify.PostJSON(ctx, c.httpClient, "sms gateway", c.url, headers, msg); err != nil {
		return err
	}

	log.Debug("Sent sms", "to", phone)
	return nil
}
