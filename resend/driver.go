// Package resend provides a transport driver backed by the Resend
// email API.
package resend

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"

	"github.com/dmitrymomot/courier"
)

// Config holds Resend API settings.
type Config struct {
	APIKey      string
	SenderEmail string
	SenderName  string
}

// Driver delivers payloads through the Resend API.
type Driver struct {
	client *resend.Client
	config Config
}

// New creates a Resend driver.
func New(cfg Config) *Driver {
	return &Driver{
		client: resend.NewClient(cfg.APIKey),
		config: cfg,
	}
}

// Factory builds the driver from configuration.
// Required: api_key. Optional: sender_email, sender_name.
func Factory(cfg courier.DriverConfig) (courier.Driver, error) {
	if err := cfg.Require("api_key"); err != nil {
		return nil, err
	}

	apiKey, _ := cfg.String("api_key")
	senderEmail, _ := cfg.String("sender_email")
	senderName, _ := cfg.String("sender_name")

	return New(Config{
		APIKey:      apiKey,
		SenderEmail: senderEmail,
		SenderName:  senderName,
	}), nil
}

// Execute sends the payload as an email via the Resend API.
func (d *Driver) Execute(ctx context.Context, p *courier.Payload) (*courier.Result, error) {
	req := &resend.SendEmailRequest{
		From:    senderAddress(d.config),
		To:      []string{p.Destination},
		Subject: p.Subject,
		Html:    string(p.Body),
	}

	sent, err := d.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("resend: send email: %w", err)
	}

	return &courier.Result{
		Status:    courier.StatusSuccess,
		Reference: sent.Id,
	}, nil
}

// senderAddress formats the configured sender as an RFC 5322 address.
func senderAddress(cfg Config) string {
	if cfg.SenderName != "" {
		return fmt.Sprintf("%s <%s>", cfg.SenderName, cfg.SenderEmail)
	}
	return cfg.SenderEmail
}

var _ courier.Driver = (*Driver)(nil)
