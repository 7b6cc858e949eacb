// Package smtp provides an SMTP transport driver.
package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	netsmtp "net/smtp"
	"strconv"
	"strings"

	"github.com/dmitrymomot/courier"
)

// Config holds SMTP transport settings.
type Config struct {
	Host          string
	Username      string
	Password      string
	From          string // defaults to Username when empty
	Port          int
	UseEncryption bool // require STARTTLS before authenticating or sending
}

// Driver delivers payloads as email over SMTP.
type Driver struct {
	config Config
}

// New creates an SMTP driver.
func New(cfg Config) *Driver {
	return &Driver{config: cfg}
}

// Factory builds the driver from configuration.
// Required: host, port. Optional: username, password, from,
// use_encryption.
func Factory(cfg courier.DriverConfig) (courier.Driver, error) {
	if err := cfg.Require("host", "port"); err != nil {
		return nil, err
	}
	port, ok := cfg.Int("port")
	if !ok || port <= 0 {
		return nil, fmt.Errorf("%w: %q", courier.ErrMissingConfig, "port")
	}

	host, _ := cfg.String("host")
	username, _ := cfg.String("username")
	password, _ := cfg.String("password")
	from, _ := cfg.String("from")
	useEncryption, _ := cfg.Bool("use_encryption")

	return New(Config{
		Host:          host,
		Port:          port,
		Username:      username,
		Password:      password,
		From:          from,
		UseEncryption: useEncryption,
	}), nil
}

// Execute sends the payload as an email to the destination address.
// The dial honors ctx, so a bounded dispatch timeout cuts off a
// hanging server.
func (d *Driver) Execute(ctx context.Context, p *courier.Payload) (*courier.Result, error) {
	addr := net.JoinHostPort(d.config.Host, strconv.Itoa(d.config.Port))

	from := d.config.From
	if from == "" {
		from = d.config.Username
	}

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("smtp: dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := netsmtp.NewClient(conn, d.config.Host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("smtp: handshake: %w", err)
	}
	defer client.Close()

	if d.config.UseEncryption {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			return nil, fmt.Errorf("smtp: server does not support STARTTLS")
		}
		if err := client.StartTLS(&tls.Config{ServerName: d.config.Host}); err != nil {
			return nil, fmt.Errorf("smtp: starttls: %w", err)
		}
	}

	if d.config.Username != "" {
		auth := netsmtp.PlainAuth("", d.config.Username, d.config.Password, d.config.Host)
		if err := client.Auth(auth); err != nil {
			return nil, fmt.Errorf("smtp: auth: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return nil, fmt.Errorf("smtp: mail from: %w", err)
	}
	if err := client.Rcpt(p.Destination); err != nil {
		return nil, fmt.Errorf("smtp: rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return nil, fmt.Errorf("smtp: data: %w", err)
	}
	if _, err := w.Write(buildMessage(from, p)); err != nil {
		w.Close()
		return nil, fmt.Errorf("smtp: write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("smtp: close message: %w", err)
	}

	if err := client.Quit(); err != nil {
		return nil, fmt.Errorf("smtp: quit: %w", err)
	}

	return &courier.Result{
		Status:    courier.StatusSuccess,
		Reference: "smtp://" + p.Destination,
	}, nil
}

// buildMessage assembles an RFC 5322 message for the payload.
func buildMessage(from string, p *courier.Payload) []byte {
	contentType := p.ContentType
	if contentType == "" {
		contentType = `text/plain; charset="UTF-8"`
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", p.Destination)
	if p.Subject != "" {
		fmt.Fprintf(&b, "Subject: %s\r\n", p.Subject)
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: %s\r\n", contentType)
	b.WriteString("\r\n")
	b.Write(p.Body)

	return []byte(b.String())
}

var _ courier.Driver = (*Driver)(nil)
