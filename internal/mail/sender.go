package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/ltran/procurement/internal/model"
)

// OutboundEmail is one message handed to the transport.
type OutboundEmail struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Sender delivers messages over SMTP. Every send gets its own bounded
// connection so one hanging transport call cannot stall a dispatch
// indefinitely.
type Sender struct {
	cfg model.SMTPConfig
}

// NewSender builds a sender from configuration.
func NewSender(cfg model.SMTPConfig) *Sender {
	return &Sender{cfg: cfg}
}

// From returns the address invitations are sent from.
func (s *Sender) From() string {
	if s.cfg.FromAddress != "" {
		return s.cfg.FromAddress
	}
	return s.cfg.Username
}

// Send composes and delivers a single message, honoring the earlier of
// the configured send timeout and the context deadline.
func (s *Sender) Send(ctx context.Context, msg OutboundEmail) error {
	timeout := time.Duration(s.cfg.SendTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	body, err := composeMessage(s.From(), msg)
	if err != nil {
		return fmt.Errorf("composing message: %w", err)
	}

	addr := s.cfg.Host + ":" + s.cfg.Port
	if s.cfg.TLS {
		return s.sendWithTLS(addr, deadline, msg.To, body)
	}
	return s.sendWithStartTLS(addr, deadline, msg.To, body)
}

// sendWithTLS sends over an implicit TLS connection.
func (s *Sender) sendWithTLS(addr string, deadline time.Time, to, body string) error {
	dialer := &net.Dialer{Deadline: deadline}
	tlsConfig := &tls.Config{ServerName: s.cfg.Host}

	conn, err := tls.DialWithDialer(dialer, "tcp", addr, tlsConfig)
	if err != nil {
		return fmt.Errorf("TLS dial to %s: %w", addr, err)
	}
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP auth: %w", err)
	}

	return sendMailViaSMTPClient(client, s.From(), to, body)
}

// sendWithStartTLS sends using STARTTLS.
func (s *Sender) sendWithStartTLS(addr string, deadline time.Time, to, body string) error {
	conn, err := net.DialTimeout("tcp", addr, time.Until(deadline))
	if err != nil {
		return fmt.Errorf("dial to %s: %w", addr, err)
	}
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	tlsConfig := &tls.Config{ServerName: s.cfg.Host}
	if err := client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("SMTP STARTTLS: %w", err)
	}

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP auth: %w", err)
	}

	return sendMailViaSMTPClient(client, s.From(), to, body)
}

// sendMailViaSMTPClient sends a message using an already-authenticated
// SMTP client.
func sendMailViaSMTPClient(client *smtp.Client, from, to, body string) error {
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("SMTP MAIL FROM: %w", err)
	}

	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("SMTP RCPT TO: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA: %w", err)
	}

	if _, err := writer.Write([]byte(body)); err != nil {
		return fmt.Errorf("writing email body: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing email body: %w", err)
	}

	return client.Quit()
}

// composeMessage builds a multipart/alternative message carrying both
// the plain-text and HTML renderings.
func composeMessage(from string, msg OutboundEmail) (string, error) {
	var buf strings.Builder
	mp := multipart.NewWriter(&buf)

	var headers strings.Builder
	headers.WriteString(fmt.Sprintf("From: %s\r\n", from))
	headers.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	headers.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	headers.WriteString("MIME-Version: 1.0\r\n")
	headers.WriteString(fmt.Sprintf(
		"Content-Type: multipart/alternative; boundary=%q\r\n", mp.Boundary(),
	))
	headers.WriteString("\r\n")

	textHeader := textproto.MIMEHeader{}
	textHeader.Set("Content-Type", "text/plain; charset=UTF-8")
	part, err := mp.CreatePart(textHeader)
	if err != nil {
		return "", fmt.Errorf("creating text part: %w", err)
	}
	if _, err := part.Write([]byte(msg.TextBody)); err != nil {
		return "", fmt.Errorf("writing text part: %w", err)
	}

	htmlHeader := textproto.MIMEHeader{}
	htmlHeader.Set("Content-Type", "text/html; charset=UTF-8")
	part, err = mp.CreatePart(htmlHeader)
	if err != nil {
		return "", fmt.Errorf("creating html part: %w", err)
	}
	if _, err := part.Write([]byte(msg.HTMLBody)); err != nil {
		return "", fmt.Errorf("writing html part: %w", err)
	}

	if err := mp.Close(); err != nil {
		return "", fmt.Errorf("closing multipart body: %w", err)
	}

	return headers.String() + buf.String(), nil
}
