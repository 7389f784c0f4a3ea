// Package msg holds the outbound channels: plain-text email over SMTP and
// wa.me deep links for WhatsApp.
package msg

import (
	"fmt"
	"net/smtp"
	"strings"

	"leadly/config"
)

// sanitizeHeader removes CRLF sequences to prevent header injection attacks
func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

// SMTPClient sends plain-text mail with the settings from config.yml and
// the password from the credentials file.
type SMTPClient struct {
	cfg      config.SMTPConfig
	password string

	// sendMail is swapped out in tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPClient(cfg config.SMTPConfig, password string) *SMTPClient {
	return &SMTPClient{cfg: cfg, password: password, sendMail: smtp.SendMail}
}

// Configured reports whether enough settings exist to send at all.
func (c *SMTPClient) Configured() bool {
	return c.cfg.Host != "" && c.cfg.From != "" && c.password != ""
}

func (c *SMTPClient) Send(to, subject, body string) error {
	if !c.Configured() {
		return fmt.Errorf("smtp not configured")
	}

	port := c.cfg.Port
	if port == 0 {
		port = 587
	}
	addr := fmt.Sprintf("%s:%d", c.cfg.Host, port)

	username := c.cfg.Username
	if username == "" {
		username = c.cfg.From
	}
	auth := smtp.PlainAuth("", username, c.password, c.cfg.Host)

	// Sanitize headers to prevent CRLF injection
	to = sanitizeHeader(to)
	subject = sanitizeHeader(subject)

	msg := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/plain; charset=\"utf-8\"\r\n"+
		"\r\n"+
		"%s", c.cfg.From, to, subject, body)

	return c.sendMail(addr, auth, c.cfg.From, []string{to}, []byte(msg))
}
