package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/smtp"
)

// SMTPService sends email via SMTP.
type SMTPService struct {
	config SMTPConfig
	logger *slog.Logger
}

// NewSMTPService creates an SMTP-backed email service.
func NewSMTPService(config SMTPConfig, logger *slog.Logger) *SMTPService {
	if config.From == "" {
		config.From = DefaultFromEmail
	}
	if config.FromName == "" {
		config.FromName = DefaultFromName
	}

	return &SMTPService{
		config: config,
		logger: logger,
	}
}

// Send delivers one message via SMTP.
func (s *SMTPService) Send(ctx context.Context, msg Message) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	raw := s.buildMessage(msg)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	// Auth is optional so Mailhog works without credentials.
	var auth smtp.Auth
	if s.config.Username != "" && s.config.Password != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	if err := smtp.SendMail(addr, auth, s.config.From, []string{msg.To}, raw); err != nil {
		s.logger.Error("failed to send email",
			"to", msg.To,
			"subject", msg.Subject,
			"error", err,
		)
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info("email sent",
		"to", msg.To,
		"subject", msg.Subject,
		"attachments", len(msg.Attachments),
	)

	return nil
}

const (
	mixedBoundary = "===============SAFESIGHT_MIXED==============="
	altBoundary   = "===============SAFESIGHT_ALT==============="
)

// buildMessage constructs the raw RFC 2822 message. The body is
// multipart/mixed wrapping a multipart/alternative text+html pair followed by
// base64-encoded attachments.
func (s *SMTPService) buildMessage(msg Message) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("From: %s <%s>\r\n", s.config.FromName, s.config.From))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q\r\n", mixedBoundary))
	buf.WriteString("\r\n")

	// Body: text and html alternatives
	buf.WriteString(fmt.Sprintf("--%s\r\n", mixedBoundary))
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n", altBoundary))
	buf.WriteString("\r\n")

	if msg.TextBody != "" {
		buf.WriteString(fmt.Sprintf("--%s\r\n", altBoundary))
		buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
		buf.WriteString("\r\n")
		buf.WriteString(msg.TextBody)
		buf.WriteString("\r\n")
	}

	if msg.HTMLBody != "" {
		buf.WriteString(fmt.Sprintf("--%s\r\n", altBoundary))
		buf.WriteString("Content-Type: text/html; charset=utf-8\r\n")
		buf.WriteString("\r\n")
		buf.WriteString(msg.HTMLBody)
		buf.WriteString("\r\n")
	}

	buf.WriteString(fmt.Sprintf("--%s--\r\n", altBoundary))

	// Attachments
	for _, att := range msg.Attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		buf.WriteString(fmt.Sprintf("--%s\r\n", mixedBoundary))
		buf.WriteString(fmt.Sprintf("Content-Type: %s; name=%q\r\n", contentType, att.Filename))
		buf.WriteString("Content-Transfer-Encoding: base64\r\n")
		buf.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=%q\r\n", att.Filename))
		buf.WriteString("\r\n")

		encoded := base64.StdEncoding.EncodeToString(att.Data)
		// Wrap base64 at 76 characters per RFC 2045.
		for len(encoded) > 76 {
			buf.WriteString(encoded[:76])
			buf.WriteString("\r\n")
			encoded = encoded[76:]
		}
		buf.WriteString(encoded)
		buf.WriteString("\r\n")
	}

	buf.WriteString(fmt.Sprintf("--%s--\r\n", mixedBoundary))

	return buf.Bytes()
}

var _ Service = (*SMTPService)(nil)
