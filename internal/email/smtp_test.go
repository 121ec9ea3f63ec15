package email

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestService() *SMTPService {
	return NewSMTPService(SMTPConfig{
		Host:     "localhost",
		Port:     1025,
		From:     "reports@safesight.app",
		FromName: "SafeSight Reports",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBuildMessage_Headers(t *testing.T) {
	s := newTestService()

	raw := string(s.buildMessage(Message{
		To:       "admin@example.com",
		Subject:  "Inspection report ready",
		TextBody: "Your report is attached.",
	}))

	assert.Contains(t, raw, "From: SafeSight Reports <reports@safesight.app>\r\n")
	assert.Contains(t, raw, "To: admin@example.com\r\n")
	assert.Contains(t, raw, "Subject: Inspection report ready\r\n")
	assert.Contains(t, raw, "MIME-Version: 1.0\r\n")
	assert.Contains(t, raw, "Content-Type: multipart/mixed")
	assert.Contains(t, raw, "Your report is attached.")
}

func TestBuildMessage_Attachment(t *testing.T) {
	s := newTestService()

	raw := string(s.buildMessage(Message{
		To:       "admin@example.com",
		Subject:  "Report",
		TextBody: "See attached.",
		Attachments: []Attachment{
			{
				Filename:    "report.pdf",
				ContentType: "application/pdf",
				Data:        []byte("%PDF-1.4 fake"),
			},
		},
	}))

	assert.Contains(t, raw, `Content-Type: application/pdf; name="report.pdf"`)
	assert.Contains(t, raw, "Content-Transfer-Encoding: base64")
	assert.Contains(t, raw, `Content-Disposition: attachment; filename="report.pdf"`)
	// Base64 of "%PDF" prefix.
	assert.Contains(t, raw, "JVBERi0xLjQgZmFrZQ==")
}

func TestBuildMessage_Base64LineWrapping(t *testing.T) {
	s := newTestService()

	raw := string(s.buildMessage(Message{
		To:      "admin@example.com",
		Subject: "Report",
		Attachments: []Attachment{
			{Filename: "big.bin", Data: make([]byte, 600)},
		},
	}))

	for _, line := range strings.Split(raw, "\r\n") {
		assert.LessOrEqual(t, len(line), 100, "line too long: %q", line)
	}
}

func TestNewSMTPService_Defaults(t *testing.T) {
	s := NewSMTPService(SMTPConfig{Host: "localhost", Port: 1025},
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, DefaultFromEmail, s.config.From)
	assert.Equal(t, DefaultFromName, s.config.FromName)
}
