// Package email sends transactional email.
//
// The Service interface has one implementation, SMTPService, which works with
// Mailhog in development (no auth) and any authenticated SMTP relay in
// production. Messages can carry binary attachments, used for emailing
// compiled inspection reports.
package email

import "context"

// Service sends email messages.
type Service interface {
	// Send delivers one message. Context is honored for cancellation before
	// the SMTP dial.
	Send(ctx context.Context, msg Message) error
}

// Message is a single outbound email.
type Message struct {
	To          string
	Subject     string
	TextBody    string
	HTMLBody    string
	Attachments []Attachment
}

// Attachment is a file attached to a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Host     string // e.g. "localhost" for Mailhog
	Port     int    // e.g. 1025 for Mailhog
	Username string // empty for Mailhog
	Password string // empty for Mailhog
	From     string
	FromName string
}

const (
	// DefaultFromEmail is the default sender address.
	DefaultFromEmail = "noreply@safesight.app"

	// DefaultFromName is the default sender display name.
	DefaultFromName = "SafeSight"
)
