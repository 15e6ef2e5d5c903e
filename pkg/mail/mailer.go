// Package mail sends transactional email over SMTP, with the body rendered
// from a text template loaded at startup.
package mail

import (
	"bytes"
	"fmt"
	"net/smtp"
	"os"
	"strings"
	"text/template"

	"github.com/rs/zerolog"
)

// Config holds configuration for the mailer.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string

	// FromName and FromEmail form the sender identity.
	FromName  string
	FromEmail string

	// TemplatePath is the body template file (required). Parsed once at
	// construction; a bad template is a startup failure.
	TemplatePath string

	Logger zerolog.Logger
}

// Party is one side of a message.
type Party struct {
	FirstName string
	Email     string
}

// templateData is what the body template renders against.
type templateData struct {
	From    Party
	To      Party
	Message string
}

// Mailer sends email via SMTP.
type Mailer struct {
	config   Config
	template *template.Template
	logger   zerolog.Logger
}

// NewMailer creates a mailer and parses the body template.
func NewMailer(config Config) (*Mailer, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("mail: SMTP host is required")
	}
	if config.FromEmail == "" {
		return nil, fmt.Errorf("mail: from email is required")
	}
	raw, err := os.ReadFile(config.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("mail: read template: %w", err)
	}
	tmpl, err := template.New("body").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("mail: parse template: %w", err)
	}
	return &Mailer{config: config, template: tmpl, logger: config.Logger}, nil
}

// Send renders the template around message and delivers it to the recipient.
func (m *Mailer) Send(toName, toEmail, subject, message string) error {
	body, err := m.renderBody(toName, toEmail, message)
	if err != nil {
		return err
	}

	msg := buildMessage(
		formatAddress(m.config.FromName, m.config.FromEmail),
		formatAddress(toName, toEmail),
		subject,
		body,
	)

	var auth smtp.Auth
	if m.config.Username != "" && m.config.Password != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}

	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)
	if err := smtp.SendMail(addr, auth, m.config.FromEmail, []string{toEmail}, msg); err != nil {
		return fmt.Errorf("mail: send to %s: %w", toEmail, err)
	}
	m.logger.Debug().Str("to", toEmail).Str("subject", subject).Msg("email sent")
	return nil
}

func (m *Mailer) renderBody(toName, toEmail, message string) (string, error) {
	data := templateData{
		From: Party{
			FirstName: firstName(m.config.FromName),
			Email:     m.config.FromEmail,
		},
		To: Party{
			FirstName: firstName(toName),
			Email:     toEmail,
		},
		Message: message,
	}
	var buf bytes.Buffer
	if err := m.template.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("mail: render template: %w", err)
	}
	return buf.String(), nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func formatAddress(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

func firstName(name string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(name), " ")
	return first
}
