package infra

import (
	"bytes"
	"fmt"
	"net/smtp"

	"cuchito/internal/config"

	"github.com/jordan-wright/email"
)

// Attachment is an in-memory file sent with an e-mail.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Mailer wraps SMTP configuration for sending emails with PDF attachments.
type Mailer struct {
	host     string
	user     string
	password string
	from     string
	addr     string
}

// NewMailer returns nil when SMTP is not configured.
func NewMailer(cfg *config.Config) *Mailer {
	if cfg.SMTPHost == "" {
		return nil
	}
	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     from,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// SendRecibos sends the order receipts to the customer email.
func (m *Mailer) SendRecibos(to, subject, body string, files []Attachment) error {
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	for _, f := range files {
		if _, err := e.Attach(bytes.NewReader(f.Content), f.Filename, f.ContentType); err != nil {
			return fmt.Errorf("mailer: attach %s: %w", f.Filename, err)
		}
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	return e.Send(m.addr, auth)
}
