package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmehdipour/ux-autorater/internal/config"
	"github.com/jmehdipour/ux-autorater/internal/model"
	"github.com/wneessen/go-mail"
)

const smtpsPort = 465

// SMTPMailer sends mail over an authenticated SMTP session (STARTTLS, or implicit
// TLS on port 465).
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	timeout  time.Duration
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	username := cfg.Username
	if username == "" {
		username = cfg.From
	}
	port := cfg.Port
	if port <= 0 {
		port = 587
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SMTPMailer{
		host:     strings.TrimSpace(cfg.Host),
		port:     port,
		username: username,
		password: cfg.Password,
		timeout:  timeout,
	}
}

// Ready fails when the session could not authenticate, before any dial.
func (s *SMTPMailer) Ready() error {
	switch {
	case s.host == "":
		return model.ConfigurationError("mail.ready", errors.New("smtp host not set"))
	case s.username == "":
		return model.ConfigurationError("mail.ready", errors.New("smtp username not set"))
	case s.password == "":
		return model.ConfigurationError("mail.ready", errors.New("smtp password not set"))
	}
	return nil
}

func (s *SMTPMailer) Send(ctx context.Context, e model.Email) error {
	msg, err := buildMessage(e)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(s.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.username),
		mail.WithPassword(s.password),
		mail.WithTimeout(s.timeout),
	}
	if s.port == smtpsPort {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func buildMessage(e model.Email) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(e.From); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(e.To); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	msg.Subject(e.Subject)
	msg.SetBodyString(mail.TypeTextPlain, e.Body)

	for _, a := range e.Attachments {
		if err := msg.AttachReader(a.Name, bytes.NewReader(a.Data),
			mail.WithFileContentType(mail.ContentType(a.ContentType))); err != nil {
			return nil, fmt.Errorf("attach %s: %w", a.Name, err)
		}
	}
	return msg, nil
}
