// Package mailer renders email templates and delivers them over SMTP. It is
// used by the queue consumer binary, never by the API process directly.
package mailer

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"

	gomail "gopkg.in/gomail.v2"

	"github.com/toshahriar/documenter/internal/config"
	"github.com/toshahriar/documenter/internal/queue"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names accepted in queue.EmailMessage.Template.
const (
	TemplateAccountVerification = "account-verification"
	TemplateWelcome             = "welcome"
	TemplatePasswordReset       = "password-reset"
)

var ErrUnknownTemplate = errors.New("mailer: unknown template")

// Mailer sends rendered messages through a single SMTP dialer. Templates are
// parsed once at construction.
type Mailer struct {
	cfg    config.MailerConfig
	dialer *gomail.Dialer
	tmpl   *template.Template
}

func New(cfg config.MailerConfig) (*Mailer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("mailer: parse templates: %w", err)
	}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.Secure
	return &Mailer{cfg: cfg, dialer: d, tmpl: tmpl}, nil
}

// Render produces the HTML body for the named template.
func (m *Mailer) Render(name string, ctx map[string]any) (string, error) {
	file := name + ".html"
	if m.tmpl.Lookup(file) == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	var sb strings.Builder
	if err := m.tmpl.ExecuteTemplate(&sb, file, ctx); err != nil {
		return "", fmt.Errorf("mailer: render %s: %w", name, err)
	}
	return sb.String(), nil
}

// Send renders and delivers one queued message. A missing From falls back to
// the configured sender address.
func (m *Mailer) Send(msg queue.EmailMessage) error {
	html, err := m.Render(msg.Template, msg.Context)
	if err != nil {
		return err
	}

	from := msg.From
	if from == "" {
		from = m.cfg.From
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", html)
	for _, path := range msg.Attachments {
		gm.Attach(path)
	}

	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", msg.To, err)
	}
	return nil
}
