// Package smtpmail delivers fulfillment emails over SMTP.
package smtpmail

import (
	"context"
	"crypto/tls"
	_ "embed"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/ajayishaq/rromisim/internal/domain/order"
	"github.com/ajayishaq/rromisim/internal/domain/plan"
)

//go:embed fulfillment.html.tmpl
var fulfillmentHTML string

var fulfillmentTmpl = template.Must(template.New("fulfillment").Parse(fulfillmentHTML))

var _ order.Notifier = (*Mailer)(nil)

// Config holds SMTP transport settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is the sender address, e.g. "support@rromisim.com".
	From string
	// FromName is the display name on the From header.
	FromName string
	// Timeout bounds the whole SMTP exchange. Zero means 10s.
	Timeout time.Duration
}

// Mailer sends fulfillment emails with PLAIN auth. Transport failures
// surface as *order.DeliveryError; whether that fails the calling flow is
// the caller's decision.
type Mailer struct {
	cfg Config
}

// New creates a Mailer.
func New(cfg Config) *Mailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Mailer{cfg: cfg}
}

// templateData is passed to the fulfillment template.
type templateData struct {
	Plan     plan.Plan
	Artifact order.Artifact
	Phone    string
}

// SendFulfillment renders and delivers the eSIM email.
func (m *Mailer) SendFulfillment(ctx context.Context, email string, p plan.Plan, art order.Artifact, phone string) error {
	var body strings.Builder
	if err := fulfillmentTmpl.Execute(&body, templateData{Plan: p, Artifact: art, Phone: phone}); err != nil {
		return &order.DeliveryError{Message: fmt.Sprintf("render email: %v", err)}
	}

	subject := fmt.Sprintf("Your eSIM for %s is Ready! - rromiSIM", p.Country)
	msg := buildMessage(m.cfg.From, m.cfg.FromName, email, subject, body.String())

	if err := m.send(ctx, email, msg); err != nil {
		return &order.DeliveryError{Message: err.Error()}
	}
	return nil
}

// buildMessage assembles an RFC 5322 message with an HTML body.
func buildMessage(from, fromName, to, subject, htmlBody string) []byte {
	var b strings.Builder
	if fromName != "" {
		fmt.Fprintf(&b, "From: %s <%s>\r\n", fromName, from)
	} else {
		fmt.Fprintf(&b, "From: %s\r\n", from)
	}
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

// send performs the SMTP exchange with an explicit deadline covering dial
// through QUIT, honoring context cancellation via the deadline.
func (m *Mailer) send(ctx context.Context, to string, msg []byte) error {
	addr := net.JoinHostPort(m.cfg.Host, fmt.Sprintf("%d", m.cfg.Port))

	deadline := time.Now().Add(m.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	conn, err := net.DialTimeout("tcp", addr, time.Until(deadline))
	if err != nil {
		return errors.Wrap(err, "dial smtp")
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return errors.Wrap(err, "set deadline")
	}

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return errors.Wrap(err, "smtp handshake")
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			return errors.Wrap(err, "starttls")
		}
	}
	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := c.Auth(auth); err != nil {
			return errors.Wrap(err, "smtp auth")
		}
	}

	if err := c.Mail(m.cfg.From); err != nil {
		return errors.Wrap(err, "mail from")
	}
	if err := c.Rcpt(to); err != nil {
		return errors.Wrap(err, "rcpt to")
	}
	w, err := c.Data()
	if err != nil {
		return errors.Wrap(err, "data")
	}
	if _, err := w.Write(msg); err != nil {
		return errors.Wrap(err, "write body")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "close body")
	}
	return c.Quit()
}
