package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"parlour/config"
)

// SMTPSender sends mail through an SMTP relay using STARTTLS when offered.
type SMTPSender struct {
	cfg  config.EmailConfig
	auth smtp.Auth
	log  zerolog.Logger
}

// NewSMTPSender validates cfg. Credentials are optional.
func NewSMTPSender(cfg config.EmailConfig, log zerolog.Logger) (*SMTPSender, error) {
	if cfg.SMTPHost == "" {
		return nil, errors.New("smtp sender: SMTP host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("smtp sender: from address is required")
	}
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 587
	}

	var auth smtp.Auth
	if cfg.SMTPUser != "" && cfg.SMTPPassword != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	}

	log.Info().
		Str("smtp_host", cfg.SMTPHost).
		Int("smtp_port", cfg.SMTPPort).
		Str("from", cfg.From).
		Msg("email sender configured")

	return &SMTPSender{cfg: cfg, auth: auth, log: log}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	body, err := buildMessage(s.cfg.From, msg)
	if err != nil {
		return err
	}
	addr := net.JoinHostPort(s.cfg.SMTPHost, fmt.Sprint(s.cfg.SMTPPort))

	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	defer func() { _ = conn.Close() }()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.SMTPHost, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if s.auth != nil {
		if err := client.Auth(s.auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}
	if err := client.Mail(extractEmail(s.cfg.From)); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	s.log.Debug().Str("to", msg.To).Str("subject", msg.Subject).Msg("email sent")
	return client.Quit()
}

// buildMessage writes a multipart/alternative message with the text part
// first so clients prefer the HTML one.
func buildMessage(from string, msg Message) ([]byte, error) {
	if strings.ContainsAny(from, "\r\n") || strings.ContainsAny(msg.To, "\r\n") {
		return nil, errors.New("build message: line break in address")
	}

	var b strings.Builder
	mw := multipart.NewWriter(&b)

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	// Q-encoding also covers control characters, so the subject stays on one line
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())

	for _, part := range []struct{ ctype, content string }{
		{"text/plain; charset=\"utf-8\"", msg.Text},
		{"text/html; charset=\"utf-8\"", msg.HTML},
	} {
		pw, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {part.ctype},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, fmt.Errorf("create part: %w", err)
		}
		qp := quotedprintable.NewWriter(pw)
		if _, err := qp.Write([]byte(part.content)); err != nil {
			return nil, fmt.Errorf("encode part: %w", err)
		}
		if err := qp.Close(); err != nil {
			return nil, fmt.Errorf("encode part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}
	return []byte(b.String()), nil
}

// extractEmail extracts the address from forms like "Name <a@example.com>".
func extractEmail(address string) string {
	if i := strings.Index(address, "<"); i != -1 {
		if j := strings.Index(address, ">"); j > i {
			return address[i+1 : j]
		}
	}
	return address
}
