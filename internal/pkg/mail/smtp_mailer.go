package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/ManuelReschke/NetPortal/app/models"
	"github.com/ManuelReschke/NetPortal/internal/pkg/env"
)

// Config is the SMTP transport configuration.
type Config struct {
	Host       string
	Port       string
	Username   string
	Password   string
	FromEmail  string
	FromName   string
	Encryption string // tls, ssl or none
}

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Message struct {
	To          string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// ConfigFromEnv reads the SMTP_* variables.
func ConfigFromEnv() Config {
	cfg := Config{
		Host:       env.GetEnv("SMTP_HOST", ""),
		Port:       env.GetEnv("SMTP_PORT", "587"),
		Username:   env.GetEnv("SMTP_USERNAME", ""),
		Password:   env.GetEnv("SMTP_PASSWORD", ""),
		FromEmail:  env.GetEnv("SMTP_SENDER", ""),
		FromName:   env.GetEnv("SMTP_SENDER_NAME", ""),
		Encryption: env.GetEnv("SMTP_ENCRYPTION", "tls"),
	}
	if cfg.FromEmail == "" {
		cfg.FromEmail = "no-reply@localhost"
		log.Printf("SMTP_SENDER not set, using default sender: %s", cfg.FromEmail)
	}
	return cfg
}

// ResolveConfig prefers the admin managed settings row when SMTP is enabled
// there, and falls back to the environment otherwise.
func ResolveConfig(es *models.EmailSetting) Config {
	cfg := ConfigFromEnv()
	if es == nil || !es.IsSMTP || es.SMTPHost == "" {
		return cfg
	}
	cfg.Host = es.SMTPHost
	if es.SMTPPort > 0 {
		cfg.Port = strconv.Itoa(es.SMTPPort)
	}
	cfg.Username = es.SMTPUser
	cfg.Password = es.SMTPPass
	if es.EmailEncryption != "" {
		cfg.Encryption = es.EmailEncryption
	}
	if es.FromEmail != "" {
		cfg.FromEmail = es.FromEmail
	}
	if es.FromName != "" {
		cfg.FromName = es.FromName
	}
	return cfg
}

// SendMail sends a plain HTML mail with the environment configuration.
func SendMail(to string, subject string, body string) error {
	return Send(ConfigFromEnv(), Message{To: to, Subject: subject, HTMLBody: body})
}

// Timeouts for one delivery. A context deadline shortens sessionTimeout.
const (
	dialTimeout    = 15 * time.Second
	sessionTimeout = 60 * time.Second
)

// Send delivers msg through the configured SMTP server.
func Send(cfg Config, msg Message) error {
	return SendContext(context.Background(), cfg, msg)
}

// SendContext delivers msg and gives up when ctx ends or the server stalls.
func SendContext(ctx context.Context, cfg Config, msg Message) error {
	if cfg.Host == "" {
		return fmt.Errorf("smtp host is not configured")
	}
	raw, err := BuildMessage(cfg, msg, time.Now())
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(cfg.Host, cfg.Port)
	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	err = deliver(ctx, cfg, addr, auth, msg.To, raw)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	} else {
		log.Printf("Email sent to %s via %s", msg.To, addr)
	}
	return err
}

func dial(ctx context.Context, cfg Config, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: dialTimeout}
	if strings.EqualFold(cfg.Encryption, "ssl") {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: cfg.Host}}
		return tlsDialer.DialContext(ctx, "tcp", addr)
	}
	return dialer.DialContext(ctx, "tcp", addr)
}

func deliver(ctx context.Context, cfg Config, addr string, auth smtp.Auth, to string, raw []byte) error {
	conn, err := dial(ctx, cfg, addr)
	if err != nil {
		return err
	}
	deadline := time.Now().Add(sessionTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return err
	}

	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	// Plain connections upgrade whenever the server offers STARTTLS, unless
	// encryption is explicitly off.
	if !strings.EqualFold(cfg.Encryption, "ssl") && !strings.EqualFold(cfg.Encryption, "none") {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: cfg.Host}); err != nil {
				return err
			}
		}
	}
	if auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(auth); err != nil {
				return err
			}
		}
	}
	if err := c.Mail(cfg.FromEmail); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// BuildMessage renders msg as a MIME message. Messages with attachments
// are multipart/mixed.
func BuildMessage(cfg Config, msg Message, now time.Time) ([]byte, error) {
	from := (&mail.Address{Name: cfg.FromName, Address: cfg.FromEmail}).String()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", now.Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if len(msg.Attachments) == 0 {
		buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		buf.WriteString(msg.HTMLBody)
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", mw.Boundary())

	body, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=UTF-8"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := body.Write([]byte(msg.HTMLBody)); err != nil {
		return nil, err
	}

	for _, a := range msg.Attachments {
		ct := a.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {ct},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename})},
		})
		if err != nil {
			return nil, err
		}
		if err := writeBase64Lines(part, a.Data); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeBase64Lines(w io.Writer, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		if _, err := w.Write([]byte(encoded[:76] + "\r\n")); err != nil {
			return err
		}
		encoded = encoded[76:]
	}
	_, err := w.Write([]byte(encoded + "\r\n"))
	return err
}
