package mail

import (
	"bytes"
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/ManuelReschke/NetPortal/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessageWithAttachment(t *testing.T) {
	cfg := Config{FromEmail: "billing@example.com", FromName: "NetPortal"}
	raw, err := BuildMessage(cfg, Message{
		To:       "jane@example.com",
		Subject:  "Bill Paid",
		HTMLBody: "Hello <strong>Jane</strong>",
		Attachments: []Attachment{
			{Filename: "inv.html", ContentType: "text/html", Data: []byte("<html>invoice</html>")},
		},
	}, time.Unix(1700000000, 0))
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", msg.Header.Get("To"))

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	mr := multipart.NewReader(msg.Body, params["boundary"])
	body, err := mr.NextPart()
	require.NoError(t, err)
	b, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "Hello <strong>Jane</strong>", string(b))

	att, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "inv.html", att.FileName())
	assert.Equal(t, "base64", att.Header.Get("Content-Transfer-Encoding"))

	_, err = mr.NextPart()
	assert.ErrorIs(t, err, io.EOF)
}

func TestBuildMessagePlain(t *testing.T) {
	raw, err := BuildMessage(Config{FromEmail: "a@example.com"}, Message{To: "b@example.com", Subject: "Hi", HTMLBody: "<p>x</p>"}, time.Now())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(raw), "<p>x</p>"))
	assert.Contains(t, string(raw), "Content-Type: text/html; charset=UTF-8")
}

func TestResolveConfigPrefersEnabledSettings(t *testing.T) {
	es := &models.EmailSetting{IsSMTP: true, SMTPHost: "smtp.isp.test", SMTPPort: 465, EmailEncryption: "ssl", FromEmail: "noreply@isp.test"}
	cfg := ResolveConfig(es)
	assert.Equal(t, "smtp.isp.test", cfg.Host)
	assert.Equal(t, "465", cfg.Port)
	assert.Equal(t, "ssl", cfg.Encryption)
	assert.Equal(t, "noreply@isp.test", cfg.FromEmail)

	es.IsSMTP = false
	assert.NotEqual(t, "smtp.isp.test", ResolveConfig(es).Host)
}

func TestSendWithoutHost(t *testing.T) {
	err := Send(Config{}, Message{To: "x@example.com"})
	assert.Error(t, err)
}

func TestSendContextGivesUpOnStalledServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan struct{})
	t.Cleanup(func() {
		close(done)
		_ = ln.Close()
	})

	// Accept and never send the greeting.
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		<-done
		_ = conn.Close()
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	cfg := Config{Host: host, Port: port, FromEmail: "noreply@isp.test", Encryption: "none"}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	started := time.Now()
	err = SendContext(ctx, cfg, Message{To: "x@example.com", Subject: "Paid", HTMLBody: "<p>ok</p>"})
	assert.Error(t, err)
	assert.Less(t, time.Since(started), 5*time.Second)
}
