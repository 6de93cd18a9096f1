package billing

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"

	"github.com/ManuelReschke/NetPortal/internal/pkg/mail"
)

// Notification is the payment confirmation sent to the customer.
type Notification struct {
	To             string
	Subject        string
	HTMLBody       string
	AttachmentPath string
}

// Notifier delivers payment confirmations. Failures never affect the
// stored payment.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// MailNotifier sends the confirmation over SMTP using the email settings
// row, or the environment when SMTP is disabled there.
type MailNotifier struct {
	repo Repository
}

func NewMailNotifier(repo Repository) *MailNotifier {
	return &MailNotifier{repo: repo}
}

func (m *MailNotifier) Notify(ctx context.Context, n Notification) error {
	es, err := m.repo.FindEmailSetting(ctx)
	if err != nil {
		return fmt.Errorf("load email settings: %w", err)
	}

	msg := mail.Message{To: n.To, Subject: n.Subject, HTMLBody: n.HTMLBody}
	if n.AttachmentPath != "" {
		data, err := os.ReadFile(n.AttachmentPath)
		if err != nil {
			return fmt.Errorf("read invoice attachment: %w", err)
		}
		msg.Attachments = append(msg.Attachments, mail.Attachment{
			Filename:    filepath.Base(n.AttachmentPath),
			ContentType: "text/html; charset=utf-8",
			Data:        data,
		})
	}
	return mail.SendContext(ctx, mail.ResolveConfig(es), msg)
}

func confirmationBody(name string) string {
	return fmt.Sprintf("Hello <strong>%s</strong>,<br/>Your bill was paid successfully. We have attached an invoice in this mail.<br/>Thank you.", html.EscapeString(name))
}
