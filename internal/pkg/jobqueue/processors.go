package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ManuelReschke/NetPortal/app/repository"
	"github.com/ManuelReschke/NetPortal/internal/pkg/database"
	"github.com/ManuelReschke/NetPortal/internal/pkg/mail"
	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/lo"
)

// RecipientLister returns the customer addresses of a group email.
type RecipientLister func(activeOnly bool) ([]string, error)

// MailSender delivers one message.
type MailSender func(ctx context.Context, msg mail.Message) error

// InvoiceArchiver uploads an invoice file and returns its object key.
type InvoiceArchiver interface {
	ArchiveInvoice(ctx context.Context, kind, localPath string, at time.Time) (string, error)
}

func defaultRecipients(activeOnly bool) ([]string, error) {
	db := database.GetDB()
	if db == nil {
		return nil, errors.New("database not initialized")
	}
	return repository.NewUserRepository(db).ListEmails(activeOnly)
}

// defaultMailSender uses the admin email settings, or the SMTP_* environment.
func defaultMailSender(ctx context.Context, msg mail.Message) error {
	db := database.GetDB()
	if db == nil {
		return mail.SendContext(ctx, mail.ConfigFromEnv(), msg)
	}
	es, err := repository.NewGatewayRepository(db).GetEmailSetting()
	if err != nil {
		return fmt.Errorf("load email settings: %w", err)
	}
	return mail.SendContext(ctx, mail.ResolveConfig(es), msg)
}

func (q *Queue) processSendEmailJob(ctx context.Context, job *Job) error {
	payload, err := SendEmailJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid send_email payload: %w", err)
	}
	if strings.TrimSpace(payload.To) == "" {
		return errors.New("send_email job without recipient")
	}

	msg := mail.Message{To: payload.To, Subject: payload.Subject, HTMLBody: payload.HTMLBody}
	if payload.AttachmentPath != "" {
		data, err := os.ReadFile(payload.AttachmentPath)
		if err != nil {
			return fmt.Errorf("read attachment: %w", err)
		}
		msg.Attachments = []mail.Attachment{{
			Filename:    filepath.Base(payload.AttachmentPath),
			ContentType: "text/html; charset=utf-8",
			Data:        data,
		}}
	}
	return q.sendMail(ctx, msg)
}

// processGroupEmailJob enqueues one send_email job per distinct recipient,
// so a single bad address only fails its own job.
func (q *Queue) processGroupEmailJob(ctx context.Context, job *Job) error {
	payload, err := GroupEmailJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid group_email payload: %w", err)
	}

	recipients, err := q.recipients(payload.Audience == AudienceActive)
	if err != nil {
		return fmt.Errorf("list recipients: %w", err)
	}
	recipients = lo.Uniq(lo.Compact(recipients))

	for _, to := range recipients {
		single := SendEmailJobPayload{To: to, Subject: payload.Subject, HTMLBody: payload.HTMLBody}
		if _, err := q.EnqueueJob(JobTypeSendEmail, single.ToMap()); err != nil {
			return fmt.Errorf("enqueue mail to %s: %w", to, err)
		}
	}
	log.Infof("[JobQueue] Group email job %s fanned out to %d recipients", job.ID, len(recipients))
	return nil
}

func (q *Queue) processArchiveInvoiceJob(ctx context.Context, job *Job) error {
	if q.archiver == nil {
		log.Debugf("[JobQueue] No invoice archiver configured, skipping job %s", job.ID)
		return nil
	}
	payload, err := ArchiveInvoiceJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid archive_invoice payload: %w", err)
	}
	key, err := q.archiver.ArchiveInvoice(ctx, payload.Kind, payload.LocalPath, payload.PaidAt)
	if err != nil {
		return err
	}
	log.Infof("[JobQueue] Archived invoice %s as %s", filepath.Base(payload.LocalPath), key)
	return nil
}
