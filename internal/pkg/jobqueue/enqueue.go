package jobqueue

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ManuelReschke/NetPortal/internal/pkg/billing"
	"github.com/ManuelReschke/NetPortal/internal/pkg/s3backup"
	"github.com/gofiber/fiber/v2/log"
)

// EnqueueGroupEmail queues an admin mail to all customers or to the active
// ones only.
func EnqueueGroupEmail(audience, subject, htmlBody string) (*Job, error) {
	if audience != AudienceAll && audience != AudienceActive {
		return nil, fmt.Errorf("unknown audience %q", audience)
	}
	if strings.TrimSpace(subject) == "" || strings.TrimSpace(htmlBody) == "" {
		return nil, fmt.Errorf("subject and message are required")
	}

	payload := GroupEmailJobPayload{Audience: audience, Subject: subject, HTMLBody: htmlBody}
	job, err := GetManager().GetQueue().EnqueueJob(JobTypeGroupEmail, payload.ToMap())
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue group email: %w", err)
	}
	log.Infof("[JobQueue] Enqueued group email %s for audience %s", job.ID, audience)
	return job, nil
}

// EnqueueEmail queues a single mail.
func EnqueueEmail(to, subject, htmlBody string) (*Job, error) {
	payload := SendEmailJobPayload{To: to, Subject: subject, HTMLBody: htmlBody}
	return GetManager().GetQueue().EnqueueJob(JobTypeSendEmail, payload.ToMap())
}

// QueuedArchiver archives invoices asynchronously through the job queue.
// The returned key is the object key the job will write.
type QueuedArchiver struct {
	queue *Queue
}

func NewQueuedArchiver(q *Queue) *QueuedArchiver {
	return &QueuedArchiver{queue: q}
}

func (a *QueuedArchiver) ArchiveInvoice(_ context.Context, kind, localPath string, at time.Time) (string, error) {
	payload := ArchiveInvoiceJobPayload{Kind: kind, LocalPath: localPath, PaidAt: at}
	if _, err := a.queue.EnqueueJob(JobTypeArchiveInvoice, payload.ToMap()); err != nil {
		return "", err
	}
	return s3backup.InvoiceObjectKey(kind, filepath.Base(localPath), at), nil
}

// QueuedNotifier hands payment confirmations to the send_email worker so
// SMTP latency never holds up the payment request.
type QueuedNotifier struct {
	queue *Queue
}

func NewQueuedNotifier(q *Queue) *QueuedNotifier {
	return &QueuedNotifier{queue: q}
}

func (n *QueuedNotifier) Notify(_ context.Context, note billing.Notification) error {
	if strings.TrimSpace(note.To) == "" {
		return fmt.Errorf("notification without recipient")
	}
	payload := SendEmailJobPayload{
		To:             note.To,
		Subject:        note.Subject,
		HTMLBody:       note.HTMLBody,
		AttachmentPath: note.AttachmentPath,
	}
	job, err := n.queue.EnqueueJob(JobTypeSendEmail, payload.ToMap())
	if err != nil {
		return fmt.Errorf("failed to enqueue payment confirmation: %w", err)
	}
	log.Infof("[JobQueue] Enqueued payment confirmation %s for %s", job.ID, note.To)
	return nil
}
