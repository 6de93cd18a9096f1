package jobqueue

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuelReschke/NetPortal/internal/pkg/billing"
	"github.com/ManuelReschke/NetPortal/internal/pkg/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []mail.Message
	err  error
}

func (r *recordingSender) send(_ context.Context, msg mail.Message) error {
	r.sent = append(r.sent, msg)
	return r.err
}

type fakeArchiver struct {
	kind, path string
	at         time.Time
}

func (f *fakeArchiver) ArchiveInvoice(_ context.Context, kind, localPath string, at time.Time) (string, error) {
	f.kind, f.path, f.at = kind, localPath, at
	return "invoices/" + kind + "/" + filepath.Base(localPath), nil
}

func TestProcessSendEmailJob(t *testing.T) {
	sender := &recordingSender{}
	q := &Queue{sendMail: sender.send}

	job := &Job{ID: "j1", Type: JobTypeSendEmail, Payload: SendEmailJobPayload{
		To: "a@example.com", Subject: "Outage", HTMLBody: "<p>Maintenance tonight</p>",
	}.ToMap()}

	require.NoError(t, q.processSendEmailJob(context.Background(), job))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "a@example.com", sender.sent[0].To)
	assert.Equal(t, "Outage", sender.sent[0].Subject)
	assert.Empty(t, sender.sent[0].Attachments)
}

func TestProcessSendEmailJobWithAttachment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ab12.html")
	require.NoError(t, os.WriteFile(path, []byte("<html></html>"), 0644))

	sender := &recordingSender{}
	q := &Queue{sendMail: sender.send}
	job := &Job{ID: "j2", Payload: SendEmailJobPayload{To: "a@example.com", Subject: "Bill Paid", AttachmentPath: path}.ToMap()}

	require.NoError(t, q.processSendEmailJob(context.Background(), job))
	require.Len(t, sender.sent[0].Attachments, 1)
	assert.Equal(t, "ab12.html", sender.sent[0].Attachments[0].Filename)
}

func TestProcessSendEmailJobErrors(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	q := &Queue{sendMail: sender.send}

	err := q.processSendEmailJob(context.Background(), &Job{Payload: SendEmailJobPayload{Subject: "x"}.ToMap()})
	assert.Error(t, err)
	assert.Empty(t, sender.sent)

	err = q.processSendEmailJob(context.Background(), &Job{Payload: SendEmailJobPayload{To: "a@example.com"}.ToMap()})
	assert.EqualError(t, err, "smtp down")
}

func TestProcessArchiveInvoiceJob(t *testing.T) {
	q := &Queue{}
	at := time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC)
	job := &Job{ID: "j3", Payload: ArchiveInvoiceJobPayload{Kind: "bill", LocalPath: "/data/invoices/bill/x.html", PaidAt: at}.ToMap()}

	// Without an archiver the job is a no-op.
	require.NoError(t, q.processArchiveInvoiceJob(context.Background(), job))

	archiver := &fakeArchiver{}
	q.SetArchiver(archiver)
	require.NoError(t, q.processArchiveInvoiceJob(context.Background(), job))
	assert.Equal(t, "bill", archiver.kind)
	assert.Equal(t, "/data/invoices/bill/x.html", archiver.path)
	assert.True(t, at.Equal(archiver.at))
}

func TestEnqueueGroupEmailRejectsUnknownAudience(t *testing.T) {
	_, err := EnqueueGroupEmail("everyone", "Subject", "Body")
	assert.Error(t, err)

	_, err = EnqueueGroupEmail(AudienceAll, " ", "Body")
	assert.Error(t, err)
}

func TestGroupEmailFansOutToDistinctRecipients(t *testing.T) {
	q := testQueue(t, 1)
	var gotActiveOnly bool
	q.SetRecipients(func(activeOnly bool) ([]string, error) {
		gotActiveOnly = activeOnly
		return []string{"a@example.com", "b@example.com", "a@example.com", ""}, nil
	})

	job := &Job{ID: "group", Payload: GroupEmailJobPayload{Audience: AudienceActive, Subject: "News", HTMLBody: "<p>Hi</p>"}.ToMap()}
	require.NoError(t, q.processGroupEmailJob(context.Background(), job))
	assert.True(t, gotActiveOnly)

	size, err := q.GetQueueSize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), size)
}

func TestRecoverStuckJobs(t *testing.T) {
	ctx := context.Background()
	q := testQueue(t, 1)
	job, err := q.EnqueueJob(JobTypeSendEmail, SendEmailJobPayload{To: "a@example.com"}.ToMap())
	require.NoError(t, err)

	claimed, err := q.claim(ctx)
	require.NoError(t, err)
	require.Equal(t, job.ID, claimed.ID)

	started := time.Now().Add(-time.Hour)
	claimed.Status = JobStatusProcessing
	claimed.ProcessedAt = &started
	q.save(ctx, claimed)

	n, err := q.RecoverStuckJobs(ctx, 2*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = q.RecoverStuckJobs(ctx, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	requeued, err := q.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusPending, requeued.Status)
	assert.Contains(t, requeued.ErrorMsg, "requeued after")

	pending, err := q.GetQueueSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
	processing, err := q.GetProcessingSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), processing)
}

func TestQueuedNotifierEnqueuesConfirmationWithInvoice(t *testing.T) {
	ctx := context.Background()
	q := testQueue(t, 1)
	var notifier billing.Notifier = NewQueuedNotifier(q)

	err := notifier.Notify(ctx, billing.Notification{
		To:             "jane@example.com",
		Subject:        "Payment received",
		HTMLBody:       "<p>Thanks</p>",
		AttachmentPath: "/var/invoices/bill/inv-1.html",
	})
	require.NoError(t, err)

	claimed, err := q.claim(ctx)
	require.NoError(t, err)
	assert.Equal(t, JobTypeSendEmail, claimed.Type)
	payload, err := SendEmailJobPayloadFromMap(claimed.Payload)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", payload.To)
	assert.Equal(t, "Payment received", payload.Subject)
	assert.Equal(t, "/var/invoices/bill/inv-1.html", payload.AttachmentPath)

	assert.Error(t, notifier.Notify(ctx, billing.Notification{Subject: "no recipient"}))
}
