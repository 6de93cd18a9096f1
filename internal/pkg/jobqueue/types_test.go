package jobqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobLifecycle(t *testing.T) {
	job := &Job{Status: JobStatusPending, MaxRetries: 2}
	before := time.Now()

	job.MarkAsProcessing()
	require.NotNil(t, job.ProcessedAt)
	assert.Equal(t, JobStatusProcessing, job.Status)
	assert.False(t, job.ProcessedAt.Before(before))
	assert.False(t, job.IsRetryable(), "a running job is not retried")

	job.MarkAsFailed("smtp timeout")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "smtp timeout", job.ErrorMsg)
	assert.Equal(t, 1, job.RetryCount)
	assert.True(t, job.IsRetryable())

	job.MarkAsRetrying()
	assert.Equal(t, JobStatusRetrying, job.Status)

	job.MarkAsFailed("smtp timeout")
	assert.Equal(t, 2, job.RetryCount)
	assert.False(t, job.IsRetryable(), "retries exhausted")

	job.MarkAsCompleted()
	require.NotNil(t, job.CompletedAt)
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Empty(t, job.ErrorMsg)
	assert.False(t, job.UpdatedAt.Before(*job.ProcessedAt))
}

func TestJobTypeNames(t *testing.T) {
	assert.Equal(t, JobType("send_email"), JobTypeSendEmail)
	assert.Equal(t, JobType("group_email"), JobTypeGroupEmail)
	assert.Equal(t, JobType("archive_invoice"), JobTypeArchiveInvoice)
}

func TestSendEmailPayloadRoundTrip(t *testing.T) {
	payload := SendEmailJobPayload{To: "a@example.com", Subject: "Hi", HTMLBody: "<p>x</p>"}

	data := payload.ToMap()
	assert.NotContains(t, data, "attachment_path")

	result, err := SendEmailJobPayloadFromMap(data)
	require.NoError(t, err)
	assert.Equal(t, &payload, result)
}

func TestArchiveInvoicePayloadKeepsTime(t *testing.T) {
	at := time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC)
	payload := ArchiveInvoiceJobPayload{Kind: "package", LocalPath: "/tmp/a.html", PaidAt: at}

	result, err := ArchiveInvoiceJobPayloadFromMap(payload.ToMap())
	require.NoError(t, err)
	assert.True(t, at.Equal(result.PaidAt))
	assert.Equal(t, "package", result.Kind)
}

func TestPayloadFromUnencodableMap(t *testing.T) {
	payload, err := GroupEmailJobPayloadFromMap(map[string]interface{}{"audience": make(chan int)})
	assert.Error(t, err)
	assert.Nil(t, payload)
}
