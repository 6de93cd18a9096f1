package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType selects the handler of a job.
type JobType string

const (
	JobTypeSendEmail      JobType = "send_email"
	JobTypeGroupEmail     JobType = "group_email"
	JobTypeArchiveInvoice JobType = "archive_invoice"
)

// JobStatus is the lifecycle state stored with each job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Group email audiences.
const (
	AudienceAll    = "all"
	AudienceActive = "active"
)

// Job is the JSON record kept in Redis for every queued job.
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// SendEmailJobPayload is a single outgoing mail.
type SendEmailJobPayload struct {
	To             string `json:"to"`
	Subject        string `json:"subject"`
	HTMLBody       string `json:"html_body"`
	AttachmentPath string `json:"attachment_path,omitempty"`
}

func (p SendEmailJobPayload) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"to":        p.To,
		"subject":   p.Subject,
		"html_body": p.HTMLBody,
	}
	if p.AttachmentPath != "" {
		m["attachment_path"] = p.AttachmentPath
	}
	return m
}

func SendEmailJobPayloadFromMap(data map[string]interface{}) (*SendEmailJobPayload, error) {
	var payload SendEmailJobPayload
	if err := fromMap(data, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GroupEmailJobPayload is an admin mail to all customers or to the active
// ones. It fans out into one send_email job per recipient.
type GroupEmailJobPayload struct {
	Audience string `json:"audience"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
}

func (p GroupEmailJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"audience":  p.Audience,
		"subject":   p.Subject,
		"html_body": p.HTMLBody,
	}
}

func GroupEmailJobPayloadFromMap(data map[string]interface{}) (*GroupEmailJobPayload, error) {
	var payload GroupEmailJobPayload
	if err := fromMap(data, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ArchiveInvoiceJobPayload copies a rendered invoice to S3.
type ArchiveInvoiceJobPayload struct {
	Kind      string    `json:"kind"`
	LocalPath string    `json:"local_path"`
	PaidAt    time.Time `json:"paid_at"`
}

func (p ArchiveInvoiceJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"kind":       p.Kind,
		"local_path": p.LocalPath,
		"paid_at":    p.PaidAt.Format(time.RFC3339),
	}
}

func ArchiveInvoiceJobPayloadFromMap(data map[string]interface{}) (*ArchiveInvoiceJobPayload, error) {
	var payload ArchiveInvoiceJobPayload
	if err := fromMap(data, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// fromMap decodes a stored payload through JSON, which is how it was
// written in the first place.
func fromMap(data map[string]interface{}, out interface{}) error {
	raw, err := json.Marshal(data)
	if err == nil {
		err = json.Unmarshal(raw, out)
	}
	return err
}

// IsRetryable reports whether a failed job has attempts left.
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

func (j *Job) transition(to JobStatus) time.Time {
	now := time.Now()
	j.Status = to
	j.UpdatedAt = now
	return now
}

func (j *Job) MarkAsProcessing() {
	started := j.transition(JobStatusProcessing)
	j.ProcessedAt = &started
}

// MarkAsCompleted clears the error left by earlier attempts.
func (j *Job) MarkAsCompleted() {
	done := j.transition(JobStatusCompleted)
	j.CompletedAt = &done
	j.ErrorMsg = ""
}

// MarkAsFailed records the error and counts the attempt.
func (j *Job) MarkAsFailed(errorMsg string) {
	j.transition(JobStatusFailed)
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

func (j *Job) MarkAsRetrying() {
	j.transition(JobStatusRetrying)
}
