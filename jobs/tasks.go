package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskAttendanceDigest is the task type for the daily attendance digest.
	TaskAttendanceDigest = "attendance:digest"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// HandleSendEmailTask processes TaskTypeSendEmail tasks.
func HandleSendEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: integrate with SMTP/Mailpit in phase 2.
	fmt.Printf("[jobs] send email to %s subject=%s\n", payload.To, payload.Subject)
	return nil
}

// AttendanceDigestPayload selects the day to summarise. Day uses the
// 2006-01-02 layout; empty means the previous day.
type AttendanceDigestPayload struct {
	Day string `json:"day"`
}

// NewAttendanceDigestTask constructs an Asynq task for the digest job.
func NewAttendanceDigestTask(day string) (*asynq.Task, error) {
	data, err := json.Marshal(AttendanceDigestPayload{Day: day})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAttendanceDigest, data), nil
}
