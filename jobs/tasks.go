package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeLowStockScan scans for items at or below their reorder level.
	TaskTypeLowStockScan = "stock:low_scan"
	// TaskTypeReportsWarmup pre-builds the report payloads into the cache.
	TaskTypeReportsWarmup = "reports:warmup"
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
func HandleSendEmailTask(_ context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: SMTP delivery is wired per deployment.
	slog.Info("send email", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return nil
}

// LowStockScanPayload parameterises a low stock scan run.
type LowStockScanPayload struct {
	NotifyEmail string `json:"notify_email,omitempty"`
}

// NewLowStockScanTask constructs a low stock scan task.
func NewLowStockScanTask(payload LowStockScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeLowStockScan, data), nil
}

// ReportsWarmupPayload parameterises a reports warmup run.
type ReportsWarmupPayload struct {
	WindowDays int `json:"window_days,omitempty"`
}

// NewReportsWarmupTask constructs a reports warmup task.
func NewReportsWarmupTask(payload ReportsWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeReportsWarmup, data), nil
}
