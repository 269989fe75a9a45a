package invoicedelivery

import (
	"context"
	"encoding/json"

	job "github.com/goliatone/go-job"

	"github.com/goliatone/go-invoice/invoice"
)

const (
	DefaultReminderTaskID   = "invoice:remind"
	DefaultReminderTaskPath = "invoice:remind"
)

// Enqueuer delivers execution messages to go-job.
type Enqueuer interface {
	Enqueue(ctx context.Context, msg *job.ExecutionMessage) error
}

// EnqueuerFunc adapts a function to the Enqueuer interface.
type EnqueuerFunc func(ctx context.Context, msg *job.ExecutionMessage) error

// Enqueue calls f.
func (f EnqueuerFunc) Enqueue(ctx context.Context, msg *job.ExecutionMessage) error {
	return f(ctx, msg)
}

// ReminderRequest is the payload of a scheduled reminder run.
type ReminderRequest struct {
	Invoices []invoice.Invoice `json:"invoices"`
}

// SchedulerConfig configures the reminder scheduler.
type SchedulerConfig struct {
	Enqueuer Enqueuer
	TaskID   string
	TaskPath string
	Logger   invoice.Logger
}

// Scheduler hands reminder batches to the job runner instead of sending
// inline, so SMTP latency stays out of the request path.
type Scheduler struct {
	enqueuer Enqueuer
	taskID   string
	taskPath string
	logger   invoice.Logger
}

// NewScheduler creates a reminder scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = invoice.NopLogger{}
	}
	taskID := cfg.TaskID
	if taskID == "" {
		taskID = DefaultReminderTaskID
	}
	taskPath := cfg.TaskPath
	if taskPath == "" {
		taskPath = DefaultReminderTaskPath
	}

	return &Scheduler{
		enqueuer: cfg.Enqueuer,
		taskID:   taskID,
		taskPath: taskPath,
		logger:   logger,
	}
}

// ScheduleReminders enqueues a reminder run for the given invoices.
func (s *Scheduler) ScheduleReminders(ctx context.Context, req ReminderRequest) error {
	if s == nil {
		return invoice.NewError(invoice.KindInternal, "scheduler is nil", nil)
	}
	if s.enqueuer == nil {
		return invoice.NewError(invoice.KindNotImpl, "job enqueuer not configured", nil)
	}

	encoded, err := json.Marshal(req)
	if err != nil {
		return invoice.NewError(invoice.KindInternal, "encode reminder payload failed", err)
	}

	msg := &job.ExecutionMessage{
		JobID:      s.taskID,
		ScriptPath: s.taskPath,
		Parameters: map[string]any{"payload": string(encoded)},
	}

	if err := s.enqueuer.Enqueue(ctx, msg); err != nil {
		return invoice.NewError(invoice.KindExternal, "enqueue reminder run failed", err)
	}

	s.logger.Debugf("scheduled reminder run for %d invoices", len(req.Invoices))
	return nil
}

// DecodeReminderRequest recovers the reminder payload inside a job handler.
func DecodeReminderRequest(params map[string]any) (ReminderRequest, error) {
	raw, ok := params["payload"].(string)
	if !ok || raw == "" {
		return ReminderRequest{}, invoice.NewError(invoice.KindData, "reminder payload missing", nil)
	}
	var req ReminderRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return ReminderRequest{}, invoice.NewError(invoice.KindData, "invalid reminder payload", err)
	}
	return req, nil
}
