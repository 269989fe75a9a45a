package invoicejob

import (
	"context"

	job "github.com/goliatone/go-job"

	invoicedelivery "github.com/goliatone/go-invoice/adapters/delivery"
	"github.com/goliatone/go-invoice/invoice"
)

// TaskConfig configures the reminder task.
type TaskConfig struct {
	ID             string
	Path           string
	Config         job.Config
	HandlerOptions job.HandlerOptions
	Reminders      *invoicedelivery.ReminderService
	Tracker        invoice.RunTracker
	Logger         invoice.Logger
}

// ReminderTask executes scheduled reminder runs dequeued from go-job. It is
// the worker-side counterpart of the delivery scheduler.
type ReminderTask struct {
	id             string
	path           string
	config         job.Config
	handlerOptions job.HandlerOptions
	reminders      *invoicedelivery.ReminderService
	tracker        invoice.RunTracker
	logger         invoice.Logger
}

// NewReminderTask creates a reminder task.
func NewReminderTask(cfg TaskConfig) *ReminderTask {
	logger := cfg.Logger
	if logger == nil {
		logger = invoice.NopLogger{}
	}
	id := cfg.ID
	if id == "" {
		id = invoicedelivery.DefaultReminderTaskID
	}
	path := cfg.Path
	if path == "" {
		path = invoicedelivery.DefaultReminderTaskPath
	}

	return &ReminderTask{
		id:             id,
		path:           path,
		config:         cfg.Config,
		handlerOptions: cfg.HandlerOptions,
		reminders:      cfg.Reminders,
		tracker:        cfg.Tracker,
		logger:         logger,
	}
}

// GetID returns the task identifier.
func (t *ReminderTask) GetID() string { return t.id }

// GetPath returns the task path.
func (t *ReminderTask) GetPath() string { return t.path }

// GetEngine returns nil because this task is code-driven.
func (t *ReminderTask) GetEngine() job.Engine { return nil }

// GetConfig returns task config defaults.
func (t *ReminderTask) GetConfig() job.Config { return t.config }

// GetHandlerConfig returns scheduler options for the task.
func (t *ReminderTask) GetHandlerConfig() job.HandlerOptions { return t.handlerOptions }

// GetHandler returns a handler for non-queue execution paths. Reminder runs
// only carry meaning with a payload, so the bare handler is a no-op.
func (t *ReminderTask) GetHandler() func() error {
	return func() error { return nil }
}

// Execute processes one scheduled reminder batch.
func (t *ReminderTask) Execute(ctx context.Context, msg *job.ExecutionMessage) error {
	if t == nil {
		return invoice.NewError(invoice.KindInternal, "task is nil", nil)
	}
	if t.reminders == nil {
		return invoice.NewError(invoice.KindNotImpl, "reminder service not configured", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if msg == nil || msg.Parameters == nil {
		return invoice.NewError(invoice.KindData, "job payload is required", nil)
	}

	req, err := invoicedelivery.DecodeReminderRequest(msg.Parameters)
	if err != nil {
		return err
	}

	runID := t.startRun(ctx, len(req.Invoices))

	results, err := t.reminders.ProcessOverdue(ctx, req.Invoices)
	if err != nil {
		t.failRun(ctx, runID, err)
		return err
	}

	t.completeRun(ctx, runID, invoice.RunCounts{
		Processed: int64(results.Processed),
		Total:     int64(len(req.Invoices)),
		Errors:    int64(results.Failed),
	})
	t.logger.Infof("reminder run complete: %d sent, %d failed, %d skipped",
		results.Sent, results.Failed, results.Skipped)
	return nil
}

func (t *ReminderTask) startRun(ctx context.Context, total int) string {
	if t.tracker == nil {
		return ""
	}
	id, err := t.tracker.Start(ctx, invoice.RunRecord{
		Kind:   invoice.RunReminder,
		State:  invoice.StateRunning,
		Counts: invoice.RunCounts{Total: int64(total)},
	})
	if err != nil {
		t.logger.Errorf("start reminder run: %v", err)
		return ""
	}
	return id
}

func (t *ReminderTask) completeRun(ctx context.Context, id string, counts invoice.RunCounts) {
	if t.tracker == nil || id == "" {
		return
	}
	if err := t.tracker.Complete(ctx, id, counts); err != nil {
		t.logger.Errorf("complete reminder run %s: %v", id, err)
	}
}

func (t *ReminderTask) failRun(ctx context.Context, id string, cause error) {
	if t.tracker == nil || id == "" {
		return
	}
	if err := t.tracker.Fail(ctx, id, cause); err != nil {
		t.logger.Errorf("fail reminder run %s: %v", id, err)
	}
}
