package invoicedelivery

import (
	"context"
	"testing"

	job "github.com/goliatone/go-job"

	"github.com/goliatone/go-invoice/invoice"
)

type captureEnqueuer struct {
	msgs []*job.ExecutionMessage
}

func (c *captureEnqueuer) Enqueue(_ context.Context, msg *job.ExecutionMessage) error {
	c.msgs = append(c.msgs, msg)
	return nil
}

func TestSchedulerRoundTrip(t *testing.T) {
	enq := &captureEnqueuer{}
	sched := NewScheduler(SchedulerConfig{Enqueuer: enq})

	req := ReminderRequest{Invoices: []invoice.Invoice{
		{InvoiceNumber: "INV-9", ClientName: "Acme"},
	}}
	if err := sched.ScheduleReminders(context.Background(), req); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	if len(enq.msgs) != 1 {
		t.Fatalf("enqueued %d messages", len(enq.msgs))
	}
	msg := enq.msgs[0]
	if msg.JobID != DefaultReminderTaskID {
		t.Fatalf("job id = %q", msg.JobID)
	}

	decoded, err := DecodeReminderRequest(msg.Parameters)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.Invoices) != 1 || decoded.Invoices[0].InvoiceNumber != "INV-9" {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestSchedulerRequiresEnqueuer(t *testing.T) {
	sched := NewScheduler(SchedulerConfig{})
	err := sched.ScheduleReminders(context.Background(), ReminderRequest{})
	if err == nil {
		t.Fatal("expected error without enqueuer")
	}
	if invoice.KindFromError(err) != invoice.KindNotImpl {
		t.Fatalf("kind = %v", invoice.KindFromError(err))
	}
}

func TestDecodeReminderRequestErrors(t *testing.T) {
	if _, err := DecodeReminderRequest(map[string]any{}); err == nil {
		t.Fatal("expected error for missing payload")
	}
	if _, err := DecodeReminderRequest(map[string]any{"payload": "{"}); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
