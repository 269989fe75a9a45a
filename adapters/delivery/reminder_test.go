package invoicedelivery

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goliatone/go-invoice/invoice"
)

type captureSender struct {
	sent []EmailMessage
	err  error
}

func (c *captureSender) Send(_ context.Context, msg EmailMessage) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

func TestTierFor(t *testing.T) {
	cases := []struct {
		days int
		want Tier
	}{
		{1, TierGentle},
		{7, TierGentle},
		{8, TierUrgent},
		{30, TierUrgent},
		{31, TierFinal},
		{90, TierFinal},
	}
	for _, tc := range cases {
		if got := TierFor(tc.days); got != tc.want {
			t.Fatalf("TierFor(%d) = %s, want %s", tc.days, got, tc.want)
		}
	}
}

func overdueInvoice(number, due string) invoice.Invoice {
	return invoice.Invoice{
		InvoiceNumber: number,
		ClientName:    "Acme Corp",
		ClientEmail:   "acme@example.com",
		CompanyName:   "Widgets Ltd",
		DueDate:       due,
		Total:         decimal.RequireFromString("150.50"),
		Status:        invoice.StatusSent,
	}
}

func TestProcessOverdueSendsTieredReminders(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	sender := &captureSender{}
	svc := NewReminderService(sender)
	svc.Now = func() time.Time { return now }

	invoices := []invoice.Invoice{
		overdueInvoice("INV-1", "2024-03-12T00:00:00Z"), // 3 days: gentle
		overdueInvoice("INV-2", "2024-02-25T00:00:00Z"), // 19 days: urgent
		overdueInvoice("INV-3", "2024-01-01T00:00:00Z"), // 74 days: final
	}

	results, err := svc.ProcessOverdue(context.Background(), invoices)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if results.Processed != 3 || results.Sent != 3 || results.Failed != 0 || results.Skipped != 0 {
		t.Fatalf("results = %+v", results)
	}
	if len(sender.sent) != 3 {
		t.Fatalf("sent %d messages", len(sender.sent))
	}

	if !strings.Contains(sender.sent[0].Subject, "Friendly Payment Reminder") {
		t.Fatalf("gentle subject = %q", sender.sent[0].Subject)
	}
	if !strings.Contains(sender.sent[1].Subject, "URGENT") {
		t.Fatalf("urgent subject = %q", sender.sent[1].Subject)
	}
	if !strings.Contains(sender.sent[2].Subject, "FINAL NOTICE") {
		t.Fatalf("final subject = %q", sender.sent[2].Subject)
	}

	body := sender.sent[0].Body
	for _, want := range []string{"Acme Corp", "INV-1", "$150.50", "March 12, 2024", "Widgets Ltd"} {
		if !strings.Contains(body, want) {
			t.Fatalf("gentle body missing %q:\n%s", want, body)
		}
	}
	if sender.sent[0].To != "acme@example.com" {
		t.Fatalf("to = %q", sender.sent[0].To)
	}
}

func TestProcessOverdueSkipsPaidAndCurrent(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	sender := &captureSender{}
	svc := NewReminderService(sender)
	svc.Now = func() time.Time { return now }

	paid := overdueInvoice("INV-PAID", "2024-01-01T00:00:00Z")
	paid.Status = invoice.StatusPaid
	future := overdueInvoice("INV-FUTURE", "2024-04-01T00:00:00Z")

	results, err := svc.ProcessOverdue(context.Background(), []invoice.Invoice{paid, future})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if results.Skipped != 2 || results.Sent != 0 || results.Processed != 0 {
		t.Fatalf("results = %+v", results)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("unexpected sends: %d", len(sender.sent))
	}
	for _, detail := range results.Details {
		if detail.Status != "skipped" {
			t.Fatalf("detail = %+v", detail)
		}
	}
}

func TestProcessOverdueRecordsFailures(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	sender := &captureSender{err: errors.New("smtp down")}
	svc := NewReminderService(sender)
	svc.Now = func() time.Time { return now }

	bad := overdueInvoice("INV-BAD", "not-a-date")
	due := overdueInvoice("INV-DUE", "2024-03-10T00:00:00Z")

	results, err := svc.ProcessOverdue(context.Background(), []invoice.Invoice{bad, due})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if results.Failed != 2 {
		t.Fatalf("failed = %d, details = %+v", results.Failed, results.Details)
	}
	if results.Processed != 1 {
		t.Fatalf("processed = %d", results.Processed)
	}
}
