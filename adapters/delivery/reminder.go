package invoicedelivery

import (
	"bytes"
	"context"
	"text/template"
	"time"

	"github.com/goliatone/go-invoice/invoice"
)

// Tier is the escalation level of an overdue reminder.
type Tier string

const (
	TierGentle Tier = "gentle"
	TierUrgent Tier = "urgent"
	TierFinal  Tier = "final"
)

// TierFor picks the escalation tier from how many days the invoice is
// overdue: gentle through a week, urgent through a month, final after that.
func TierFor(daysOverdue int) Tier {
	switch {
	case daysOverdue <= 7:
		return TierGentle
	case daysOverdue <= 30:
		return TierUrgent
	default:
		return TierFinal
	}
}

const longDateLayout = "January 2, 2006"

type reminderTemplate struct {
	subject *template.Template
	body    *template.Template
}

var reminderTemplates = map[Tier]reminderTemplate{
	TierGentle: {
		subject: template.Must(template.New("gentle-subject").Parse(
			"Friendly Payment Reminder - Invoice {{.InvoiceNumber}}")),
		body: template.Must(template.New("gentle-body").Parse(
			`Dear {{.ClientName}},

I hope this email finds you well. This is a friendly reminder that your invoice #{{.InvoiceNumber}} for ${{.TotalAmount}} was due on {{.DueDate}}.

Invoice Details:
- Invoice Number: {{.InvoiceNumber}}
- Amount: ${{.TotalAmount}}
- Due Date: {{.DueDate}}
- Days Overdue: {{.DaysOverdue}}

We understand that sometimes invoices can be overlooked. If you have any questions about this invoice or need to discuss payment terms, please don't hesitate to reach out.

Thank you for your business!

Best regards,
{{.CompanyName}}`)),
	},
	TierUrgent: {
		subject: template.Must(template.New("urgent-subject").Parse(
			"URGENT: Payment Required - Invoice {{.InvoiceNumber}}")),
		body: template.Must(template.New("urgent-body").Parse(
			`Dear {{.ClientName}},

This is an urgent reminder that your invoice #{{.InvoiceNumber}} for ${{.TotalAmount}} is now {{.DaysOverdue}} days overdue.

Invoice Details:
- Invoice Number: {{.InvoiceNumber}}
- Amount: ${{.TotalAmount}}
- Due Date: {{.DueDate}}
- Days Overdue: {{.DaysOverdue}}

To avoid any service interruption, please arrange payment immediately. If you have already made this payment, please disregard this notice and accept our apologies for any inconvenience.

If you're experiencing difficulties with payment, please contact us immediately to discuss alternative arrangements.

Thank you for your prompt attention to this matter.

Best regards,
{{.CompanyName}}`)),
	},
	TierFinal: {
		subject: template.Must(template.New("final-subject").Parse(
			"FINAL NOTICE - Invoice {{.InvoiceNumber}} - Immediate Action Required")),
		body: template.Must(template.New("final-body").Parse(
			`Dear {{.ClientName}},

This is a FINAL NOTICE regarding your overdue invoice #{{.InvoiceNumber}} for ${{.TotalAmount}}, which is now {{.DaysOverdue}} days past due.

Invoice Details:
- Invoice Number: {{.InvoiceNumber}}
- Amount: ${{.TotalAmount}}
- Due Date: {{.DueDate}}
- Days Overdue: {{.DaysOverdue}}

IMMEDIATE ACTION REQUIRED: Payment must be received within 7 days to avoid further collection action.

If payment is not received by {{.FinalDeadline}}, we may be forced to suspend services or forward this account for collection.

Please contact us immediately if you need to discuss payment arrangements.

Best regards,
{{.CompanyName}}`)),
	},
}

type reminderData struct {
	ClientName    string
	InvoiceNumber string
	TotalAmount   string
	DueDate       string
	DaysOverdue   int
	CompanyName   string
	FinalDeadline string
}

// ReminderDetail records the outcome for one invoice in a reminder run.
type ReminderDetail struct {
	Invoice     string `json:"invoice"`
	Status      string `json:"status"`
	Tier        Tier   `json:"type,omitempty"`
	DaysOverdue int    `json:"days_overdue,omitempty"`
	Client      string `json:"client,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// ReminderResults aggregates a reminder run over a batch of invoices.
type ReminderResults struct {
	Processed int              `json:"processed"`
	Sent      int              `json:"sent"`
	Failed    int              `json:"failed"`
	Skipped   int              `json:"skipped"`
	Details   []ReminderDetail `json:"details"`
}

// ReminderService sends escalating overdue reminders over an EmailSender.
type ReminderService struct {
	Sender EmailSender
	Now    func() time.Time
	Logger invoice.Logger
}

// NewReminderService creates a reminder service with a no-op logger.
func NewReminderService(sender EmailSender) *ReminderService {
	return &ReminderService{Sender: sender, Logger: invoice.NopLogger{}}
}

// ProcessOverdue walks the batch, skips invoices that are paid or not yet
// overdue, and sends a tiered reminder for the rest. Per-invoice failures
// are recorded in the results, never returned as an error.
func (s *ReminderService) ProcessOverdue(ctx context.Context, invoices []invoice.Invoice) (ReminderResults, error) {
	if s == nil || s.Sender == nil {
		return ReminderResults{}, invoice.NewError(invoice.KindValidation, "reminder service requires a sender", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	results := ReminderResults{Details: []ReminderDetail{}}
	now := nowOr(s.Now)

	for _, inv := range invoices {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		due, err := invoice.ParseDate(inv.DueDate)
		if err != nil {
			results.Failed++
			results.Details = append(results.Details, ReminderDetail{
				Invoice: inv.InvoiceNumber,
				Status:  "failed",
				Reason:  err.Error(),
			})
			continue
		}

		daysOverdue := int(now.Sub(due).Hours() / 24)
		if daysOverdue <= 0 || inv.Status == invoice.StatusPaid {
			results.Skipped++
			results.Details = append(results.Details, ReminderDetail{
				Invoice: inv.InvoiceNumber,
				Status:  "skipped",
				Reason:  "not overdue or already paid",
			})
			continue
		}

		results.Processed++
		tier := TierFor(daysOverdue)

		if err := s.sendReminder(ctx, inv, tier, due, daysOverdue, now); err != nil {
			s.logger().Errorf("reminder for invoice %s failed: %v", inv.InvoiceNumber, err)
			results.Failed++
			results.Details = append(results.Details, ReminderDetail{
				Invoice: inv.InvoiceNumber,
				Status:  "failed",
				Reason:  err.Error(),
			})
			continue
		}

		results.Sent++
		results.Details = append(results.Details, ReminderDetail{
			Invoice:     inv.InvoiceNumber,
			Status:      "sent",
			Tier:        tier,
			DaysOverdue: daysOverdue,
			Client:      inv.ClientName,
		})
	}

	return results, nil
}

func (s *ReminderService) sendReminder(ctx context.Context, inv invoice.Invoice, tier Tier, due time.Time, daysOverdue int, now time.Time) error {
	tmpl, ok := reminderTemplates[tier]
	if !ok {
		return invoice.NewError(invoice.KindValidation, "unknown reminder tier", nil)
	}

	company := inv.CompanyName
	if company == "" {
		company = "Your Company"
	}
	data := reminderData{
		ClientName:    inv.ClientName,
		InvoiceNumber: inv.InvoiceNumber,
		TotalAmount:   inv.Total.StringFixed(2),
		DueDate:       due.Format(longDateLayout),
		DaysOverdue:   daysOverdue,
		CompanyName:   company,
		FinalDeadline: now.AddDate(0, 0, 7).Format(longDateLayout),
	}

	subject, err := renderTemplate(tmpl.subject, data)
	if err != nil {
		return invoice.NewError(invoice.KindInternal, "render reminder subject failed", err)
	}
	body, err := renderTemplate(tmpl.body, data)
	if err != nil {
		return invoice.NewError(invoice.KindInternal, "render reminder body failed", err)
	}

	return s.Sender.Send(ctx, EmailMessage{
		To:      inv.ClientEmail,
		Subject: subject,
		Body:    body,
	})
}

func renderTemplate(tmpl *template.Template, data reminderData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *ReminderService) logger() invoice.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return invoice.NopLogger{}
}
