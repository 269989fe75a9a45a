package invoice

import (
	"context"
	"fmt"
	"time"
)

// ExportIssue reports an invoice excluded from a batch export.
type ExportIssue struct {
	InvoiceNumber string
	Err           error
}

// ExportResult captures a completed export call.
type ExportResult struct {
	Format  Format
	Content string
	Count   int
	Skipped []ExportIssue
}

// Exporter maps invoice batches onto external accounting schemas. Mapping is
// pure and order preserving: rows appear in input order, and line-item rows in
// item order. The only clock access is the tagged ledger header.
type Exporter struct {
	Now    func() time.Time
	Logger Logger
}

// NewExporter creates an exporter with default wiring.
func NewExporter() *Exporter {
	return &Exporter{Now: time.Now, Logger: NopLogger{}}
}

// Export serializes the batch into the named format. A format outside the
// closed set fails fast with no output. A malformed date or numeric field
// excludes only that invoice; siblings still export and the exclusion is
// reported in ExportResult.Skipped.
func (e *Exporter) Export(ctx context.Context, invoices []Invoice, format Format) (ExportResult, error) {
	if err := ctx.Err(); err != nil {
		return ExportResult{}, err
	}

	var (
		content string
		skipped []ExportIssue
		err     error
	)

	switch format {
	case FormatLedgerTagged:
		content, skipped, err = e.exportLedgerTagged(ctx, invoices)
	case FormatContactCSV:
		content, skipped, err = e.exportContactCSV(ctx, invoices)
	case FormatNetTaxCSV:
		content, skipped, err = e.exportNetTaxCSV(ctx, invoices)
	case FormatLineItemCSV:
		content, skipped, err = e.exportLineItemCSV(ctx, invoices)
	case FormatFlatCSV, FormatServiceBillingCSV:
		// service billing has no dedicated schema and rides the lossless
		// flat summary layout
		content, skipped, err = e.exportFlatCSV(ctx, invoices)
	default:
		return ExportResult{}, NewError(KindConfig, fmt.Sprintf("unsupported export format %q", format), nil)
	}
	if err != nil {
		return ExportResult{}, err
	}

	for _, issue := range skipped {
		e.logger().Errorf("export %s: skipped invoice %s: %v", format, issue.InvoiceNumber, issue.Err)
	}

	return ExportResult{
		Format:  format,
		Content: content,
		Count:   len(invoices) - len(skipped),
		Skipped: skipped,
	}, nil
}

func (e *Exporter) logger() Logger {
	if e.Logger == nil {
		return NopLogger{}
	}
	return e.Logger
}

func (e *Exporter) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}
