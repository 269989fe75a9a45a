package invoice

import (
	"fmt"
	"strings"
)

// Format is a named target schema for third-party accounting exports.
type Format string

const (
	// FormatLedgerTagged is the tab-delimited double-entry ledger format:
	// one header block per call, one transaction record per invoice, one
	// negated split per line item, and a single trailing terminator.
	FormatLedgerTagged Format = "accounting_ledger_tagged"
	// FormatContactCSV repeats invoice-level contact fields on one row per
	// line item.
	FormatContactCSV Format = "csv_contact_centric"
	// FormatNetTaxCSV emits one row per invoice with derived tax amounts.
	FormatNetTaxCSV Format = "csv_net_tax_total"
	// FormatLineItemCSV emits one row per line item, invoice total on the
	// first row only.
	FormatLineItemCSV Format = "csv_line_item_detail"
	// FormatFlatCSV is the lossless one-row-per-invoice fallback with items
	// embedded as JSON.
	FormatFlatCSV Format = "csv_flat_summary"
	// FormatServiceBillingCSV is accepted for service-billing importers that
	// consume the flat summary layout; it has no dedicated mapping.
	FormatServiceBillingCSV Format = "csv_service_billing"
)

// Formats returns the closed set of supported export formats.
func Formats() []Format {
	return []Format{
		FormatLedgerTagged,
		FormatContactCSV,
		FormatNetTaxCSV,
		FormatLineItemCSV,
		FormatFlatCSV,
		FormatServiceBillingCSV,
	}
}

// ParseFormat validates a format name against the closed set. An empty value
// defaults to the flat summary fallback; anything else unknown is a
// configuration error and fails before any output is produced.
func ParseFormat(value string) (Format, error) {
	normalized := Format(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return FormatFlatCSV, nil
	}
	for _, format := range Formats() {
		if normalized == format {
			return format, nil
		}
	}
	return "", NewError(KindConfig, fmt.Sprintf("unsupported export format %q", value), nil)
}
