package invoice

import (
	"context"
	"strings"
)

const (
	ledgerReceivableAccount = "Accounts Receivable"
	ledgerSalesAccount      = "Sales"
	ledgerTerms             = "Net 30"
	ledgerDateLayout        = "01/02/2006"
)

// exportLedgerTagged emits the tab-delimited double-entry ledger. The format
// is stateful across the batch: the header block appears exactly once, the
// ENDTRNS sentinel exactly once after the last invoice. Each item split is
// recorded as the negation of the item amount so a transaction and its splits
// net to zero.
func (e *Exporter) exportLedgerTagged(ctx context.Context, invoices []Invoice) (string, []ExportIssue, error) {
	now := e.now()
	lines := []string{
		"!HDR\tPROD\tVER\tREL\tLEDGERVER\tDATE\tTIME\tACCNT",
		"HDR\tgo-invoice\t2023\tRelease\t1\t" +
			now.Format(ledgerDateLayout) + "\t" + now.Format("15:04:05") + "\tN",
		"!TRNS\tTRNSTYPE\tDATE\tACCNT\tNAME\tCLASS\tAMOUNT\tDOCNUM\tMEMO\tCLEAR\tTOPRINT" +
			"\tNAMEADDR1\tNAMEADDR2\tNAMEADDR3\tNAMEADDR4\tNAMEADDR5\tDUEDATE\tTERMS\tPAID\tSHIPDATE",
	}

	var skipped []ExportIssue
	for _, inv := range invoices {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}

		issued, due, err := inv.invoiceDates()
		if err != nil {
			skipped = append(skipped, ExportIssue{InvoiceNumber: inv.InvoiceNumber, Err: err})
			continue
		}
		date := issued.Format(ledgerDateLayout)

		lines = append(lines, strings.Join([]string{
			"TRNS", "INVOICE", date, ledgerReceivableAccount, inv.ClientName, "",
			inv.Total.String(), inv.InvoiceNumber, "", "N", "Y",
			inv.AddressLine1, inv.City, inv.Country, "", "",
			due.Format(ledgerDateLayout), ledgerTerms, "N", "",
		}, "\t"))

		for _, item := range inv.Items {
			memo := item.Name + ": " + item.Description
			lines = append(lines, strings.Join([]string{
				"SPL", date, ledgerSalesAccount, inv.ClientName, "",
				item.Amount.Neg().String(), inv.InvoiceNumber, memo, "N", "Y",
			}, "\t"))
		}
	}

	lines = append(lines, "ENDTRNS")
	return strings.Join(lines, "\n"), skipped, nil
}
