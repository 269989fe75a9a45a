package invoice

import (
	"context"
	"encoding/csv"
	"strings"
)

const (
	dayFirstDateLayout = "02/01/2006"
	isoDateLayout      = "2006-01-02"

	// schema constants required by the contact-centric importer; they do not
	// exist on the source invoice
	contactAccountCode = "200"
	contactTaxType     = "GST"

	netTaxCurrency = "USD"
)

// exportContactCSV emits one row per (invoice, item) with the invoice-level
// contact fields repeated on every row. Dates are day/month/year.
func (e *Exporter) exportContactCSV(ctx context.Context, invoices []Invoice) (string, []ExportIssue, error) {
	header := []string{
		"ContactName", "EmailAddress", "POAddressLine1", "POCity", "POCountry",
		"InvoiceNumber", "InvoiceDate", "DueDate", "Total", "Status",
		"Description", "Quantity", "UnitAmount", "AccountCode", "TaxType",
	}

	return writeCSV(ctx, invoices, header, func(inv Invoice, w *csv.Writer) error {
		issued, due, err := inv.invoiceDates()
		if err != nil {
			return err
		}
		for _, item := range inv.Items {
			row := []string{
				inv.ClientName,
				inv.ClientEmail,
				inv.AddressLine1,
				inv.City,
				inv.Country,
				inv.InvoiceNumber,
				issued.Format(dayFirstDateLayout),
				due.Format(dayFirstDateLayout),
				inv.Total.String(),
				strings.ToUpper(string(inv.Status)),
				item.Name + ": " + item.Description,
				item.Quantity.String(),
				item.Rate.String(),
				contactAccountCode,
				contactTaxType,
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// exportNetTaxCSV emits one row per invoice. The tax amount is derived from
// the VAT rate and subtotal at export time and rendered to two decimals.
func (e *Exporter) exportNetTaxCSV(ctx context.Context, invoices []Invoice) (string, []ExportIssue, error) {
	header := []string{
		"Customer", "Invoice_No", "Date", "Due_Date", "Reference",
		"Description", "Net_Amount", "Tax_Amount", "Total_Amount",
		"Status", "Currency",
	}

	return writeCSV(ctx, invoices, header, func(inv Invoice, w *csv.Writer) error {
		issued, due, err := inv.invoiceDates()
		if err != nil {
			return err
		}
		return w.Write([]string{
			inv.ClientName,
			inv.InvoiceNumber,
			issued.Format(dayFirstDateLayout),
			due.Format(dayFirstDateLayout),
			inv.InvoiceNumber,
			"Invoice for " + inv.ClientName,
			inv.Subtotal.String(),
			inv.VATAmount().StringFixed(2),
			inv.Total.String(),
			TitleCase(string(inv.Status)),
			netTaxCurrency,
		})
	})
}

// exportLineItemCSV emits one row per (invoice, item) with rate and amount at
// two decimals. The invoice total appears only on the first item row of each
// invoice; downstream importers rely on that positional rule.
func (e *Exporter) exportLineItemCSV(ctx context.Context, invoices []Invoice) (string, []ExportIssue, error) {
	header := []string{
		"Customer name", "Customer email", "Invoice number", "Invoice date",
		"Due date", "Product/Service", "Description", "Quantity", "Rate",
		"Amount", "Tax name", "Tax rate", "Invoice total", "Invoice status",
	}

	return writeCSV(ctx, invoices, header, func(inv Invoice, w *csv.Writer) error {
		issued, due, err := inv.invoiceDates()
		if err != nil {
			return err
		}

		taxName, taxRate := "", ""
		if inv.VAT.IsPositive() {
			taxName = "VAT"
			taxRate = inv.VAT.String() + "%"
		}

		for i, item := range inv.Items {
			total := ""
			if i == 0 {
				total = inv.Total.String()
			}
			row := []string{
				inv.ClientName,
				inv.ClientEmail,
				inv.InvoiceNumber,
				issued.Format(isoDateLayout),
				due.Format(isoDateLayout),
				item.Name,
				item.Description,
				item.Quantity.String(),
				item.Rate.StringFixed(2),
				item.Amount.StringFixed(2),
				taxName,
				taxRate,
				total,
				TitleCase(string(inv.Status)),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// exportFlatCSV emits one row per invoice with the items preserved as a
// single embedded JSON field. This is the universal lossless fallback.
func (e *Exporter) exportFlatCSV(ctx context.Context, invoices []Invoice) (string, []ExportIssue, error) {
	header := []string{
		"Invoice Number", "Client Name", "Client Email", "Invoice Date",
		"Due Date", "Subtotal", "Discount", "Tax Rate", "Tax Amount",
		"Total", "Status", "Notes", "Items JSON",
	}

	return writeCSV(ctx, invoices, header, func(inv Invoice, w *csv.Writer) error {
		issued, due, err := inv.invoiceDates()
		if err != nil {
			return err
		}
		items, err := inv.Items.EncodeJSON()
		if err != nil {
			return NewError(KindData, "invoice "+inv.InvoiceNumber+": invalid items", err)
		}
		return w.Write([]string{
			inv.InvoiceNumber,
			inv.ClientName,
			inv.ClientEmail,
			issued.Format(isoDateLayout),
			due.Format(isoDateLayout),
			inv.Subtotal.String(),
			inv.Discount.String(),
			inv.VAT.String() + "%",
			inv.VATAmount().StringFixed(2),
			inv.Total.String(),
			TitleCase(string(inv.Status)),
			inv.Notes,
			items,
		})
	})
}

// writeCSV runs one mapper per invoice, buffering each invoice's rows so a
// data error drops that invoice without emitting partial rows.
func writeCSV(ctx context.Context, invoices []Invoice, header []string, mapRow func(Invoice, *csv.Writer) error) (string, []ExportIssue, error) {
	var out strings.Builder
	writer := csv.NewWriter(&out)
	if err := writer.Write(header); err != nil {
		return "", nil, err
	}
	writer.Flush()

	var skipped []ExportIssue
	for _, inv := range invoices {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}

		var rows strings.Builder
		buffered := csv.NewWriter(&rows)
		if err := mapRow(inv, buffered); err != nil {
			if KindFromError(err) == KindData {
				skipped = append(skipped, ExportIssue{InvoiceNumber: inv.InvoiceNumber, Err: err})
				continue
			}
			return "", nil, err
		}
		buffered.Flush()
		if err := buffered.Error(); err != nil {
			return "", nil, err
		}
		out.WriteString(rows.String())
	}

	if err := writer.Error(); err != nil {
		return "", nil, err
	}
	return out.String(), skipped, nil
}
