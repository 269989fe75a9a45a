package invoice

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const summarySheetName = "Invoices"

// WriteSummaryWorkbook writes the flat summary layout as an XLSX workbook for
// human review. Column order matches the csv_flat_summary export; invoices
// with malformed dates are skipped with the same batch isolation semantics.
func (e *Exporter) WriteSummaryWorkbook(ctx context.Context, invoices []Invoice, w io.Writer) ([]ExportIssue, error) {
	file := excelize.NewFile()
	defer func() {
		_ = file.Close()
	}()

	if name := file.GetSheetName(0); name != summarySheetName {
		file.SetSheetName(name, summarySheetName)
	}

	stream, err := file.NewStreamWriter(summarySheetName)
	if err != nil {
		return nil, err
	}

	headerStyle, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	labels := []string{
		"Invoice Number", "Client Name", "Client Email", "Invoice Date",
		"Due Date", "Subtotal", "Discount", "Tax Rate", "Tax Amount",
		"Total", "Status", "Notes", "Items JSON",
	}
	header := make([]any, len(labels))
	for i, label := range labels {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: label}
	}
	if err := stream.SetRow("A1", header); err != nil {
		return nil, err
	}

	var skipped []ExportIssue
	rowIndex := 2
	for _, inv := range invoices {
		if err := ctx.Err(); err != nil {
			return skipped, err
		}

		issued, due, err := inv.invoiceDates()
		if err != nil {
			skipped = append(skipped, ExportIssue{InvoiceNumber: inv.InvoiceNumber, Err: err})
			continue
		}
		items, err := inv.Items.EncodeJSON()
		if err != nil {
			skipped = append(skipped, ExportIssue{InvoiceNumber: inv.InvoiceNumber, Err: err})
			continue
		}

		subtotal, _ := inv.Subtotal.Float64()
		discount, _ := inv.Discount.Float64()
		taxAmount, _ := inv.VATAmount().Round(2).Float64()
		total, _ := inv.Total.Float64()

		row := []any{
			inv.InvoiceNumber,
			inv.ClientName,
			inv.ClientEmail,
			issued.Format(isoDateLayout),
			due.Format(isoDateLayout),
			subtotal,
			discount,
			inv.VAT.String() + "%",
			taxAmount,
			total,
			TitleCase(string(inv.Status)),
			inv.Notes,
			items,
		}
		if err := stream.SetRow(fmt.Sprintf("A%d", rowIndex), row); err != nil {
			return skipped, err
		}
		rowIndex++
	}

	if err := stream.Flush(); err != nil {
		return skipped, err
	}
	if _, err := file.WriteTo(w); err != nil {
		return skipped, err
	}
	return skipped, nil
}
