package document

// DefaultTemplateName is the stock invoice template identifier.
const DefaultTemplateName = "default_invoice"

// DefaultTemplate builds the stock invoice template: company and invoice
// headers, a bill-to block, the item table with its template row, a summary
// table, and a notes section.
func DefaultTemplate() Document {
	return Document{
		Name: DefaultTemplateName,
		Header: []Paragraph{
			paragraph("{{company_name}}"),
		},
		Paragraphs: []Paragraph{
			paragraph("{{company_address}}"),
			paragraph("Phone: {{company_phone}}"),
			paragraph("Email: {{company_email}}"),
			paragraph("Website: {{company_website}}"),
			paragraph("INVOICE"),
			paragraph("Invoice #: {{invoice_number}}"),
			paragraph("Date: {{invoice_date}}"),
			paragraph("Due Date: {{due_date}}"),
			paragraph("Bill To:"),
			paragraph("{{client_name}}"),
			paragraph("{{client_address}}"),
			paragraph("Email: {{client_email}}"),
			paragraph("Notes:"),
			paragraph("{{notes}}"),
		},
		Tables: []Table{
			{
				Rows: []Row{
					row("Item", "Description", "Rate", "Qty", "Amount"),
					row("{{item_name}}", "{{item_description}}", "{{item_rate}}", "{{item_quantity}}", "{{item_amount}}"),
				},
			},
			{
				Rows: []Row{
					row("Subtotal:", "{{subtotal}}"),
					row("Discount:", "{{discount_amount}}"),
					row("VAT ({{vat_rate}}%):", "{{vat_amount}}"),
					row("Total:", "{{total}}"),
				},
			},
		},
		Footer: []Paragraph{
			paragraph("{{thank_you_message}}"),
		},
	}
}

func paragraph(text string) Paragraph {
	return Paragraph{Runs: []Run{{Text: text}}}
}

func row(cells ...string) Row {
	out := Row{Cells: make([]Cell, len(cells))}
	for i, text := range cells {
		out.Cells[i] = Cell{Text: text}
	}
	return out
}
