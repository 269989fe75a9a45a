package document

import (
	"strings"

	"github.com/goliatone/go-invoice/invoice"
	"github.com/shopspring/decimal"
)

const currencyGlyph = "$"

// FieldMap is the immutable token lookup built for one render call.
type FieldMap map[string]string

// BuildFieldMap flattens an invoice into display-formatted token values.
// Currency fields carry the glyph and two decimals, percentages one decimal.
// Absent fields default to empty text or zero-valued currency so rendering
// never fails on missing data.
func BuildFieldMap(inv invoice.Invoice) FieldMap {
	companyName := inv.CompanyName
	if companyName == "" {
		companyName = "Your Company"
	}
	invoiceNumber := inv.InvoiceNumber
	if invoiceNumber == "" {
		invoiceNumber = "INV-001"
	}
	status := string(inv.Status)
	if status == "" {
		status = string(invoice.StatusDraft)
	}
	paymentTerms := inv.PaymentTerms
	if paymentTerms == "" {
		paymentTerms = "Net 30 days"
	}

	discountAmount := decimal.Zero
	if !inv.Discount.IsZero() {
		discountAmount = inv.Discount.Div(decimal.NewFromInt(100)).Mul(inv.Subtotal)
	}

	return FieldMap{
		"company_name":    companyName,
		"company_address": inv.CompanyAddress,
		"company_phone":   inv.CompanyPhone,
		"company_email":   inv.CompanyEmail,
		"company_website": inv.CompanyWebsite,

		"invoice_number": invoiceNumber,
		"invoice_date":   inv.InvoiceDate,
		"due_date":       inv.DueDate,
		"status":         status,

		"client_name":    inv.ClientName,
		"client_email":   inv.ClientEmail,
		"client_phone":   inv.ClientPhone,
		"client_address": clientAddress(inv),

		"subtotal":        currency(inv.Subtotal),
		"discount_amount": currency(discountAmount),
		"vat_rate":        percent(inv.VAT),
		"vat_amount":      currency(inv.VATAmount()),
		"deposit_amount":  currency(inv.Deposit),
		"total":           currency(inv.Total),
		"currency":        currencyGlyph,

		"notes":             inv.Notes,
		"payment_terms":     paymentTerms,
		"thank_you_message": "Thank you for your business!",
	}
}

// itemFields builds the item-scoped mapping used for generated table rows.
func itemFields(item invoice.LineItem) FieldMap {
	return FieldMap{
		"item_name":        item.Name,
		"item_description": item.Description,
		"item_quantity":    item.Quantity.String(),
		"item_rate":        currency(item.Rate),
		"item_amount":      currency(item.Amount),
	}
}

func currency(value decimal.Decimal) string {
	return currencyGlyph + value.StringFixed(2)
}

func percent(value decimal.Decimal) string {
	return value.StringFixed(1)
}

func clientAddress(inv invoice.Invoice) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{inv.AddressLine1, inv.City, inv.Country} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}
