package document

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/goliatone/go-invoice/invoice"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func fieldInvoice() invoice.Invoice {
	return invoice.Invoice{
		InvoiceNumber: "INV-042",
		ClientName:    "Acme Corp",
		ClientEmail:   "billing@acme.test",
		AddressLine1:  "1 Main St",
		City:          "Springfield",
		Country:       "USA",
		CompanyName:   "Widgets Ltd",
		InvoiceDate:   "2024-03-01",
		DueDate:       "2024-03-31",
		Subtotal:      dec("100"),
		Discount:      dec("10"),
		VAT:           dec("7.5"),
		Total:         dec("96.75"),
		Status:        invoice.StatusSent,
		Notes:         "thanks",
	}
}

func TestBuildFieldMapFormatting(t *testing.T) {
	fields := BuildFieldMap(fieldInvoice())

	cases := map[string]string{
		"company_name":    "Widgets Ltd",
		"invoice_number":  "INV-042",
		"client_name":     "Acme Corp",
		"client_address":  "1 Main St, Springfield, USA",
		"subtotal":        "$100.00",
		"discount_amount": "$10.00",
		"vat_rate":        "7.5",
		"vat_amount":      "$7.50",
		"total":           "$96.75",
		"status":          "sent",
		"notes":           "thanks",
		"currency":        "$",
	}
	for key, want := range cases {
		if got := fields[key]; got != want {
			t.Fatalf("fields[%q] = %q, want %q", key, got, want)
		}
	}
}

func TestBuildFieldMapDefaults(t *testing.T) {
	fields := BuildFieldMap(invoice.Invoice{})

	if fields["company_name"] != "Your Company" {
		t.Fatalf("company_name = %q", fields["company_name"])
	}
	if fields["invoice_number"] != "INV-001" {
		t.Fatalf("invoice_number = %q", fields["invoice_number"])
	}
	if fields["status"] != "draft" {
		t.Fatalf("status = %q", fields["status"])
	}
	if fields["payment_terms"] != "Net 30 days" {
		t.Fatalf("payment_terms = %q", fields["payment_terms"])
	}
	if fields["subtotal"] != "$0.00" {
		t.Fatalf("subtotal = %q", fields["subtotal"])
	}
	if fields["client_address"] != "" {
		t.Fatalf("client_address = %q", fields["client_address"])
	}
}

func TestBuildFieldMapDerivesVATAmount(t *testing.T) {
	inv := fieldInvoice()
	inv.VAT = dec("20")
	inv.Subtotal = dec("50")

	fields := BuildFieldMap(inv)
	if fields["vat_amount"] != "$10.00" {
		t.Fatalf("vat_amount = %q", fields["vat_amount"])
	}
}

func TestItemFields(t *testing.T) {
	fields := itemFields(invoice.LineItem{
		Name:        "Design",
		Description: "logo work",
		Quantity:    dec("2"),
		Rate:        dec("25"),
		Amount:      dec("50"),
	})

	if fields["item_name"] != "Design" {
		t.Fatalf("item_name = %q", fields["item_name"])
	}
	if fields["item_quantity"] != "2" {
		t.Fatalf("item_quantity = %q", fields["item_quantity"])
	}
	if fields["item_rate"] != "$25.00" || fields["item_amount"] != "$50.00" {
		t.Fatalf("money = %q %q", fields["item_rate"], fields["item_amount"])
	}
	if _, ok := fields["invoice_number"]; ok {
		t.Fatal("item scope must not include invoice fields")
	}
}
