package invoice

import (
	"context"
	"encoding/json"
	"testing"
)

func TestContactCSVRowPerItem(t *testing.T) {
	result, err := testExporter().Export(context.Background(),
		[]Invoice{testInvoice()}, FormatContactCSV)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	rows := parseRows(t, result.Content)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2 items", len(rows))
	}
	if rows[0][0] != "ContactName" {
		t.Fatalf("header = %v", rows[0])
	}

	first := rows[1]
	if first[0] != "Acme Corp" || first[5] != "INV-001" {
		t.Fatalf("row = %v", first)
	}
	// day-first dates
	if first[6] != "01/03/2024" || first[7] != "31/03/2024" {
		t.Fatalf("dates = %q %q", first[6], first[7])
	}
	if first[9] != "SENT" {
		t.Fatalf("status = %q", first[9])
	}
	if first[10] != "Design: logo work" {
		t.Fatalf("description = %q", first[10])
	}
	if first[13] != "200" || first[14] != "GST" {
		t.Fatalf("schema constants = %q %q", first[13], first[14])
	}
	// contact fields repeat on every item row
	if rows[2][0] != "Acme Corp" || rows[2][5] != "INV-001" {
		t.Fatalf("second row = %v", rows[2])
	}
}

func TestNetTaxCSVDerivesTax(t *testing.T) {
	result, err := testExporter().Export(context.Background(),
		[]Invoice{testInvoice()}, FormatNetTaxCSV)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	rows := parseRows(t, result.Content)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1 invoice", len(rows))
	}

	row := rows[1]
	if row[6] != "100" {
		t.Fatalf("net = %q", row[6])
	}
	// 10% of 100, always two decimals
	if row[7] != "10.00" {
		t.Fatalf("tax = %q", row[7])
	}
	if row[8] != "110" {
		t.Fatalf("total = %q", row[8])
	}
	if row[9] != "Sent" {
		t.Fatalf("status = %q", row[9])
	}
	if row[10] != "USD" {
		t.Fatalf("currency = %q", row[10])
	}
}

func TestLineItemCSVTotalOnFirstRowOnly(t *testing.T) {
	result, err := testExporter().Export(context.Background(),
		[]Invoice{testInvoice()}, FormatLineItemCSV)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	rows := parseRows(t, result.Content)
	if len(rows) != 3 {
		t.Fatalf("rows = %d", len(rows))
	}

	if rows[1][12] != "110" {
		t.Fatalf("first row total = %q", rows[1][12])
	}
	if rows[2][12] != "" {
		t.Fatalf("second row total = %q, want empty", rows[2][12])
	}
	// iso dates, two-decimal money
	if rows[1][3] != "2024-03-01" || rows[1][4] != "2024-03-31" {
		t.Fatalf("dates = %q %q", rows[1][3], rows[1][4])
	}
	if rows[1][8] != "25.00" || rows[1][9] != "50.00" {
		t.Fatalf("money = %q %q", rows[1][8], rows[1][9])
	}
	if rows[1][10] != "VAT" || rows[1][11] != "10%" {
		t.Fatalf("tax = %q %q", rows[1][10], rows[1][11])
	}
}

func TestLineItemCSVZeroVAT(t *testing.T) {
	inv := testInvoice()
	inv.VAT = dec("0")

	result, err := testExporter().Export(context.Background(), []Invoice{inv}, FormatLineItemCSV)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	rows := parseRows(t, result.Content)
	if rows[1][10] != "" || rows[1][11] != "" {
		t.Fatalf("tax columns = %q %q, want empty", rows[1][10], rows[1][11])
	}
}

func TestFlatCSVEmbedsItemsJSON(t *testing.T) {
	result, err := testExporter().Export(context.Background(),
		[]Invoice{testInvoice()}, FormatFlatCSV)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	rows := parseRows(t, result.Content)
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}

	row := rows[1]
	if row[0] != "INV-001" || row[10] != "Sent" {
		t.Fatalf("row = %v", row)
	}
	if row[7] != "10%" || row[8] != "10.00" {
		t.Fatalf("tax columns = %q %q", row[7], row[8])
	}

	var items []LineItem
	if err := json.Unmarshal([]byte(row[12]), &items); err != nil {
		t.Fatalf("items column not valid JSON: %v", err)
	}
	if len(items) != 2 || items[0].Name != "Design" {
		t.Fatalf("items = %+v", items)
	}
}

func TestExportAgnosticToItemsEncoding(t *testing.T) {
	literal, err := json.Marshal([]Invoice{testInvoice()})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	// same invoice with the items array wrapped in a JSON string
	var payload []map[string]any
	if err := json.Unmarshal(literal, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	itemsJSON, err := testInvoice().Items.EncodeJSON()
	if err != nil {
		t.Fatalf("encode items: %v", err)
	}
	payload[0]["items"] = itemsJSON
	wrapped, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal wrapped: %v", err)
	}

	fromLiteral, err := DecodeInvoices(literal)
	if err != nil {
		t.Fatalf("decode literal: %v", err)
	}
	fromWrapped, err := DecodeInvoices(wrapped)
	if err != nil {
		t.Fatalf("decode wrapped: %v", err)
	}

	for _, format := range Formats() {
		a, err := testExporter().Export(context.Background(), fromLiteral, format)
		if err != nil {
			t.Fatalf("%s: export literal: %v", format, err)
		}
		b, err := testExporter().Export(context.Background(), fromWrapped, format)
		if err != nil {
			t.Fatalf("%s: export wrapped: %v", format, err)
		}
		if a.Content != b.Content {
			t.Fatalf("%s: outputs differ:\n%s\n---\n%s", format, a.Content, b.Content)
		}
	}
}

func TestFlatCSVEmptyItems(t *testing.T) {
	inv := testInvoice()
	inv.Items = nil

	result, err := testExporter().Export(context.Background(), []Invoice{inv}, FormatFlatCSV)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	rows := parseRows(t, result.Content)
	if rows[1][12] != "[]" {
		t.Fatalf("items column = %q, want empty array", rows[1][12])
	}
}
