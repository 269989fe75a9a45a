package invoice

import (
	"bytes"
	"context"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestWriteSummaryWorkbook(t *testing.T) {
	var buf bytes.Buffer
	skipped, err := testExporter().WriteSummaryWorkbook(context.Background(),
		[]Invoice{testInvoice()}, &buf)
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	if len(skipped) != 0 {
		t.Fatalf("skipped = %+v", skipped)
	}

	file, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer file.Close()

	rows, err := file.GetRows("Invoices")
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0][0] != "Invoice Number" {
		t.Fatalf("header = %v", rows[0])
	}
	if rows[1][0] != "INV-001" || rows[1][10] != "Sent" {
		t.Fatalf("row = %v", rows[1])
	}
}

func TestWriteSummaryWorkbookSkipsBadDates(t *testing.T) {
	bad := testInvoice()
	bad.InvoiceNumber = "INV-BAD"
	bad.InvoiceDate = "bogus"

	var buf bytes.Buffer
	skipped, err := testExporter().WriteSummaryWorkbook(context.Background(),
		[]Invoice{bad, testInvoice()}, &buf)
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	if len(skipped) != 1 || skipped[0].InvoiceNumber != "INV-BAD" {
		t.Fatalf("skipped = %+v", skipped)
	}

	file, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer file.Close()

	rows, err := file.GetRows("Invoices")
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + surviving invoice", len(rows))
	}
}
