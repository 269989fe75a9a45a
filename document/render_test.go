package document

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-invoice/invoice"
)

func renderInvoice() invoice.Invoice {
	inv := fieldInvoice()
	inv.Items = invoice.Items{
		{Name: "Design", Description: "logo work", Quantity: dec("2"), Rate: dec("25"), Amount: dec("50")},
		{Name: "Hosting", Description: "march", Quantity: dec("1"), Rate: dec("50"), Amount: dec("50")},
	}
	return inv
}

func testRenderer(t *testing.T) *Renderer {
	t.Helper()
	store := NewMemoryStore()
	store.Put(DefaultTemplateName, DefaultTemplate())
	return NewRenderer(store)
}

func TestRenderSubstitutesTokens(t *testing.T) {
	doc, err := testRenderer(t).Render(context.Background(), DefaultTemplateName, renderInvoice())
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if doc.Header[0].Text() != "Widgets Ltd" {
		t.Fatalf("header = %q", doc.Header[0].Text())
	}

	var joined strings.Builder
	for _, paragraph := range doc.Paragraphs {
		joined.WriteString(paragraph.Text())
		joined.WriteString("\n")
	}
	body := joined.String()
	for _, want := range []string{
		"Invoice #: INV-042",
		"Acme Corp",
		"1 Main St, Springfield, USA",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestRenderExpandsItemTable(t *testing.T) {
	doc, err := testRenderer(t).Render(context.Background(), DefaultTemplateName, renderInvoice())
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	itemTable := doc.Tables[0]
	// header row + verbatim template row + one generated row per item
	if len(itemTable.Rows) != 4 {
		t.Fatalf("rows = %d", len(itemTable.Rows))
	}
	if itemTable.Rows[1].Cells[0].Text != "{{item_name}}" {
		t.Fatalf("template row = %q", itemTable.Rows[1].Cells[0].Text)
	}

	first := itemTable.Rows[2]
	if first.Cells[0].Text != "Design" || first.Cells[4].Text != "$50.00" {
		t.Fatalf("generated row = %+v", first)
	}
	second := itemTable.Rows[3]
	if second.Cells[0].Text != "Hosting" {
		t.Fatalf("generated row = %+v", second)
	}
}

func TestRenderItemTableNoItems(t *testing.T) {
	inv := renderInvoice()
	inv.Items = nil

	doc, err := testRenderer(t).Render(context.Background(), DefaultTemplateName, inv)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	// header row + template row, no generated rows
	if len(doc.Tables[0].Rows) != 2 {
		t.Fatalf("rows = %d", len(doc.Tables[0].Rows))
	}
}

func TestRenderSummaryTable(t *testing.T) {
	doc, err := testRenderer(t).Render(context.Background(), DefaultTemplateName, renderInvoice())
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	summary := doc.Tables[1]
	if summary.Rows[0].Cells[1].Text != "$100.00" {
		t.Fatalf("subtotal = %q", summary.Rows[0].Cells[1].Text)
	}
	if summary.Rows[2].Cells[0].Text != "VAT (7.5%):" {
		t.Fatalf("vat label = %q", summary.Rows[2].Cells[0].Text)
	}
	if summary.Rows[2].Cells[1].Text != "$7.50" {
		t.Fatalf("vat amount = %q", summary.Rows[2].Cells[1].Text)
	}
	if summary.Rows[3].Cells[1].Text != "$96.75" {
		t.Fatalf("total = %q", summary.Rows[3].Cells[1].Text)
	}
}

func TestRenderKeepsUnresolvedTokens(t *testing.T) {
	store := NewMemoryStore()
	store.Put("custom", Document{
		Paragraphs: []Paragraph{paragraph("Hello {{unknownField}} from {{client_name}}")},
	})
	renderer := NewRenderer(store)

	doc, err := renderer.Render(context.Background(), "custom", renderInvoice())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	got := doc.Paragraphs[0].Text()
	if got != "Hello {{unknownField}} from Acme Corp" {
		t.Fatalf("paragraph = %q", got)
	}
}

func TestRenderDropsUnresolvedWhenConfigured(t *testing.T) {
	store := NewMemoryStore()
	store.Put("custom", Document{
		Paragraphs: []Paragraph{paragraph("Hello {{unknownField}}!")},
	})
	renderer := NewRenderer(store)
	renderer.KeepUnresolved = false

	doc, err := renderer.Render(context.Background(), "custom", renderInvoice())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := doc.Paragraphs[0].Text(); got != "Hello !" {
		t.Fatalf("paragraph = %q", got)
	}
}

func TestRenderIdempotentOnTokenFreeText(t *testing.T) {
	store := NewMemoryStore()
	store.Put("plain", Document{
		Paragraphs: []Paragraph{paragraph("No tokens here.")},
		Tables: []Table{{Rows: []Row{
			row("Label", "Value"),
		}}},
	})
	renderer := NewRenderer(store)

	doc, err := renderer.Render(context.Background(), "plain", renderInvoice())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if doc.Paragraphs[0].Text() != "No tokens here." {
		t.Fatalf("paragraph = %q", doc.Paragraphs[0].Text())
	}
	if doc.Tables[0].Rows[0].Cells[0].Text != "Label" {
		t.Fatalf("cell = %q", doc.Tables[0].Rows[0].Cells[0].Text)
	}
}

func TestRenderDoesNotMutateTemplate(t *testing.T) {
	store := NewMemoryStore()
	store.Put(DefaultTemplateName, DefaultTemplate())
	renderer := NewRenderer(store)

	if _, err := renderer.Render(context.Background(), DefaultTemplateName, renderInvoice()); err != nil {
		t.Fatalf("render: %v", err)
	}

	template, err := store.Resolve(context.Background(), DefaultTemplateName)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if template.Header[0].Text() != "{{company_name}}" {
		t.Fatalf("template mutated: %q", template.Header[0].Text())
	}
	if len(template.Tables[0].Rows) != 2 {
		t.Fatalf("template item table mutated: %d rows", len(template.Tables[0].Rows))
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := testRenderer(t).Render(context.Background(), "missing", renderInvoice())
	if err == nil {
		t.Fatal("expected error")
	}
	if invoice.KindFromError(err) != invoice.KindNotFound {
		t.Fatalf("kind = %v", invoice.KindFromError(err))
	}
}
