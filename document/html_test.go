package document

import (
	"context"
	"strings"
	"testing"
)

func TestRenderHTMLLayout(t *testing.T) {
	doc, err := testRenderer(t).Render(context.Background(), DefaultTemplateName, renderInvoice())
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	html, err := RenderHTML(doc)
	if err != nil {
		t.Fatalf("render html: %v", err)
	}

	for _, want := range []string{
		"<!doctype html>",
		"<title>default_invoice</title>",
		`<div class="header">Widgets Ltd</div>`,
		"<td>Design</td>",
		"<td>$50.00</td>",
		"Thank you for your business!",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("html missing %q", want)
		}
	}
}

func TestRenderHTMLEscapesContent(t *testing.T) {
	inv := renderInvoice()
	inv.ClientName = `<script>alert("x")</script>`

	doc, err := testRenderer(t).Render(context.Background(), DefaultTemplateName, inv)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html, err := RenderHTML(doc)
	if err != nil {
		t.Fatalf("render html: %v", err)
	}
	if strings.Contains(html, "<script>alert") {
		t.Fatal("client name not escaped")
	}
}

func TestRenderHTMLDefaultTitle(t *testing.T) {
	html, err := RenderHTML(Document{})
	if err != nil {
		t.Fatalf("render html: %v", err)
	}
	if !strings.Contains(html, "<title>Invoice</title>") {
		t.Fatal("default title missing")
	}
}
