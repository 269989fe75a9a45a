package document

import (
	"context"
	"regexp"
	"strings"

	"github.com/goliatone/go-invoice/invoice"
)

// tokenPattern matches {{identifier}} placeholders.
var tokenPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

const itemTokenMarker = "{{item_"

// Renderer materializes documents from templates and invoice data.
type Renderer struct {
	Store Store
	// KeepUnresolved leaves unrecognized tokens verbatim so template authors
	// see unresolved variables instead of silently losing them. Unresolved
	// tokens are never an error.
	KeepUnresolved bool
	Logger         invoice.Logger
}

// NewRenderer creates a renderer with the degrade-visibly token policy.
func NewRenderer(store Store) *Renderer {
	return &Renderer{Store: store, KeepUnresolved: true, Logger: invoice.NopLogger{}}
}

// Render resolves the named template and materializes it for one invoice.
// The template is not mutated; the result is a new document with tokens
// resolved and item tables expanded to one generated row per line item.
func (r *Renderer) Render(ctx context.Context, templateName string, inv invoice.Invoice) (Document, error) {
	if r == nil || r.Store == nil {
		return Document{}, invoice.NewError(invoice.KindValidation, "renderer requires a template store", nil)
	}
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	template, err := r.Store.Resolve(ctx, templateName)
	if err != nil {
		return Document{}, err
	}

	fields := BuildFieldMap(inv)
	doc := template.Clone()

	r.substituteParagraphs(doc.Header, fields)
	r.substituteParagraphs(doc.Paragraphs, fields)
	r.substituteParagraphs(doc.Footer, fields)

	for i := range doc.Tables {
		doc.Tables[i] = r.renderTable(doc.Tables[i], fields, inv.Items)
	}

	return doc, nil
}

func (r *Renderer) substituteParagraphs(paragraphs []Paragraph, fields FieldMap) {
	for i := range paragraphs {
		for j := range paragraphs[i].Runs {
			paragraphs[i].Runs[j].Text = r.substitute(paragraphs[i].Runs[j].Text, fields)
		}
	}
}

// renderTable runs the per-table state machine: a table with no item token is
// a plain substitution target; otherwise the first item-bearing row becomes
// the template row and the new row list is computed from an immutable
// snapshot, then written back in one shot.
func (r *Renderer) renderTable(table Table, fields FieldMap, items invoice.Items) Table {
	templateIndex := -1
	for i, row := range table.Rows {
		if strings.Contains(row.text(), itemTokenMarker) {
			templateIndex = i
			break
		}
	}

	if templateIndex < 0 {
		for i := range table.Rows {
			for j := range table.Rows[i].Cells {
				table.Rows[i].Cells[j].Text = r.substitute(table.Rows[i].Cells[j].Text, fields)
			}
		}
		return table
	}

	snapshot := table.Rows
	rows := make([]Row, 0, templateIndex+1+len(items))
	for _, row := range snapshot[:templateIndex+1] {
		rows = append(rows, row.clone())
	}

	// The template row stays in place verbatim; generated rows resolve only
	// against the item-scoped mapping.
	templateRow := snapshot[templateIndex]
	for _, item := range items {
		scoped := itemFields(item)
		generated := templateRow.clone()
		for j := range generated.Cells {
			generated.Cells[j].Text = r.substitute(generated.Cells[j].Text, scoped)
		}
		rows = append(rows, generated)
	}

	return Table{Rows: rows}
}

func (r *Renderer) substitute(text string, fields FieldMap) string {
	if text == "" {
		return text
	}
	return tokenPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := match[2 : len(match)-2]
		if value, ok := fields[name]; ok {
			return value
		}
		if r.KeepUnresolved {
			return match
		}
		return ""
	})
}
