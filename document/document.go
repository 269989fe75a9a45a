// Package document renders invoice documents from reusable templates.
//
// A template is a structured document of ordered paragraphs and tables whose
// text carries {{name}} tokens. Rendering resolves tokens against a field
// mapping built from one invoice and expands the designated item template row
// into one row per line item. Templates are never mutated; rendering returns
// a new document instance.
package document

// Run is a contiguous piece of paragraph text.
type Run struct {
	Text string `json:"text"`
}

// Paragraph is an ordered sequence of text runs.
type Paragraph struct {
	Runs []Run `json:"runs"`
}

// Text concatenates the paragraph's runs.
func (p Paragraph) Text() string {
	out := ""
	for _, run := range p.Runs {
		out += run.Text
	}
	return out
}

// Cell is one table cell.
type Cell struct {
	Text string `json:"text"`
}

// Row is an ordered sequence of cells.
type Row struct {
	Cells []Cell `json:"cells"`
}

// Table is an ordered sequence of rows. A table whose row text contains an
// item_* token is treated as an item table during rendering.
type Table struct {
	Rows []Row `json:"rows"`
}

// Document is a flat invoice document: section header, body paragraphs and
// tables, section footer.
type Document struct {
	Name       string      `json:"name,omitempty"`
	Header     []Paragraph `json:"header,omitempty"`
	Paragraphs []Paragraph `json:"paragraphs"`
	Tables     []Table     `json:"tables"`
	Footer     []Paragraph `json:"footer,omitempty"`
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := Document{Name: d.Name}
	out.Header = cloneParagraphs(d.Header)
	out.Paragraphs = cloneParagraphs(d.Paragraphs)
	out.Footer = cloneParagraphs(d.Footer)
	if d.Tables != nil {
		out.Tables = make([]Table, len(d.Tables))
		for i, table := range d.Tables {
			out.Tables[i] = table.clone()
		}
	}
	return out
}

func cloneParagraphs(paragraphs []Paragraph) []Paragraph {
	if paragraphs == nil {
		return nil
	}
	out := make([]Paragraph, len(paragraphs))
	for i, paragraph := range paragraphs {
		runs := make([]Run, len(paragraph.Runs))
		copy(runs, paragraph.Runs)
		out[i] = Paragraph{Runs: runs}
	}
	return out
}

func (t Table) clone() Table {
	rows := make([]Row, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = row.clone()
	}
	return Table{Rows: rows}
}

func (r Row) clone() Row {
	cells := make([]Cell, len(r.Cells))
	copy(cells, r.Cells)
	return Row{Cells: cells}
}

// text concatenates the row's cell text with spaces, mirroring how item rows
// are detected.
func (r Row) text() string {
	out := ""
	for i, cell := range r.Cells {
		if i > 0 {
			out += " "
		}
		out += cell.Text
	}
	return out
}
