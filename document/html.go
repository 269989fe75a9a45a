package document

import (
	"github.com/flosch/pongo2/v6"
)

const invoiceHTMLLayout = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>{{ title }}</title>
  <style>
    * { box-sizing: border-box; }
    body {
      margin: 0;
      padding: 32px;
      font-family: "Helvetica Neue", Arial, sans-serif;
      color: #111827;
      background: #ffffff;
    }
    .page { max-width: 820px; margin: 0 auto; }
    .header {
      border-bottom: 2px solid #111827;
      padding-bottom: 12px;
      margin-bottom: 24px;
      font-size: 20px;
      font-weight: 600;
    }
    p { margin: 4px 0; font-size: 14px; }
    table {
      width: 100%;
      border-collapse: collapse;
      font-size: 14px;
      margin: 16px 0;
    }
    td {
      padding: 8px 10px;
      border-bottom: 1px solid #e5e7eb;
      text-align: left;
    }
    tr:first-child td { font-weight: 600; color: #6b7280; }
    .footer {
      margin-top: 32px;
      text-align: center;
      font-style: italic;
      color: #6b7280;
    }
  </style>
</head>
<body>
  <div class="page">
    {% for line in header %}<div class="header">{{ line }}</div>
    {% endfor %}{% for line in paragraphs %}<p>{{ line }}</p>
    {% endfor %}{% for table in tables %}<table>
      {% for row in table %}<tr>{% for cell in row %}<td>{{ cell }}</td>{% endfor %}</tr>
      {% endfor %}</table>
    {% endfor %}{% for line in footer %}<div class="footer">{{ line }}</div>
    {% endfor %}
  </div>
</body>
</html>
`

var htmlLayout = pongo2.Must(pongo2.FromString(invoiceHTMLLayout))

// RenderHTML lays out a rendered document as a standalone HTML page, suitable
// for headless PDF conversion or browser preview.
func RenderHTML(doc Document) (string, error) {
	title := doc.Name
	if title == "" {
		title = "Invoice"
	}

	tables := make([][][]string, len(doc.Tables))
	for i, table := range doc.Tables {
		rows := make([][]string, len(table.Rows))
		for j, row := range table.Rows {
			cells := make([]string, len(row.Cells))
			for k, cell := range row.Cells {
				cells[k] = cell.Text
			}
			rows[j] = cells
		}
		tables[i] = rows
	}

	return htmlLayout.Execute(pongo2.Context{
		"title":      title,
		"header":     paragraphText(doc.Header),
		"paragraphs": paragraphText(doc.Paragraphs),
		"tables":     tables,
		"footer":     paragraphText(doc.Footer),
	})
}

func paragraphText(paragraphs []Paragraph) []string {
	out := make([]string, len(paragraphs))
	for i, paragraph := range paragraphs {
		out[i] = paragraph.Text()
	}
	return out
}
