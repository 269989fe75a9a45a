package invoicepdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/goliatone/go-invoice/document"
	"github.com/goliatone/go-invoice/invoice"
)

// Pipeline turns one invoice into a PDF: resolve and render the template,
// lay the result out as HTML, hand the intermediate file to the engine.
type Pipeline struct {
	Renderer *document.Renderer
	Engine   Engine
	// WorkDir holds intermediate HTML files. Empty means the OS temp dir.
	WorkDir string
	Logger  invoice.Logger
}

// NewPipeline creates a pipeline with a no-op logger.
func NewPipeline(renderer *document.Renderer, engine Engine) *Pipeline {
	return &Pipeline{Renderer: renderer, Engine: engine, Logger: invoice.NopLogger{}}
}

// GeneratePDF renders templateName for inv and converts it to PDF bytes.
// The intermediate HTML file is removed on every exit path.
func (p *Pipeline) GeneratePDF(ctx context.Context, templateName string, inv invoice.Invoice) ([]byte, error) {
	if p == nil || p.Renderer == nil || p.Engine == nil {
		return nil, invoice.NewError(invoice.KindValidation, "pdf pipeline requires a renderer and an engine", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	doc, err := p.Renderer.Render(ctx, templateName, inv)
	if err != nil {
		return nil, err
	}

	html, err := document.RenderHTML(doc)
	if err != nil {
		return nil, invoice.NewError(invoice.KindConversion, "html layout failed", err)
	}

	srcPath, err := p.writeIntermediate(html)
	if err != nil {
		return nil, err
	}
	defer os.Remove(srcPath)

	pdf, err := p.Engine.Convert(ctx, srcPath)
	if err != nil {
		p.logger().Errorf("pdf conversion failed for invoice %s: %v", inv.InvoiceNumber, err)
		return nil, err
	}

	p.logger().Debugf("generated pdf for invoice %s (%d bytes)", inv.InvoiceNumber, len(pdf))
	return pdf, nil
}

func (p *Pipeline) writeIntermediate(html string) (string, error) {
	dir := p.WorkDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("invoice-%s.html", uuid.NewString()))
	if err := os.WriteFile(path, []byte(html), 0o600); err != nil {
		return "", invoice.NewError(invoice.KindInternal, "write intermediate html failed", err)
	}
	return path, nil
}

func (p *Pipeline) logger() invoice.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return invoice.NopLogger{}
}
