package invoicepdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/goliatone/go-invoice/invoice"
)

const defaultPDFScale = 1.0

var pdfPageSizesInches = map[string]struct {
	width  float64
	height float64
}{
	"A3":     {width: 11.69, height: 16.54},
	"A4":     {width: 8.27, height: 11.69},
	"A5":     {width: 5.83, height: 8.27},
	"LETTER": {width: 8.5, height: 11},
	"LEGAL":  {width: 8.5, height: 14},
}

// ChromiumEngine converts HTML documents into PDF using a shared headless
// Chromium instance.
type ChromiumEngine struct {
	BrowserPath string
	Headless    bool
	Timeout     time.Duration

	PageSize        string
	Landscape       bool
	PrintBackground *bool
	Scale           float64

	initOnce      sync.Once
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// Convert reads the HTML source file and prints it to PDF.
func (e *ChromiumEngine) Convert(ctx context.Context, srcPath string) ([]byte, error) {
	if e == nil {
		return nil, invoice.NewError(invoice.KindInternal, "chromium engine is nil", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	html, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, invoice.NewError(invoice.KindConversion, "read conversion source failed", err)
	}

	if err := e.ensureBrowser(); err != nil {
		return nil, invoice.NewError(invoice.KindConversion, "chromium engine init failed", err)
	}

	tabCtx, cancel := chromedp.NewContext(e.browserCtx)
	defer cancel()

	execCtx, cancelReq := context.WithCancel(tabCtx)
	defer cancelReq()
	go func() {
		select {
		case <-ctx.Done():
			cancelReq()
		case <-execCtx.Done():
		}
	}()
	if e.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		execCtx, cancelTimeout = context.WithTimeout(execCtx, e.Timeout)
		defer cancelTimeout()
	}

	params, err := e.printParams()
	if err != nil {
		return nil, err
	}

	var pdf []byte
	actions := []chromedp.Action{
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err = params.Do(ctx)
			return err
		}),
	}

	if err := chromedp.Run(execCtx, actions...); err != nil {
		return nil, invoice.NewError(invoice.KindConversion, "chromium pdf render failed", err)
	}
	return pdf, nil
}

// Close releases Chromium resources if they have been initialized.
func (e *ChromiumEngine) Close() error {
	if e == nil {
		return nil
	}
	if e.browserCancel != nil {
		e.browserCancel()
	}
	if e.allocCancel != nil {
		e.allocCancel()
	}
	return nil
}

func (e *ChromiumEngine) ensureBrowser() error {
	e.initOnce.Do(func() {
		options := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
		if e.BrowserPath != "" {
			options = append(options, chromedp.ExecPath(e.BrowserPath))
		}
		options = append(options, chromedp.Flag("headless", e.Headless))

		e.allocCtx, e.allocCancel = chromedp.NewExecAllocator(context.Background(), options...)
		e.browserCtx, e.browserCancel = chromedp.NewContext(e.allocCtx)
	})
	if e.allocCtx == nil || e.browserCtx == nil {
		return errors.New("chromium allocator unavailable")
	}
	return nil
}

func (e *ChromiumEngine) printParams() (*page.PrintToPDFParams, error) {
	params := page.PrintToPDF()

	scale := e.Scale
	if scale == 0 {
		scale = defaultPDFScale
	}
	if scale < 0.1 || scale > 2.0 {
		return nil, invoice.NewError(invoice.KindValidation, "pdf scale must be between 0.1 and 2.0", nil)
	}
	params = params.WithScale(scale).WithLandscape(e.Landscape)

	printBackground := true
	if e.PrintBackground != nil {
		printBackground = *e.PrintBackground
	}
	params = params.WithPrintBackground(printBackground)

	if e.PageSize != "" {
		size, ok := pdfPageSizesInches[strings.ToUpper(e.PageSize)]
		if !ok {
			return nil, invoice.NewError(invoice.KindValidation, fmt.Sprintf("unsupported pdf page size: %s", e.PageSize), nil)
		}
		params = params.WithPaperWidth(size.width).WithPaperHeight(size.height)
	} else {
		params = params.WithPreferCSSPageSize(true)
	}

	return params, nil
}
