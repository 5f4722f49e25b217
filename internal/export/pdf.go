package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// A4 paper size in inches.
const (
	a4WidthInches  = 8.27
	a4HeightInches = 11.69
)

// Printer turns a print document into PDF bytes.
type Printer interface {
	PrintToPDF(ctx context.Context, html string) ([]byte, error)
}

// ChromePrinter prints through a headless Chrome instance driven by chromedp.
// Every call starts its own browser, so a ChromePrinter may be shared.
type ChromePrinter struct {
	ExecPath string
	Timeout  time.Duration
	Verbose  bool
}

// NewChromePrinter returns a printer using the given Chrome binary (empty for the
// default lookup) and per-document timeout.
func NewChromePrinter(execPath string, timeout time.Duration) *ChromePrinter {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ChromePrinter{ExecPath: execPath, Timeout: timeout}
}

// PrintToPDF loads html into a blank page and prints it to an A4 PDF with backgrounds.
func (p *ChromePrinter) PrintToPDF(ctx context.Context, html string) ([]byte, error) {
	if p.Verbose {
		log.Printf("[PRINT] Starting headless browser for %d bytes of markup", len(html))
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if p.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(p.ExecPath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, p.Timeout)
	defer cancel()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4WidthInches).
				WithPaperHeight(a4HeightInches).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, &SurfaceError{Message: "headless browser could not print the document", Cause: err}
	}

	if p.Verbose {
		log.Printf("[PRINT] Rendered PDF: %d bytes", len(pdf))
	}
	return pdf, nil
}

// ErrNoPrinter is returned when PDF export is requested without a configured printer.
var ErrNoPrinter = errors.New("no PDF printer configured")

// PDFFilename is the download name of the printed CV.
const PDFFilename = "cv.pdf"

// ExportPDF prints the current preview snapshot with the given stylesheet.
func ExportPDF(ctx context.Context, printer Printer, snapshot, stylesheet string) (Artifact, error) {
	if printer == nil {
		return Artifact{}, &SurfaceError{Message: "PDF export unavailable", Cause: ErrNoPrinter}
	}

	doc, err := buildPrintDocument(snapshot, stylesheet, false)
	if err != nil {
		return Artifact{}, err
	}

	pdf, err := printer.PrintToPDF(ctx, doc)
	if err != nil {
		var surfaceErr *SurfaceError
		if errors.As(err, &surfaceErr) {
			return Artifact{}, err
		}
		return Artifact{}, &SurfaceError{Message: "printing failed", Cause: err}
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		return Artifact{}, &ExportError{Message: fmt.Sprintf("printer returned %d bytes that are not a PDF", len(pdf))}
	}

	return Artifact{
		Filename:    PDFFilename,
		ContentType: "application/pdf",
		Body:        pdf,
	}, nil
}
