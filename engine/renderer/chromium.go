package renderer

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/drummonds/gopdfapi/engine/apierr"
)

// ChromiumRenderer prints HTML, web pages and Markdown with a local headless browser.
// The browser is started on first use and shared by all conversions.
type ChromiumRenderer struct {
	chromePath string
	noSandbox  bool
	timeout    time.Duration
	markdown   goldmark.Markdown

	mu            sync.Mutex
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
}

func NewChromiumRenderer(chromePath string, noSandbox bool, timeout time.Duration) *ChromiumRenderer {
	return &ChromiumRenderer{
		chromePath: chromePath,
		noSandbox:  noSandbox,
		timeout:    timeout,
		markdown:   goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

func (c *ChromiumRenderer) Name() string { return BackendChromium }

func (c *ChromiumRenderer) browser() (context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.browserCtx != nil {
		return c.browserCtx, nil
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("no-first-run", true),
	)
	if c.chromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(c.chromePath))
	}
	if c.noSandbox {
		allocOpts = append(allocOpts, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}
	Logger.Info("Headless browser started", "path", c.chromePath)

	c.browserCtx, c.browserCancel, c.allocCancel = browserCtx, browserCancel, allocCancel
	return browserCtx, nil
}

func (c *ChromiumRenderer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.browserCtx == nil {
		return nil
	}
	c.browserCancel()
	c.allocCancel()
	c.browserCtx = nil
	return nil
}

func (c *ChromiumRenderer) ConvertOffice(ctx context.Context, fileName string, data []byte, opts *ConversionOptions) ([]byte, error) {
	return nil, fmt.Errorf("%w: office conversion needs the Gotenberg backend", apierr.ErrRemoteRender)
}

func (c *ChromiumRenderer) ConvertPDFA(ctx context.Context, fileName string, data []byte) ([]byte, error) {
	return nil, fmt.Errorf("%w: PDF/A conversion needs the Gotenberg backend", apierr.ErrRemoteRender)
}

func (c *ChromiumRenderer) ConvertHTML(ctx context.Context, html string, opts *ConversionOptions) ([]byte, error) {
	f, err := os.CreateTemp("", "gopdfapi-*.html")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	name := f.Name()
	defer os.Remove(name)

	if _, err := f.WriteString(html); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing temp file: %w", err)
	}

	abs, err := filepath.Abs(name)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	return c.print(ctx, "file://"+abs, opts)
}

func (c *ChromiumRenderer) ConvertURL(ctx context.Context, rawURL string, opts *ConversionOptions) ([]byte, error) {
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return nil, fmt.Errorf("%w: invalid URL %q", apierr.ErrInvalidOption, rawURL)
	}
	return c.print(ctx, rawURL, opts)
}

func (c *ChromiumRenderer) ConvertMarkdown(ctx context.Context, markdown string, opts *ConversionOptions) ([]byte, error) {
	html, err := c.MarkdownToHTML(markdown)
	if err != nil {
		return nil, err
	}
	return c.ConvertHTML(ctx, html, opts)
}

// MarkdownToHTML renders GitHub flavoured Markdown into a standalone HTML page.
func (c *ChromiumRenderer) MarkdownToHTML(markdown string) (string, error) {
	var body bytes.Buffer
	if err := c.markdown.Convert([]byte(markdown), &body); err != nil {
		return "", fmt.Errorf("%w: rendering markdown: %w", apierr.ErrRemoteRender, err)
	}
	return `<!doctype html><html><head><meta charset="utf-8"></head><body>` + body.String() + `</body></html>`, nil
}

// Health starts the browser if needed.
func (c *ChromiumRenderer) Health(ctx context.Context) error {
	_, err := c.browser()
	return err
}

func (c *ChromiumRenderer) print(ctx context.Context, targetURL string, opts *ConversionOptions) ([]byte, error) {
	browserCtx, err := c.browser()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apierr.ErrRemoteRender, err)
	}

	tabCtx, tabCancel := chromedp.NewContext(browserCtx)
	defer tabCancel()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		tabCtx, cancel = context.WithTimeout(tabCtx, c.timeout)
		defer cancel()
	}
	// Abandon the print when the request goes away.
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	params := printParams(opts)
	var buf []byte
	if err := chromedp.Run(tabCtx,
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, _, err = params.Do(ctx)
			return err
		}),
	); err != nil {
		return nil, fmt.Errorf("%w: chromium conversion failed: %w", apierr.ErrRemoteRender, err)
	}
	return buf, nil
}

func printParams(opts *ConversionOptions) *page.PrintToPDFParams {
	paper := PaperSizes["A4"]
	if p, ok := opts.Paper(); ok {
		paper = p
	}
	params := page.PrintToPDF().
		WithPaperWidth(paper.Width).
		WithPaperHeight(paper.Height).
		WithPrintBackground(true).
		WithLandscape(opts.IsLandscape())

	if opts == nil {
		return params
	}
	if opts.Margins != nil {
		top, bottom, left, right := opts.Margins.MarginInches()
		params = params.WithMarginTop(top).WithMarginBottom(bottom).WithMarginLeft(left).WithMarginRight(right)
	}
	if opts.Scale != nil {
		params = params.WithScale(*opts.Scale)
	}
	if opts.NativePageRanges != "" {
		params = params.WithPageRanges(opts.NativePageRanges)
	}
	return params
}
