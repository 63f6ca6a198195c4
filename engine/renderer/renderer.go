// Package renderer turns office documents, HTML, web pages and Markdown into PDF.
//
// The default backend is a Gotenberg server reached over HTTP. A local headless
// Chromium backend covers the HTML, URL and Markdown conversions when no
// Gotenberg server is available.
package renderer

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// Renderer converts documents to PDF bytes.
type Renderer interface {
	// Name identifies the backend in health reports.
	Name() string
	ConvertOffice(ctx context.Context, fileName string, data []byte, opts *ConversionOptions) ([]byte, error)
	ConvertHTML(ctx context.Context, html string, opts *ConversionOptions) ([]byte, error)
	ConvertURL(ctx context.Context, url string, opts *ConversionOptions) ([]byte, error)
	ConvertMarkdown(ctx context.Context, markdown string, opts *ConversionOptions) ([]byte, error)
	ConvertPDFA(ctx context.Context, fileName string, data []byte) ([]byte, error)
	// Health returns nil when the backend can accept conversions.
	Health(ctx context.Context) error
	Close() error
}

// Backend names.
const (
	BackendGotenberg = "gotenberg"
	BackendChromium  = "chromium"
)

// Config selects and configures a backend.
type Config struct {
	Backend         string
	GotenbergURL    string
	Timeout         time.Duration
	PDFAFormat      string
	ChromePath      string
	ChromeNoSandbox bool
}

// New builds the backend named in cfg.
func New(cfg Config) (Renderer, error) {
	switch cfg.Backend {
	case "", BackendGotenberg:
		return NewGotenbergClient(cfg.GotenbergURL, cfg.Timeout, cfg.PDFAFormat), nil
	case BackendChromium:
		return NewChromiumRenderer(cfg.ChromePath, cfg.ChromeNoSandbox, cfg.Timeout), nil
	}
	return nil, fmt.Errorf("unknown renderer backend %q", cfg.Backend)
}
