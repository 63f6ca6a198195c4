// Package pdfrenderer rasterises PDF pages into images.
package pdfrenderer

import (
	"fmt"
	"image"
	"log/slog"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// Backend names accepted by New.
const (
	BackendPDFium = "pdfium"
	BackendFitz   = "fitz"
)

// DefaultDPI is used when a caller does not ask for a resolution.
const DefaultDPI = 150

// Renderer converts PDF pages to images
type Renderer interface {
	// PageCount returns the number of pages in the document
	PageCount(pdf []byte) (int, error)

	// RenderPages renders the given zero-based pages at dpi, in the order given
	RenderPages(pdf []byte, pages []int, dpi int) ([]image.Image, error)

	// Close cleans up any resources used by the renderer
	Close() error
}

// New creates the named renderer; PDFium (pure Go, no CGo) is the default.
func New(backend string) (Renderer, error) {
	switch backend {
	case "", BackendPDFium:
		return NewPDFiumRenderer()
	case BackendFitz:
		return NewFitzRenderer()
	}
	return nil, fmt.Errorf("unknown page renderer %q", backend)
}
