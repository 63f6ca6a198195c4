package pdfrenderer

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// FitzRenderer implements PDF rendering using go-fitz (requires CGo and MuPDF)
type FitzRenderer struct {
}

// NewFitzRenderer creates a new Fitz-based PDF renderer
func NewFitzRenderer() (*FitzRenderer, error) {
	return &FitzRenderer{}, nil
}

func (r *FitzRenderer) PageCount(pdf []byte) (int, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return 0, fmt.Errorf("unable to open PDF document: %w", err)
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

// RenderPages opens the document from memory and renders each requested page
func (r *FitzRenderer) RenderPages(pdf []byte, pages []int, dpi int) ([]image.Image, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}
	defer doc.Close()

	numPages := doc.NumPage()
	images := make([]image.Image, 0, len(pages))
	for _, pageNum := range pages {
		if pageNum < 0 || pageNum >= numPages {
			return nil, fmt.Errorf("page %d out of range (document has %d pages)", pageNum+1, numPages)
		}
		img, err := doc.ImageDPI(pageNum, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("unable to render page %d: %w", pageNum+1, err)
		}
		images = append(images, img)
	}
	return images, nil
}

// Close cleans up resources (no-op for Fitz renderer as doc is closed per-render)
func (r *FitzRenderer) Close() error {
	return nil
}
