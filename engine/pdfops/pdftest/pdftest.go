// Package pdftest writes small but valid PDFs for tests.
package pdftest

import (
	"bytes"
	"fmt"
)

// Options controls the generated document.
type Options struct {
	Pages  int
	Width  float64
	Height float64
	// Rotate is written on every page dictionary when non zero.
	Rotate int
	Title  string
	Author string
}

// Build returns a PDF with pages Letter sized pages, each showing "Page N".
func Build(pages int) []byte {
	return BuildWith(Options{Pages: pages, Width: 612, Height: 792})
}

// BuildWith returns a PDF laid out according to opts.
func BuildWith(opts Options) []byte {
	if opts.Width == 0 {
		opts.Width = 612
	}
	if opts.Height == 0 {
		opts.Height = 792
	}

	// 1 catalog, 2 page tree, 3 font, then a page and a content stream per page.
	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := &bytes.Buffer{}
	for i := 0; i < opts.Pages; i++ {
		fmt.Fprintf(kids, "%d 0 R ", 4+i*2)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids.String(), opts.Pages))
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	for i := 0; i < opts.Pages; i++ {
		rotate := ""
		if opts.Rotate != 0 {
			rotate = fmt.Sprintf(" /Rotate %d", opts.Rotate)
		}
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R%s >>",
			opts.Width, opts.Height, 5+i*2, rotate))
		content := fmt.Sprintf("BT /F1 24 Tf 72 %g Td (Page %d) Tj ET", opts.Height-100, i+1)
		objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	infoRef := 0
	if opts.Title != "" || opts.Author != "" {
		info := "<<"
		if opts.Title != "" {
			info += fmt.Sprintf(" /Title (%s)", opts.Title)
		}
		if opts.Author != "" {
			info += fmt.Sprintf(" /Author (%s)", opts.Author)
		}
		info += " /CreationDate (D:20240102030405Z) >>"
		objects = append(objects, info)
		infoRef = len(objects)
	}

	buf := &bytes.Buffer{}
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(buf, "%010d 00000 n \n", off)
	}

	trailer := fmt.Sprintf("<< /Size %d /Root 1 0 R", len(objects)+1)
	if infoRef != 0 {
		trailer += fmt.Sprintf(" /Info %d 0 R", infoRef)
	}
	trailer += " >>"
	fmt.Fprintf(buf, "trailer\n%s\nstartxref\n%d\n%%%%EOF\n", trailer, xref)
	return buf.Bytes()
}
