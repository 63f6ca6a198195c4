package pdfrenderer

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/drummonds/gopdfapi/engine/pdfops/pdftest"
)

func TestParseFormat(t *testing.T) {
	cases := map[string]string{"": FormatPNG, "PNG": FormatPNG, "jpg": FormatJPEG, "jpeg": FormatJPEG}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("bmp"); err == nil {
		t.Error("expected error for bmp")
	}
}

func TestEncode(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 20))

	var pngBuf, jpgBuf bytes.Buffer
	if err := Encode(&pngBuf, img, FormatPNG); err != nil {
		t.Fatal(err)
	}
	if _, err := png.DecodeConfig(&pngBuf); err != nil {
		t.Errorf("png output did not decode: %v", err)
	}
	if err := Encode(&jpgBuf, img, FormatJPEG); err != nil {
		t.Fatal(err)
	}
	if _, err := jpeg.DecodeConfig(&jpgBuf); err != nil {
		t.Errorf("jpeg output did not decode: %v", err)
	}
}

func TestNewUnknownBackend(t *testing.T) {
	if _, err := New("ghostscript"); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func testRenderer(t *testing.T, r Renderer) {
	t.Helper()
	defer r.Close()

	doc := pdftest.Build(3)
	n, err := r.PageCount(doc)
	if err != nil {
		t.Fatalf("PageCount failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("PageCount = %d, want 3", n)
	}

	images, err := r.RenderPages(doc, []int{2, 0}, 72)
	if err != nil {
		t.Fatalf("RenderPages failed: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("got %d images, want 2", len(images))
	}
	// Letter at 72 DPI is 612x792 pixels.
	b := images[0].Bounds()
	if b.Dx() < 600 || b.Dx() > 620 || b.Dy() < 780 || b.Dy() > 800 {
		t.Errorf("unexpected image size %dx%d", b.Dx(), b.Dy())
	}
}

func TestPDFiumRenderer(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping WebAssembly PDFium test in short mode")
	}
	r, err := NewPDFiumRenderer()
	if err != nil {
		t.Fatalf("NewPDFiumRenderer failed: %v", err)
	}
	testRenderer(t, r)
}

func TestFitzRenderer(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping MuPDF test in short mode")
	}
	r, err := NewFitzRenderer()
	if err != nil {
		t.Fatalf("NewFitzRenderer failed: %v", err)
	}
	testRenderer(t, r)
}
