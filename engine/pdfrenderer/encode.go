package pdfrenderer

import (
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"
)

// Image formats produced by Encode.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpg"
)

// ParseFormat normalises a requested output format, defaulting to PNG.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	}
	return "", fmt.Errorf("unsupported image format %q", s)
}

// ContentType returns the MIME type of a format from ParseFormat.
func ContentType(format string) string {
	if format == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Encode writes img in the given format.
func Encode(w io.Writer, img image.Image, format string) error {
	if format == FormatJPEG {
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(90))
	}
	return imaging.Encode(w, img, imaging.PNG)
}
