package pdfops

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	_ "golang.org/x/image/webp"

	"github.com/drummonds/gopdfapi/engine/apierr"
)

// ImagesToPDF packs each image onto its own page sized to the image, in input order.
func (e *Engine) ImagesToPDF(images [][]byte) ([]byte, error) {
	if len(images) == 0 {
		return nil, apierr.Missing("No files uploaded")
	}

	readers := make([]io.Reader, 0, len(images))
	for i, img := range images {
		normalized, err := normalizeImage(img)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i+1, err)
		}
		readers = append(readers, bytes.NewReader(normalized))
	}

	imp := pdfcpu.DefaultImportConfig()
	imp.Pos = types.Full

	var buf bytes.Buffer
	if err := api.ImportImages(nil, &buf, readers, imp, e.config()); err != nil {
		return nil, fmt.Errorf("%w: %w", apierr.ErrUnsupportedImage, err)
	}
	return buf.Bytes(), nil
}

// normalizeImage passes PNG and JPEG through and re-encodes anything else as PNG.
func normalizeImage(data []byte) ([]byte, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apierr.ErrUnsupportedImage, err)
	}
	if format == "png" || format == "jpeg" {
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", apierr.ErrUnsupportedImage, format, err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("%w: re-encoding %s: %w", apierr.ErrUnsupportedImage, format, err)
	}
	Logger.Debug("Re-encoded image as PNG", "format", format)
	return buf.Bytes(), nil
}
