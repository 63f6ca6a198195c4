// Package pdfops performs local PDF to PDF transforms on in-memory documents:
// split, rotate, encrypt, decrypt, watermark, compress, merge, metadata,
// text extraction and packing images into a PDF.
//
// Every call parses its own copy of the input and returns fresh buffers,
// nothing is shared between calls so an Engine is safe for concurrent use.
package pdfops

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/drummonds/gopdfapi/engine/apierr"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// Engine applies transforms with pdfcpu.
type Engine struct {
	// ValidationMode is handed to pdfcpu when reading inputs.
	ValidationMode int
}

// New returns an Engine that reads inputs in relaxed validation mode.
func New() *Engine {
	// pdfcpu otherwise writes a config directory into the user's home.
	api.DisableConfigDir()
	return &Engine{ValidationMode: model.ValidationRelaxed}
}

func (e *Engine) config() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = e.ValidationMode
	return conf
}

// load parses and validates data, counting its pages.
func (e *Engine) load(data []byte, conf *model.Configuration) (*model.Context, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", apierr.ErrPDFLoad)
	}
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apierr.ErrPDFLoad, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("%w: %w", apierr.ErrPDFLoad, err)
	}
	return ctx, nil
}

func serialize(ctx *model.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}
