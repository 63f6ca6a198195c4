package pdfops

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/drummonds/gopdfapi/engine/apierr"
)

// Compress rewrites data with shared objects, object streams and an xref stream.
// Embedded images are left as they are.
func (e *Engine) Compress(data []byte) ([]byte, error) {
	conf := e.config()
	conf.WriteObjectStream = true
	conf.WriteXRefStream = true

	var buf bytes.Buffer
	if err := api.Optimize(bytes.NewReader(data), &buf, conf); err != nil {
		return nil, fmt.Errorf("%w: %w", apierr.ErrPDFLoad, err)
	}
	Logger.Debug("Compressed PDF",
		"before", humanize.Bytes(uint64(len(data))),
		"after", humanize.Bytes(uint64(buf.Len())))
	return buf.Bytes(), nil
}

// Merge concatenates documents in the given order.
func (e *Engine) Merge(docs [][]byte) ([]byte, error) {
	if len(docs) < 2 {
		return nil, apierr.Missing("At least 2 PDF files are required")
	}

	readers := make([]io.ReadSeeker, len(docs))
	for i, doc := range docs {
		if len(doc) == 0 {
			return nil, fmt.Errorf("%w: file %d is empty", apierr.ErrPDFLoad, i+1)
		}
		readers[i] = bytes.NewReader(doc)
	}

	var buf bytes.Buffer
	if err := api.MergeRaw(readers, &buf, false, e.config()); err != nil {
		return nil, fmt.Errorf("failed to merge PDFs: %w", err)
	}
	return buf.Bytes(), nil
}
