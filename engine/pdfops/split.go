package pdfops

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/drummonds/gopdfapi/engine/pagerange"
)

// Split produces one document per range expression, in request order.
// A range that selects no pages yields a document without pages.
func (e *Engine) Split(data []byte, req SplitRequest) ([][]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	conf := e.config()
	src, err := e.load(data, conf)
	if err != nil {
		return nil, err
	}

	parts := make([][]byte, 0, len(req.PageRanges))
	for i, expr := range req.PageRanges {
		indices, err := pagerange.Parse(expr, src.PageCount)
		if err != nil {
			return nil, err
		}

		var part *model.Context
		if len(indices) == 0 {
			Logger.Warn("Page range selects no pages", "range", expr, "pages", src.PageCount)
			part, err = pdfcpu.CreateContextWithXRefTable(conf, types.PaperSize["A4"])
		} else {
			part, err = pdfcpu.ExtractPages(src, pagerange.PageNumbers(indices), false)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to build part %d (%s): %w", i+1, expr, err)
		}

		out, err := serialize(part)
		if err != nil {
			return nil, fmt.Errorf("part %d: %w", i+1, err)
		}
		parts = append(parts, out)
	}

	Logger.Debug("Split complete", "parts", len(parts), "sourcePages", src.PageCount)
	return parts, nil
}
