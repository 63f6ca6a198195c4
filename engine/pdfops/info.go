package pdfops

import (
	"fmt"
	"math"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Info describes a document. Metadata fields are empty when the source has none.
type Info struct {
	Pages            int     `json:"pages"`
	PageSize         string  `json:"pageSize"`
	Width            float64 `json:"width"`
	Height           float64 `json:"height"`
	FileSize         int     `json:"fileSize"`
	Title            string  `json:"title,omitempty"`
	Author           string  `json:"author,omitempty"`
	Subject          string  `json:"subject,omitempty"`
	Keywords         string  `json:"keywords,omitempty"`
	Creator          string  `json:"creator,omitempty"`
	Producer         string  `json:"producer,omitempty"`
	CreationDate     string  `json:"creationDate,omitempty"`
	ModificationDate string  `json:"modificationDate,omitempty"`
}

// Info reports page count, first page size in points and metadata.
func (e *Engine) Info(data []byte) (*Info, error) {
	ctx, err := e.load(data, e.config())
	if err != nil {
		return nil, err
	}

	info := &Info{
		Pages:            ctx.PageCount,
		FileSize:         len(data),
		Title:            ctx.XRefTable.Title,
		Author:           ctx.XRefTable.Author,
		Subject:          ctx.XRefTable.Subject,
		Keywords:         ctx.XRefTable.Keywords,
		Creator:          ctx.XRefTable.Creator,
		Producer:         ctx.XRefTable.Producer,
		CreationDate:     pdfDate(ctx.XRefTable.CreationDate),
		ModificationDate: pdfDate(ctx.XRefTable.ModDate),
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}
	if len(dims) > 0 {
		info.Width = dims[0].Width
		info.Height = dims[0].Height
		info.PageSize = fmt.Sprintf("%.0f x %.0f pts", math.Round(dims[0].Width), math.Round(dims[0].Height))
	}
	return info, nil
}

// pdfDate converts a PDF date string to RFC 3339, keeping the raw value if it does not parse.
func pdfDate(s string) string {
	if s == "" {
		return ""
	}
	if t, ok := types.DateTime(s, true); ok {
		return t.UTC().Format(time.RFC3339)
	}
	return s
}
