package pdfops

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/drummonds/gopdfapi/engine/apierr"
)

// watermarkEdgeOffset is the distance in points from the page edge for top and bottom placement.
const watermarkEdgeOffset = 50

// Watermark stamps text over every page in mid-gray Helvetica.
func (e *Engine) Watermark(data []byte, req WatermarkRequest) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	conf := e.config()
	if _, err := e.load(data, conf); err != nil {
		return nil, err
	}

	wm, err := api.TextWatermark(req.Text, req.Description(), true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apierr.ErrInvalidOption, err)
	}

	var buf bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(data), &buf, nil, wm, conf); err != nil {
		return nil, fmt.Errorf("failed to add watermark: %w", err)
	}
	return buf.Bytes(), nil
}

// Description renders the request as a pdfcpu watermark description.
// Text stays horizontally centred; top and bottom only move it vertically.
// Diagonal uses the centred placement with the requested rotation.
func (r WatermarkRequest) Description() string {
	opacity, fontSize, rotation, position := r.resolved()

	anchor, dy := "c", 0
	switch position {
	case PositionTop:
		anchor, dy = "tc", -watermarkEdgeOffset
	case PositionBottom:
		anchor, dy = "bc", watermarkEdgeOffset
	}

	return fmt.Sprintf("fontname:Helvetica, points:%d, scalefactor:1 abs, rotation:%s, opacity:%s, fillcolor:#808080, position:%s, offset:0 %d",
		int(math.Round(fontSize)),
		strconv.FormatFloat(clampRotation(rotation), 'f', -1, 64),
		strconv.FormatFloat(opacity, 'f', -1, 64),
		anchor, dy)
}

// clampRotation folds degrees into the -180..180 window pdfcpu accepts.
func clampRotation(degrees float64) float64 {
	r := math.Mod(degrees, 360)
	if r > 180 {
		r -= 360
	}
	if r < -180 {
		r += 360
	}
	return r
}
