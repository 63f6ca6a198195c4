package pdfops

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/drummonds/gopdfapi/engine/pagerange"
)

// Rotate adds the requested angle to the current rotation of each selected page.
func (e *Engine) Rotate(data []byte, req RotateRequest) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	angle, _ := req.Degrees()

	ctx, err := e.load(data, e.config())
	if err != nil {
		return nil, err
	}
	indices, err := pagerange.Selection(req.Pages, ctx.PageCount)
	if err != nil {
		return nil, err
	}

	rotated := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if rotated[idx] {
			continue
		}
		rotated[idx] = true

		pageDict, _, inherited, err := ctx.PageDict(idx+1, false)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", idx+1, err)
		}
		if pageDict == nil {
			return nil, fmt.Errorf("page %d not found", idx+1)
		}

		current := 0
		if inherited != nil {
			current = inherited.Rotate
		}
		if own := pageDict.IntEntry("Rotate"); own != nil {
			current = *own
		}
		pageDict.Update("Rotate", types.Integer(NormalizeRotation(current+angle)))
	}

	Logger.Debug("Rotated pages", "angle", angle, "pages", len(rotated))
	return serialize(ctx)
}

// NormalizeRotation maps any multiple of 90 into 0, 90, 180 or 270.
func NormalizeRotation(degrees int) int {
	return ((degrees % 360) + 360) % 360
}
