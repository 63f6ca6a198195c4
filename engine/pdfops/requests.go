package pdfops

import (
	"fmt"
	"strings"

	"github.com/drummonds/gopdfapi/engine/apierr"
	"github.com/drummonds/gopdfapi/engine/pagerange"
)

// SplitRequest asks for one output document per page range expression.
type SplitRequest struct {
	PageRanges []string `json:"pageRanges"`
}

func (r SplitRequest) Validate() error {
	if len(r.PageRanges) == 0 {
		return fmt.Errorf("%w: pageRanges must list at least one range", apierr.ErrInvalidOption)
	}
	for _, expr := range r.PageRanges {
		if err := pagerange.Validate(expr); err != nil {
			return err
		}
	}
	return nil
}

// RotateRequest turns the selected pages by Angle degrees on top of their current rotation.
type RotateRequest struct {
	Angle string `json:"angle"`
	// Pages is a page range expression, empty or "all" selects every page.
	Pages string `json:"pages,omitempty"`
}

// Degrees returns the validated rotation angle.
func (r RotateRequest) Degrees() (int, error) {
	switch strings.TrimSpace(r.Angle) {
	case "90":
		return 90, nil
	case "180":
		return 180, nil
	case "270":
		return 270, nil
	}
	return 0, fmt.Errorf("%w: angle must be 90, 180 or 270, got %q", apierr.ErrInvalidOption, r.Angle)
}

func (r RotateRequest) Validate() error {
	if _, err := r.Degrees(); err != nil {
		return err
	}
	if p := strings.TrimSpace(r.Pages); p != "" && !strings.EqualFold(p, pagerange.All) {
		return pagerange.Validate(p)
	}
	return nil
}

// Permissions left unset default to allowed.
type Permissions struct {
	Print  *bool `json:"print,omitempty"`
	Copy   *bool `json:"copy,omitempty"`
	Modify *bool `json:"modify,omitempty"`
}

type EncryptRequest struct {
	UserPassword  string       `json:"userPassword"`
	OwnerPassword string       `json:"ownerPassword,omitempty"`
	Permissions   *Permissions `json:"permissions,omitempty"`
}

func (r EncryptRequest) Validate() error {
	if r.UserPassword == "" {
		return fmt.Errorf("%w: userPassword is required", apierr.ErrInvalidOption)
	}
	return nil
}

// ownerPassword falls back to the user password.
func (r EncryptRequest) ownerPassword() string {
	if r.OwnerPassword == "" {
		return r.UserPassword
	}
	return r.OwnerPassword
}

// Watermark positions.
const (
	PositionCenter   = "center"
	PositionTop      = "top"
	PositionBottom   = "bottom"
	PositionDiagonal = "diagonal"
)

// Watermark defaults.
const (
	DefaultWatermarkFontSize = 48.0
	DefaultWatermarkOpacity  = 0.3
	DefaultWatermarkRotation = -45.0
)

type WatermarkOptions struct {
	Opacity  *float64 `json:"opacity,omitempty"`
	FontSize *float64 `json:"fontSize,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
	Position string   `json:"position,omitempty"`
}

type WatermarkRequest struct {
	Text    string            `json:"text"`
	Options *WatermarkOptions `json:"options,omitempty"`
}

func (r WatermarkRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("%w: watermark text is required", apierr.ErrInvalidOption)
	}
	opacity, fontSize, _, position := r.resolved()
	if opacity < 0 || opacity > 1 {
		return fmt.Errorf("%w: opacity must be between 0 and 1, got %g", apierr.ErrInvalidOption, opacity)
	}
	if fontSize < 1 {
		return fmt.Errorf("%w: fontSize must be at least 1, got %g", apierr.ErrInvalidOption, fontSize)
	}
	switch position {
	case PositionCenter, PositionTop, PositionBottom, PositionDiagonal:
	default:
		return fmt.Errorf("%w: unknown watermark position %q", apierr.ErrInvalidOption, position)
	}
	return nil
}

// resolved applies the defaults for anything the caller left out.
func (r WatermarkRequest) resolved() (opacity, fontSize, rotation float64, position string) {
	opacity, fontSize, rotation, position = DefaultWatermarkOpacity, DefaultWatermarkFontSize, DefaultWatermarkRotation, PositionCenter
	if o := r.Options; o != nil {
		if o.Opacity != nil {
			opacity = *o.Opacity
		}
		if o.FontSize != nil {
			fontSize = *o.FontSize
		}
		if o.Rotation != nil {
			rotation = *o.Rotation
		}
		if o.Position != "" {
			position = o.Position
		}
	}
	return opacity, fontSize, rotation, position
}
