package renderer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/drummonds/gopdfapi/engine/apierr"
	"github.com/drummonds/gopdfapi/engine/pagerange"
)

// PaperDimensions are width and height in inches.
type PaperDimensions struct {
	Width  float64
	Height float64
}

// PaperSizes lists the paper sizes callers may request.
var PaperSizes = map[string]PaperDimensions{
	"A4":     {Width: 8.27, Height: 11.7},
	"Letter": {Width: 8.5, Height: 11},
	"Legal":  {Width: 8.5, Height: 14},
	"A3":     {Width: 11.7, Height: 16.5},
}

var imageResolutions = map[int]bool{75: true, 150: true, 300: true, 600: true, 1200: true}

// Margins in inches. The whole object is optional, sides left out are sent as zero.
type Margins struct {
	Top    *float64 `json:"top,omitempty"`
	Bottom *float64 `json:"bottom,omitempty"`
	Left   *float64 `json:"left,omitempty"`
	Right  *float64 `json:"right,omitempty"`
}

// Resolution accepts a DPI as either a JSON number or a numeric string.
type Resolution int

func (r *Resolution) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("maxImageResolution %q is not a number", s)
	}
	*r = Resolution(n)
	return nil
}

// ConversionOptions shape the rendered PDF. They are forwarded to the renderer untouched
// apart from validation and paper size lookup.
type ConversionOptions struct {
	PaperSize   string   `json:"paperSize,omitempty"`
	Orientation string   `json:"orientation,omitempty"`
	Landscape   bool     `json:"landscape,omitempty"`
	Margins     *Margins `json:"margins,omitempty"`
	Scale       *float64 `json:"scale,omitempty"`

	// Office documents only.
	ImageQuality             *int       `json:"imageQuality,omitempty"`
	LosslessImageCompression *bool      `json:"losslessImageCompression,omitempty"`
	ReduceImageResolution    *bool      `json:"reduceImageResolution,omitempty"`
	MaxImageResolution       Resolution `json:"maxImageResolution,omitempty"`
	SinglePageSheets         *bool      `json:"singlePageSheets,omitempty"`
	ExportFormFields         *bool      `json:"exportFormFields,omitempty"`
	NativePageRanges         string     `json:"nativePageRanges,omitempty"`
}

// Validate reports the first option outside its allowed values.
func (o *ConversionOptions) Validate() error {
	if o == nil {
		return nil
	}
	if o.PaperSize != "" {
		if _, ok := PaperSizes[o.PaperSize]; !ok {
			return fmt.Errorf("%w: unknown paperSize %q", apierr.ErrInvalidOption, o.PaperSize)
		}
	}
	switch o.Orientation {
	case "", "portrait", "landscape":
	default:
		return fmt.Errorf("%w: orientation must be portrait or landscape, got %q", apierr.ErrInvalidOption, o.Orientation)
	}
	if o.Scale != nil && *o.Scale <= 0 {
		return fmt.Errorf("%w: scale must be positive", apierr.ErrInvalidOption)
	}
	if o.ImageQuality != nil && (*o.ImageQuality < 1 || *o.ImageQuality > 100) {
		return fmt.Errorf("%w: imageQuality must be between 1 and 100, got %d", apierr.ErrInvalidOption, *o.ImageQuality)
	}
	if o.MaxImageResolution != 0 && !imageResolutions[int(o.MaxImageResolution)] {
		return fmt.Errorf("%w: maxImageResolution must be one of 75, 150, 300, 600, 1200", apierr.ErrInvalidOption)
	}
	if o.NativePageRanges != "" {
		if err := pagerange.Validate(o.NativePageRanges); err != nil {
			return fmt.Errorf("%w: nativePageRanges: %w", apierr.ErrInvalidOption, err)
		}
	}
	if m := o.Margins; m != nil {
		for _, side := range []*float64{m.Top, m.Bottom, m.Left, m.Right} {
			if side != nil && *side < 0 {
				return fmt.Errorf("%w: margins cannot be negative", apierr.ErrInvalidOption)
			}
		}
	}
	return nil
}

// IsLandscape is true for either spelling of landscape.
func (o *ConversionOptions) IsLandscape() bool {
	return o != nil && (o.Landscape || o.Orientation == "landscape")
}

// Paper returns the requested paper size, if any.
func (o *ConversionOptions) Paper() (PaperDimensions, bool) {
	if o == nil || o.PaperSize == "" {
		return PaperDimensions{}, false
	}
	dims, ok := PaperSizes[o.PaperSize]
	if !ok {
		return PaperSizes["A4"], true
	}
	return dims, true
}

// MarginInches returns top, bottom, left and right with missing sides as zero.
func (m *Margins) MarginInches() (top, bottom, left, right float64) {
	if m == nil {
		return 0, 0, 0, 0
	}
	return deref(m.Top), deref(m.Bottom), deref(m.Left), deref(m.Right)
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
