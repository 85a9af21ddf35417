package jsoncfg

import (
	"fmt"
	"strings"

	"studio/internal/domain"
)

// MaxCanvasDimension bounds each canvas axis.
const MaxCanvasDimension = 8192

// CanvasFormat is a named canvas size.
type CanvasFormat struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Label  string `json:"label"`
}

// FormatPresets lists the canvas sizes a render request may name instead of
// explicit dimensions.
var FormatPresets = map[string]CanvasFormat{
	"ig-post":  {Width: 1080, Height: 1080, Label: "Instagram Post"},
	"ig-story": {Width: 1080, Height: 1920, Label: "Instagram Story"},
	"flyer-a5": {Width: 1748, Height: 2480, Label: "Flyer A5"},
	"flyer-a4": {Width: 2480, Height: 3508, Label: "Flyer A4"},
}

// RenderRequest is the wire form of a composition request.
type RenderRequest struct {
	ProjectID    string        `json:"project_id,omitempty"`
	CanvasWidth  int           `json:"canvas_width"`
	CanvasHeight int           `json:"canvas_height"`
	Format       string        `json:"format,omitempty"`
	Zones        []ZonePayload `json:"zones"`
}

// Normalize fills missing canvas dimensions from the named format preset.
func (r *RenderRequest) Normalize() {
	if r == nil {
		return
	}
	preset, ok := FormatPresets[FoldLabel(r.Format)]
	if !ok {
		return
	}
	if r.CanvasWidth == 0 {
		r.CanvasWidth = preset.Width
	}
	if r.CanvasHeight == 0 {
		r.CanvasHeight = preset.Height
	}
}

// Validate checks the canvas bounds and the zone payloads.
func (r RenderRequest) Validate(maxDimension int) error {
	if f := strings.TrimSpace(r.Format); f != "" {
		if _, ok := FormatPresets[FoldLabel(f)]; !ok {
			return fmt.Errorf("%w: unknown format %q", domain.ErrValidation, f)
		}
	}
	if err := ValidateCanvas(r.CanvasWidth, r.CanvasHeight, maxDimension); err != nil {
		return err
	}
	_, err := DecodeZones(r.Zones)
	return err
}

// ValidateCanvas rejects canvas sizes outside 1..maxDimension on either axis.
// A non-positive maxDimension selects MaxCanvasDimension.
func ValidateCanvas(width, height, maxDimension int) error {
	if maxDimension <= 0 {
		maxDimension = MaxCanvasDimension
	}
	if width < 1 || width > maxDimension {
		return fmt.Errorf("%w: canvas_width must be between 1 and %d", domain.ErrValidation, maxDimension)
	}
	if height < 1 || height > maxDimension {
		return fmt.Errorf("%w: canvas_height must be between 1 and %d", domain.ErrValidation, maxDimension)
	}
	return nil
}
