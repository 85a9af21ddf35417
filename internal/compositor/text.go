package compositor

import (
	"image"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"studio/internal/domain"
	"studio/internal/domain/jsoncfg"
)

const (
	textPadding       = 10
	minLineSpacing    = 2
	lineSpacingFactor = 0.25
)

// lineBox is one laid out line: its ink extent and where the ink's top-left
// corner lands on the canvas.
type lineBox struct {
	text   string
	width  int
	height int
	x, y   int
	// offsets from the ink's top-left corner to the pen origin
	dx, dy int
}

// measure reports the ink box of s in face.
func measure(face font.Face, s string) (width, height, dx, dy int) {
	bounds, _ := font.BoundString(face, s)
	left, top := bounds.Min.X.Floor(), bounds.Min.Y.Floor()
	return bounds.Max.X.Ceil() - left, bounds.Max.Y.Ceil() - top, -left, -top
}

// wrapWords greedily packs words into lines no wider than maxWidth. A single
// word wider than maxWidth still gets its own line.
func wrapWords(face font.Face, text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if w, _, _, _ := measure(face, candidate); w <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}

func lineSpacing(size int) int {
	return max(int(lineSpacingFactor*float64(size)), minLineSpacing)
}

// layoutText wraps text to the zone interior, centres the block vertically
// and places each line according to align.
func layoutText(face font.Face, t domain.TextContent, b domain.Bounds) []lineBox {
	lines := wrapWords(face, t.Text, b.Width-2*textPadding)
	if len(lines) == 0 {
		return nil
	}
	spacing := lineSpacing(t.Size)

	boxes := make([]lineBox, 0, len(lines))
	total := spacing * (len(lines) - 1)
	for _, line := range lines {
		w, h, dx, dy := measure(face, line)
		boxes = append(boxes, lineBox{text: line, width: w, height: h, dx: dx, dy: dy})
		total += h
	}

	y := b.Y + (b.Height-total)/2
	for i := range boxes {
		box := &boxes[i]
		switch t.Alignment {
		case domain.AlignCentre:
			box.x = b.X + (b.Width-box.width)/2
		case domain.AlignRight:
			box.x = b.X + b.Width - box.width - textPadding
		default:
			box.x = b.X + textPadding
		}
		box.y = y
		y += box.height + spacing
	}
	return boxes
}

// paintText draws the laid out lines over dst, clipped to the zone.
func (c *Compositor) paintText(dst *image.RGBA, b domain.Bounds, t domain.TextContent) {
	t.Size = min(t.Size, jsoncfg.MaxTextSize)
	face := c.fonts.Face(t.Size)
	defer face.Close()

	clip, ok := dst.SubImage(b.Rect()).(*image.RGBA)
	if !ok || clip.Bounds().Empty() {
		return
	}
	d := font.Drawer{
		Dst:  clip,
		Src:  image.NewUniform(t.Colour),
		Face: face,
	}
	for _, box := range layoutText(face, t, b) {
		d.Dot = fixed.P(box.x+box.dx, box.y+box.dy)
		d.DrawString(box.text)
	}
}
