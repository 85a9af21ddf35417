package domain

import (
	"image"
	"image/color"
)

// ContentType enumerates the zone content variants.
type ContentType string

const (
	ContentImage ContentType = "image"
	ContentText  ContentType = "text"
	ContentSolid ContentType = "solid"
	ContentEmpty ContentType = "empty"
)

// Alignment controls horizontal placement of text lines inside a zone.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCentre Alignment = "centre"
	AlignRight  Alignment = "right"
)

// Bounds is a zone rectangle in canvas pixels.
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect converts the bounds to a half-open image rectangle.
func (b Bounds) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Content is the sealed set of zone payloads.
type Content interface {
	Type() ContentType
	content()
}

// ImageContent paints a registered asset using cover-fit.
type ImageContent struct {
	AssetID string
}

// TextContent paints word-wrapped text.
type TextContent struct {
	Text      string
	Size      int
	Colour    color.RGBA
	Alignment Alignment
}

// SolidContent fills the zone with one colour.
type SolidContent struct {
	Colour color.RGBA
}

// EmptyContent leaves whatever is underneath untouched.
type EmptyContent struct{}

func (ImageContent) Type() ContentType { return ContentImage }
func (TextContent) Type() ContentType  { return ContentText }
func (SolidContent) Type() ContentType { return ContentSolid }
func (EmptyContent) Type() ContentType { return ContentEmpty }

func (ImageContent) content() {}
func (TextContent) content()  {}
func (SolidContent) content() {}
func (EmptyContent) content() {}

// Zone is one rectangular region of a composition. Zones paint in ascending
// Order and a later zone overwrites earlier pixels inside its rectangle.
type Zone struct {
	Bounds  Bounds
	Content Content
	Order   int
}
