package jsoncfg

import (
	"encoding/json"
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"studio/internal/domain"
)

const (
	// DefaultTextSize applies when a text zone omits its font size.
	DefaultTextSize = 24
	// DefaultTextColour applies when a text zone omits its colour.
	DefaultTextColour = "#e8e8e8"
	// DefaultSolidColour applies when a solid zone omits its colour.
	DefaultSolidColour = "#1a1a1a"
	// DefaultAlignment applies when a text zone omits its alignment.
	DefaultAlignment = domain.AlignCentre
	// MaxTextSize caps a text zone's font size in pixels. Glyph masks grow
	// with the square of the size.
	MaxTextSize = 1024
)

type BoundsPayload struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ContentPayload is the loosely typed wire form of a zone's content.
type ContentPayload struct {
	Type      string `json:"type"`
	AssetID   string `json:"asset_id,omitempty"`
	Text      string `json:"text,omitempty"`
	Size      int    `json:"size,omitempty"`
	Colour    string `json:"colour,omitempty"`
	Alignment string `json:"alignment,omitempty"`
}

// UnmarshalJSON accepts either an object or a string holding a JSON object,
// the latter being how zone rows keep their content column.
func (c *ContentPayload) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		if strings.TrimSpace(inner) == "" {
			*c = ContentPayload{}
			return nil
		}
		data = []byte(inner)
	}
	type plain ContentPayload
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = ContentPayload(p)
	return nil
}

type ZonePayload struct {
	Bounds    BoundsPayload  `json:"bounds"`
	Content   ContentPayload `json:"content"`
	ZoneOrder int            `json:"zone_order"`
}

// ToZone validates the payload and converts it into the typed zone model.
// Unknown content types and variants missing their essential field become
// empty zones instead of errors.
func (p ZonePayload) ToZone() (domain.Zone, error) {
	b := domain.Bounds{X: p.Bounds.X, Y: p.Bounds.Y, Width: p.Bounds.Width, Height: p.Bounds.Height}
	if err := ValidateBounds(b, 0); err != nil {
		return domain.Zone{}, err
	}
	content, err := p.Content.toContent()
	if err != nil {
		return domain.Zone{}, err
	}
	return domain.Zone{Bounds: b, Content: content, Order: p.ZoneOrder}, nil
}

// ValidateBounds rejects negative bounds and any origin or extent above
// maxDimension (MaxCanvasDimension when non-positive). Zones inside that
// range may still overhang the canvas; the compositor clips them.
func ValidateBounds(b domain.Bounds, maxDimension int) error {
	if maxDimension <= 0 {
		maxDimension = MaxCanvasDimension
	}
	if b.X < 0 || b.Y < 0 || b.Width < 0 || b.Height < 0 {
		return fmt.Errorf("%w: zone bounds must be non-negative", domain.ErrValidation)
	}
	if b.X > maxDimension || b.Y > maxDimension || b.Width > maxDimension || b.Height > maxDimension {
		return fmt.Errorf("%w: zone bounds must not exceed %d", domain.ErrValidation, maxDimension)
	}
	return nil
}

func (c ContentPayload) toContent() (domain.Content, error) {
	switch domain.ContentType(FoldLabel(c.Type)) {
	case domain.ContentImage:
		id := strings.TrimSpace(c.AssetID)
		if id == "" {
			return domain.EmptyContent{}, nil
		}
		return domain.ImageContent{AssetID: id}, nil
	case domain.ContentText:
		if strings.TrimSpace(c.Text) == "" {
			return domain.EmptyContent{}, nil
		}
		colour, err := ParseColour(c.Colour, DefaultTextColour)
		if err != nil {
			return nil, err
		}
		size := c.Size
		if size <= 0 {
			size = DefaultTextSize
		}
		if size > MaxTextSize {
			return nil, fmt.Errorf("%w: text size must not exceed %d", domain.ErrValidation, MaxTextSize)
		}
		return domain.TextContent{
			Text:      c.Text,
			Size:      size,
			Colour:    colour,
			Alignment: ParseAlignment(c.Alignment),
		}, nil
	case domain.ContentSolid:
		colour, err := ParseColour(c.Colour, DefaultSolidColour)
		if err != nil {
			return nil, err
		}
		return domain.SolidContent{Colour: colour}, nil
	default:
		return domain.EmptyContent{}, nil
	}
}

// DecodeZones converts wire payloads into typed zones, failing on the first
// invalid one.
func DecodeZones(payloads []ZonePayload) ([]domain.Zone, error) {
	zones := make([]domain.Zone, 0, len(payloads))
	for i, p := range payloads {
		z, err := p.ToZone()
		if err != nil {
			return nil, fmt.Errorf("zone %d: %w", i, err)
		}
		zones = append(zones, z)
	}
	return zones, nil
}

// ParseColour parses a #rgb or #rrggbb string into an opaque colour.
func ParseColour(raw, fallback string) (color.RGBA, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		value = fallback
	}
	if !strings.HasPrefix(value, "#") {
		value = "#" + value
	}
	c, err := colorful.Hex(strings.ToLower(value))
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: invalid colour %q", domain.ErrValidation, raw)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// ParseAlignment accepts both spellings of centre. Unrecognized values fall
// back to left alignment.
func ParseAlignment(raw string) domain.Alignment {
	switch FoldLabel(raw) {
	case "", "centre", "center":
		return domain.AlignCentre
	case "right":
		return domain.AlignRight
	default:
		return domain.AlignLeft
	}
}
