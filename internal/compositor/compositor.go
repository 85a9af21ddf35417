// Package compositor paints ordered zones onto a fixed-size RGB canvas.
package compositor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	_ "golang.org/x/image/webp"

	"studio/internal/domain"
	"studio/internal/domain/jsoncfg"
)

// DefaultBackground is the canvas colour before any zone paints.
var DefaultBackground = color.RGBA{R: 26, G: 26, B: 26, A: 255}

type Options struct {
	Background color.RGBA
	// MaxDimension bounds canvas width and height; zero means 8192.
	MaxDimension int
	// FontPaths is the ordered list of font files tried before the
	// embedded fallbacks. Nil uses the platform defaults.
	FontPaths []string
	Logger    *zerolog.Logger
}

// ZoneOutcome records a zone that could not be painted.
type ZoneOutcome struct {
	Index int
	Order int
	Type  domain.ContentType
	Err   error
}

// Result is a finished canvas plus the zones that were skipped.
type Result struct {
	Canvas  *image.RGBA
	Skipped []ZoneOutcome
}

// Compositor renders zone lists. It is safe for concurrent use.
type Compositor struct {
	assets     domain.AssetResolver
	fonts      *FontSet
	background color.RGBA
	maxDim     int
	logger     zerolog.Logger
}

func New(assets domain.AssetResolver, opts Options) *Compositor {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	bg := opts.Background
	if bg == (color.RGBA{}) {
		bg = DefaultBackground
	}
	bg.A = 255
	paths := opts.FontPaths
	if paths == nil {
		paths = []string{DefaultPrimaryFont, DefaultSecondaryFont}
	}
	return &Compositor{
		assets:     assets,
		fonts:      LoadFonts(paths, logger),
		background: bg,
		maxDim:     opts.MaxDimension,
		logger:     logger,
	}
}

// Compose paints zones in ascending order onto a width x height canvas.
// Zones sharing an order keep their input order. Pixels outside the canvas
// are clipped. A zone whose asset cannot be loaded is reported in
// Result.Skipped and the rest of the composition proceeds.
func (c *Compositor) Compose(ctx context.Context, zones []domain.Zone, width, height int) (*Result, error) {
	if err := jsoncfg.ValidateCanvas(width, height, c.maxDim); err != nil {
		return nil, err
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(c.background), image.Point{}, draw.Src)

	order := make([]int, len(zones))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return zones[order[a]].Order < zones[order[b]].Order
	})

	res := &Result{Canvas: canvas}
	decoded := make(map[string]image.Image)
	for _, idx := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		z := zones[idx]
		if err := checkBounds(z.Bounds); err != nil {
			typ := domain.ContentEmpty
			if z.Content != nil {
				typ = z.Content.Type()
			}
			c.logger.Warn().Err(err).Int("zone", idx).Msg("compositor: skipping zone")
			res.Skipped = append(res.Skipped, ZoneOutcome{Index: idx, Order: z.Order, Type: typ, Err: err})
			continue
		}
		if z.Bounds.Rect().Intersect(canvas.Bounds()).Empty() {
			continue
		}
		switch content := z.Content.(type) {
		case domain.SolidContent:
			col := content.Colour
			col.A = 255
			draw.Draw(canvas, z.Bounds.Rect(), image.NewUniform(col), image.Point{}, draw.Src)
		case domain.ImageContent:
			if err := c.paintImage(ctx, canvas, z.Bounds, content.AssetID, decoded); err != nil {
				c.logger.Warn().Err(err).Int("zone", idx).Str("asset_id", content.AssetID).Msg("compositor: skipping image zone")
				res.Skipped = append(res.Skipped, ZoneOutcome{Index: idx, Order: z.Order, Type: domain.ContentImage, Err: err})
			}
		case domain.TextContent:
			c.paintText(canvas, z.Bounds, content)
		}
	}
	return res, nil
}

// checkBounds limits every coordinate to MaxCanvasDimension in magnitude so
// the zone rectangle cannot overflow. Origins may be negative; such zones
// are clipped like any other overhang.
func checkBounds(b domain.Bounds) error {
	limit := jsoncfg.MaxCanvasDimension
	if b.Width < 0 || b.Height < 0 {
		return fmt.Errorf("%w: zone size must be non-negative", domain.ErrValidation)
	}
	if b.X < -limit || b.X > limit || b.Y < -limit || b.Y > limit || b.Width > limit || b.Height > limit {
		return fmt.Errorf("%w: zone bounds must stay within ±%d", domain.ErrValidation, limit)
	}
	return nil
}

func (c *Compositor) paintImage(ctx context.Context, dst *image.RGBA, b domain.Bounds, assetID string, cache map[string]image.Image) error {
	src, ok := cache[assetID]
	if !ok {
		if c.assets == nil {
			return fmt.Errorf("%w: no asset resolver for %s", domain.ErrRender, assetID)
		}
		data, err := c.assets.Open(ctx, assetID)
		if err != nil {
			return fmt.Errorf("%w: open asset %s: %w", domain.ErrRender, assetID, err)
		}
		src, _, err = image.Decode(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("%w: decode asset %s: %w", domain.ErrRender, assetID, err)
		}
		cache[assetID] = src
	}
	zone := b.Rect()
	visible := zone.Intersect(dst.Bounds())
	if visible.Empty() {
		return nil
	}
	if visible == zone {
		draw.Draw(dst, zone, coverFit(src, b.Width, b.Height), image.Point{}, draw.Src)
		return nil
	}
	draw.Draw(dst, visible, coverFitRegion(src, b.Width, b.Height, visible.Sub(zone.Min)), image.Point{}, draw.Src)
	return nil
}

// coverFit scales src to cover a w x h box preserving aspect ratio and crops
// the centre. Transparency is discarded.
func coverFit(src image.Image, w, h int) *image.NRGBA {
	return opaque(imaging.Fill(src, w, h, imaging.Center, imaging.Lanczos))
}

// coverFitRegion returns only the part of coverFit(src, w, h) inside region,
// given in zone coordinates. The source window behind region is cropped and
// resized straight to the region's size, so memory follows the visible area
// and never the full zone. Window edges are rounded outwards to whole
// source pixels.
func coverFitRegion(src image.Image, w, h int, region image.Rectangle) *image.NRGBA {
	sb := src.Bounds()
	sw, sh := float64(sb.Dx()), float64(sb.Dy())
	scale := math.Max(float64(w)/sw, float64(h)/sh)
	offX := (sw*scale - float64(w)) / 2
	offY := (sh*scale - float64(h)) / 2

	window := image.Rect(
		sb.Min.X+int(math.Floor((offX+float64(region.Min.X))/scale)),
		sb.Min.Y+int(math.Floor((offY+float64(region.Min.Y))/scale)),
		sb.Min.X+int(math.Ceil((offX+float64(region.Max.X))/scale)),
		sb.Min.Y+int(math.Ceil((offY+float64(region.Max.Y))/scale)),
	).Intersect(sb)
	if window.Empty() {
		window = sb
	}
	return opaque(imaging.Resize(imaging.Crop(src, window), region.Dx(), region.Dy(), imaging.Lanczos))
}

func opaque(img *image.NRGBA) *image.NRGBA {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img
}
