// Package palette reduces an image to a small categorized colour palette.
package palette

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"slices"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	_ "golang.org/x/image/webp"

	"studio/internal/domain"
)

const (
	DefaultWorkingWidth  = 256
	DefaultClusters      = 8
	DefaultMaxIterations = 20
	DefaultSeed          = 42

	bucketEdge          = 2
	bucketCap           = 3
	accentSaturationMin = 0.3
)

// Options tunes clustering cost. Zero values select the defaults.
type Options struct {
	WorkingWidth  int
	Clusters      int
	MaxIterations int
}

// Extractor is the deterministic colour palette extractor. It holds no
// mutable state and is safe for concurrent use.
type Extractor struct {
	workingWidth  int
	k             int
	maxIterations int
}

func NewExtractor(opts Options) *Extractor {
	e := &Extractor{
		workingWidth:  opts.WorkingWidth,
		k:             opts.Clusters,
		maxIterations: opts.MaxIterations,
	}
	if e.workingWidth <= 0 {
		e.workingWidth = DefaultWorkingWidth
	}
	if e.k <= 0 {
		e.k = DefaultClusters
	}
	if e.maxIterations <= 0 {
		e.maxIterations = DefaultMaxIterations
	}
	return e
}

// Extract decodes data, clusters its pixels with the given seed and buckets
// the resulting colours. The same bytes and seed always yield the same
// palette. Undecodable input returns an error wrapping domain.ErrExtraction.
func (e *Extractor) Extract(ctx context.Context, data []byte, seed uint64) (domain.Palette, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return domain.Palette{}, fmt.Errorf("%w: decode image: %v", domain.ErrExtraction, err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return domain.Palette{}, fmt.Errorf("%w: empty image", domain.ErrExtraction)
	}

	work := imaging.Clone(img)
	if b.Dx() > e.workingWidth {
		work = imaging.Resize(work, e.workingWidth, 0, imaging.CatmullRom)
	}

	cc, _, err := partition(ctx, observations(work), e.k, e.maxIterations, seed)
	if err != nil {
		return domain.Palette{}, err
	}

	samples := make([]domain.ColourSample, 0, len(cc))
	for _, c := range cc {
		samples = append(samples, sampleFromCentre(c.Center))
	}
	slices.SortStableFunc(samples, func(a, b domain.ColourSample) int {
		switch {
		case a.Brightness < b.Brightness:
			return -1
		case a.Brightness > b.Brightness:
			return 1
		default:
			return 0
		}
	})

	return domain.Palette{Samples: samples, Buckets: bucketize(samples)}, nil
}

// observations flattens the pixels of img into RGB coordinates. Alpha is
// dropped without premultiplication.
func observations(img *image.NRGBA) clusters.Observations {
	b := img.Bounds()
	obs := make(clusters.Observations, 0, b.Dx()*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			obs = append(obs, clusters.Coordinates{float64(row[x]), float64(row[x+1]), float64(row[x+2])})
		}
	}
	return obs
}

// sampleFromCentre truncates a centroid to integer channels and derives its
// hex, luma brightness and saturation.
func sampleFromCentre(centre clusters.Coordinates) domain.ColourSample {
	r, g, bl := channel(centre[0]), channel(centre[1]), channel(centre[2])
	hi := max(r, g, bl)
	lo := min(r, g, bl)
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(bl) / 255}
	return domain.ColourSample{
		Hex:        c.Hex(),
		Brightness: 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bl),
		Saturation: float64(hi-lo) / float64(max(hi, 1)),
	}
}

func channel(v float64) int {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return int(v)
	}
}

// bucketize assigns brightness-sorted samples to roles. The darkest two are
// background, the lightest two are text, saturated middle colours are accent
// and the remaining middle colours are primary. Any empty bucket receives the
// median colour.
func bucketize(samples []domain.ColourSample) domain.ColourBuckets {
	n := len(samples)
	if n == 0 {
		return domain.ColourBuckets{}
	}
	edge := min(bucketEdge, n)
	buckets := domain.ColourBuckets{
		Background: hexes(samples[:edge]),
		Text:       hexes(samples[n-edge:]),
	}

	var middle []domain.ColourSample
	if n > 2*bucketEdge {
		middle = samples[bucketEdge : n-bucketEdge]
	}
	for _, s := range middle {
		if s.Saturation > accentSaturationMin && len(buckets.Accent) < bucketCap {
			buckets.Accent = append(buckets.Accent, s.Hex)
		}
	}
	for _, s := range middle {
		if slices.Contains(buckets.Accent, s.Hex) {
			continue
		}
		if len(buckets.Primary) < bucketCap {
			buckets.Primary = append(buckets.Primary, s.Hex)
		}
	}

	median := samples[n/2].Hex
	for _, bucket := range []*[]string{&buckets.Primary, &buckets.Accent, &buckets.Background, &buckets.Text} {
		if len(*bucket) == 0 {
			*bucket = []string{median}
		}
	}
	return buckets
}

func hexes(samples []domain.ColourSample) []string {
	out := make([]string, 0, len(samples))
	for _, s := range samples {
		out = append(out, s.Hex)
	}
	return out
}
