// Package synthesis merges per-image palettes and vision analyses into a
// single style profile.
package synthesis

import (
	"fmt"
	"math"
	"slices"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"studio/internal/domain"
)

const (
	// NeutralFamily is the single family used by colour-only profiles.
	NeutralFamily = "Inter"

	defaultHeadlineStyle  = "serif"
	defaultBodyStyle      = "sans"
	defaultHeadlineFamily = "Cormorant Garamond"
	defaultBodyFamily     = "Inter"
	defaultHeadlineWeight = 700
	defaultBodyWeight     = 400

	defaultTextImageRatio = 0.3
	defaultWhitespace     = 0.5
	defaultContrast       = 0.5
	defaultAlignment      = "centre"

	maxColoursPerBucket = 4
)

var familyByStyle = map[string]string{
	"serif":   "Cormorant Garamond",
	"sans":    "Inter",
	"mono":    "JetBrains Mono",
	"display": "Instrument Serif",
}

var weightByClass = map[string]int{
	"light":   300,
	"regular": 400,
	"bold":    700,
	"black":   900,
}

var whitespaceByClass = map[string]float64{
	"minimal":  0.2,
	"moderate": 0.5,
	"generous": 0.8,
}

// Result is a synthesized profile together with how much input backed it.
type Result struct {
	Profile      domain.StyleProfile `json:"profile"`
	ColourOnly   bool                `json:"colour_only"`
	ColourInputs int                 `json:"colour_inputs"`
	VisionInputs int                 `json:"vision_inputs"`
}

// Synthesizer is the ProfileSynthesizer. It is stateless.
type Synthesizer struct {
	logger zerolog.Logger
}

func New(logger *zerolog.Logger) *Synthesizer {
	s := &Synthesizer{logger: zerolog.Nop()}
	if logger != nil {
		s.logger = *logger
	}
	return s
}

// Synthesize filters both inputs to their successful items and merges them.
// With no successful analysis it returns a colour-only profile; with nothing
// successful at all it fails with domain.ErrSynthesis. Output depends only on
// the successful items and their order.
func (s *Synthesizer) Synthesize(colours []domain.Outcome[domain.Palette], analyses []domain.Outcome[domain.VisionAnalysis]) (Result, error) {
	palettes := successes(colours)
	visions := successes(analyses)

	if len(palettes) == 0 && len(visions) == 0 {
		return Result{}, fmt.Errorf("%w: no usable colour or vision results among %d and %d inputs",
			domain.ErrSynthesis, len(colours), len(analyses))
	}

	res := Result{ColourInputs: len(palettes), VisionInputs: len(visions)}
	if len(visions) == 0 {
		res.ColourOnly = true
		res.Profile = colourOnlyProfile(mergeColours(palettes))
		s.logger.Debug().Int("colour_inputs", len(palettes)).Msg("synthesis: colour-only profile")
		return res, nil
	}

	res.Profile = domain.StyleProfile{
		Colours:    mergeColours(palettes),
		Typography: mergeTypography(visions),
		Textures:   mergeTextures(visions),
		Mood:       mergeMood(visions),
	}
	res.Profile.Composition = mergeComposition(visions, res.Profile.Mood.Density)
	return res, nil
}

func successes[T any](items []domain.Outcome[T]) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item.OK() {
			out = append(out, item.Value)
		}
	}
	return out
}

func mergeColours(palettes []domain.Palette) domain.ColourBuckets {
	primary, accent, background, text := newTally(), newTally(), newTally(), newTally()
	for _, p := range palettes {
		primary.add(p.Buckets.Primary...)
		accent.add(p.Buckets.Accent...)
		background.add(p.Buckets.Background...)
		text.add(p.Buckets.Text...)
	}
	return domain.ColourBuckets{
		Primary:    primary.top(maxColoursPerBucket),
		Accent:     accent.top(maxColoursPerBucket),
		Background: background.top(maxColoursPerBucket),
		Text:       text.top(maxColoursPerBucket),
	}
}

func mergeTypography(visions []domain.VisionAnalysis) domain.Typography {
	headlineStyles, bodyStyles := newTally(), newTally()
	var headlineWeights, bodyWeights []float64
	for _, v := range visions {
		if !v.Typography.HasText {
			continue
		}
		headlineStyles.add(v.Typography.Headline.Style)
		bodyStyles.add(v.Typography.Body.Style)
		headlineWeights = append(headlineWeights, float64(weightOf(v.Typography.Headline.Weight, defaultHeadlineWeight)))
		bodyWeights = append(bodyWeights, float64(weightOf(v.Typography.Body.Weight, defaultBodyWeight)))
	}
	return domain.Typography{
		Headline: domain.FontSpec{
			Family:    familyOf(headlineStyles.mode(defaultHeadlineStyle), defaultHeadlineFamily),
			Weight:    meanWeight(headlineWeights, defaultHeadlineWeight),
			SizeRatio: 2.5,
		},
		Body: domain.FontSpec{
			Family:    familyOf(bodyStyles.mode(defaultBodyStyle), defaultBodyFamily),
			Weight:    meanWeight(bodyWeights, defaultBodyWeight),
			SizeRatio: 1.0,
		},
		Accent:  domain.FontSpec{Family: "Instrument Serif", Weight: 400, SizeRatio: 1.5},
		Caption: domain.FontSpec{Family: "Inter", Weight: 400, SizeRatio: 0.75},
	}
}

func familyOf(style, fallback string) string {
	if family, ok := familyByStyle[style]; ok {
		return family
	}
	return fallback
}

func weightOf(class string, fallback int) int {
	if w, ok := weightByClass[class]; ok {
		return w
	}
	return fallback
}

func meanWeight(weights []float64, fallback int) int {
	if len(weights) == 0 {
		return fallback
	}
	return int(math.Round(stat.Mean(weights, nil)))
}

func mergeTextures(visions []domain.VisionAnalysis) domain.Textures {
	var grain, contrast, pattern []float64
	halftone := false
	for _, v := range visions {
		grain = append(grain, v.Textures.Grain)
		contrast = append(contrast, v.Textures.Contrast)
		pattern = append(pattern, v.Textures.PatternDensity)
		halftone = halftone || v.Textures.Halftone
	}
	return domain.Textures{
		GrainIntensity: mean2(grain, 0),
		Contrast:       mean2(contrast, 0),
		Halftone:       halftone,
		PatternDensity: mean2(pattern, 0),
	}
}

func mergeMood(visions []domain.VisionAnalysis) domain.Mood {
	var warmth, density, brightness, formality []float64
	for _, v := range visions {
		warmth = append(warmth, v.Mood.Warmth)
		density = append(density, v.Mood.Density)
		brightness = append(brightness, v.Mood.Brightness)
		formality = append(formality, v.Mood.Formality)
	}
	return domain.Mood{
		Warmth:     mean2(warmth, 0),
		Density:    mean2(density, 0),
		Brightness: mean2(brightness, 0),
		Formality:  mean2(formality, 0),
	}
}

func mergeComposition(visions []domain.VisionAnalysis, density float64) domain.Composition {
	var ratios, whitespace []float64
	alignment := []string{}
	for _, v := range visions {
		ratios = append(ratios, v.Composition.TextImageRatio)
		ws, ok := whitespaceByClass[v.Composition.Whitespace]
		if !ok {
			ws = defaultWhitespace
		}
		whitespace = append(whitespace, ws)
		if a := v.Composition.Alignment; a != "" && !slices.Contains(alignment, a) {
			alignment = append(alignment, a)
		}
	}
	slices.Sort(alignment)
	return domain.Composition{
		TextImageRatio: mean2(ratios, defaultTextImageRatio),
		Alignment:      alignment,
		Whitespace:     mean2(whitespace, defaultWhitespace),
		Density:        density,
	}
}

// colourOnlyProfile pairs aggregated colours with the documented neutral
// defaults for everything a vision analysis would have provided.
func colourOnlyProfile(colours domain.ColourBuckets) domain.StyleProfile {
	return domain.StyleProfile{
		Colours: colours,
		Typography: domain.Typography{
			Headline: domain.FontSpec{Family: NeutralFamily, Weight: defaultHeadlineWeight, SizeRatio: 2.5},
			Body:     domain.FontSpec{Family: NeutralFamily, Weight: defaultBodyWeight, SizeRatio: 1.0},
			Accent:   domain.FontSpec{Family: NeutralFamily, Weight: 400, SizeRatio: 1.5},
			Caption:  domain.FontSpec{Family: NeutralFamily, Weight: 400, SizeRatio: 0.75},
		},
		Composition: domain.Composition{
			TextImageRatio: defaultTextImageRatio,
			Alignment:      []string{defaultAlignment},
			Whitespace:     defaultWhitespace,
			Density:        0,
		},
		Textures: domain.Textures{Contrast: defaultContrast},
		Mood:     domain.Mood{},
	}
}
