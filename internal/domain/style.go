package domain

// ColourSample is one clustered colour of a single reference image.
type ColourSample struct {
	Hex        string  `json:"hex"`
	Brightness float64 `json:"brightness"`
	Saturation float64 `json:"saturation"`
}

// ColourBuckets groups hex colours by the role they play in a design.
type ColourBuckets struct {
	Primary    []string `json:"primary"`
	Accent     []string `json:"accent"`
	Background []string `json:"background"`
	Text       []string `json:"text"`
}

// Palette is the per-image result of colour extraction. Samples are ordered
// by ascending brightness.
type Palette struct {
	Samples []ColourSample `json:"samples"`
	Buckets ColourBuckets  `json:"buckets"`
}

// FontSpec describes one typographic role.
type FontSpec struct {
	Family    string  `json:"family"`
	Weight    int     `json:"weight"`
	SizeRatio float64 `json:"size_ratio"`
}

type Typography struct {
	Headline FontSpec `json:"headline"`
	Body     FontSpec `json:"body"`
	Accent   FontSpec `json:"accent"`
	Caption  FontSpec `json:"caption"`
}

type Composition struct {
	TextImageRatio float64  `json:"text_image_ratio"`
	Alignment      []string `json:"alignment"`
	Whitespace     float64  `json:"whitespace"`
	Density        float64  `json:"density"`
}

type Textures struct {
	GrainIntensity float64 `json:"grain_intensity"`
	Contrast       float64 `json:"contrast"`
	Halftone       bool    `json:"halftone"`
	PatternDensity float64 `json:"pattern_density"`
}

// Mood values lie in -1..1.
type Mood struct {
	Warmth     float64 `json:"warmth"`
	Density    float64 `json:"density"`
	Brightness float64 `json:"brightness"`
	Formality  float64 `json:"formality"`
}

// StyleProfile is the aggregated descriptor synthesized from reference images.
type StyleProfile struct {
	Colours     ColourBuckets `json:"colours"`
	Typography  Typography    `json:"typography"`
	Composition Composition   `json:"composition"`
	Textures    Textures      `json:"textures"`
	Mood        Mood          `json:"mood"`
}
