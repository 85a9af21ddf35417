package domain

// TypeStyle is the qualitative description of one typographic role as
// reported by the vision capability.
type TypeStyle struct {
	Style  string `json:"style"`
	Weight string `json:"weight,omitempty"`
	Size   string `json:"size,omitempty"`
}

type VisionTypography struct {
	Headline TypeStyle `json:"headline"`
	Body     TypeStyle `json:"body"`
	HasText  bool      `json:"has_text"`
}

type VisionComposition struct {
	Layout         string  `json:"layout,omitempty"`
	TextPlacement  string  `json:"text_placement,omitempty"`
	TextImageRatio float64 `json:"text_image_ratio"`
	Whitespace     string  `json:"whitespace"`
	Alignment      string  `json:"alignment"`
}

type VisionTextures struct {
	Grain          float64 `json:"grain"`
	Contrast       float64 `json:"contrast"`
	Halftone       bool    `json:"halftone"`
	PatternDensity float64 `json:"pattern_density"`
}

// VisionAnalysis is a schema-validated perceptual description of one image.
// Labels are lower case and numeric fields lie within their declared ranges.
type VisionAnalysis struct {
	Typography  VisionTypography  `json:"typography"`
	Composition VisionComposition `json:"composition"`
	Textures    VisionTextures    `json:"textures"`
	Mood        Mood              `json:"mood"`
}
