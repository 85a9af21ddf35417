package vision

import (
	"encoding/json"
	"fmt"
	"strings"

	"studio/internal/domain"
	"studio/internal/domain/jsoncfg"
)

type rawTypeStyle struct {
	Style  *string `json:"style"`
	Weight string  `json:"weight"`
	Size   string  `json:"size"`
}

type rawAnalysis struct {
	Typography *struct {
		Headline *rawTypeStyle `json:"headline"`
		Body     *rawTypeStyle `json:"body"`
		HasText  *bool         `json:"has_text"`
	} `json:"typography"`
	Composition *struct {
		Layout         string   `json:"layout"`
		TextPlacement  string   `json:"text_placement"`
		TextImageRatio *float64 `json:"text_image_ratio"`
		Whitespace     *string  `json:"whitespace"`
		Alignment      *string  `json:"alignment"`
	} `json:"composition"`
	Textures *struct {
		Grain          *float64 `json:"grain"`
		Contrast       *float64 `json:"contrast"`
		Halftone       *bool    `json:"halftone"`
		PatternDensity *float64 `json:"pattern_density"`
	} `json:"textures"`
	Mood *struct {
		Warmth     *float64 `json:"warmth"`
		Density    *float64 `json:"density"`
		Brightness *float64 `json:"brightness"`
		Formality  *float64 `json:"formality"`
	} `json:"mood"`
}

// ParseAnalysis strips code fences from a model reply, decodes it and
// checks every required field. Labels are case folded and numbers are
// clamped into their declared ranges.
func ParseAnalysis(reply string) (domain.VisionAnalysis, error) {
	cleaned := extractJSONFragment(reply)
	if cleaned == "" {
		return domain.VisionAnalysis{}, fmt.Errorf("%w: empty reply", domain.ErrAnalysis)
	}
	var raw rawAnalysis
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return domain.VisionAnalysis{}, fmt.Errorf("%w: decode reply: %v", domain.ErrAnalysis, err)
	}
	if missing := raw.missing(); len(missing) > 0 {
		return domain.VisionAnalysis{}, fmt.Errorf("%w: missing fields %s", domain.ErrAnalysis, strings.Join(missing, ", "))
	}

	ty, co, tx, mo := raw.Typography, raw.Composition, raw.Textures, raw.Mood
	return domain.VisionAnalysis{
		Typography: domain.VisionTypography{
			Headline: typeStyle(ty.Headline),
			Body:     typeStyle(ty.Body),
			HasText:  *ty.HasText,
		},
		Composition: domain.VisionComposition{
			Layout:         jsoncfg.FoldLabel(co.Layout),
			TextPlacement:  jsoncfg.FoldLabel(co.TextPlacement),
			TextImageRatio: clamp(*co.TextImageRatio, 0, 1),
			Whitespace:     jsoncfg.FoldLabel(*co.Whitespace),
			Alignment:      normalizeAlignment(*co.Alignment),
		},
		Textures: domain.VisionTextures{
			Grain:          clamp(*tx.Grain, 0, 1),
			Contrast:       clamp(*tx.Contrast, 0, 1),
			Halftone:       *tx.Halftone,
			PatternDensity: clamp(*tx.PatternDensity, 0, 1),
		},
		Mood: domain.Mood{
			Warmth:     clamp(*mo.Warmth, -1, 1),
			Density:    clamp(*mo.Density, -1, 1),
			Brightness: clamp(*mo.Brightness, -1, 1),
			Formality:  clamp(*mo.Formality, -1, 1),
		},
	}, nil
}

func (r rawAnalysis) missing() []string {
	var out []string
	need := func(ok bool, name string) {
		if !ok {
			out = append(out, name)
		}
	}
	if ty := r.Typography; ty == nil {
		out = append(out, "typography")
	} else {
		need(ty.Headline != nil && ty.Headline.Style != nil, "typography.headline.style")
		need(ty.Body != nil && ty.Body.Style != nil, "typography.body.style")
		need(ty.HasText != nil, "typography.has_text")
	}
	if co := r.Composition; co == nil {
		out = append(out, "composition")
	} else {
		need(co.TextImageRatio != nil, "composition.text_image_ratio")
		need(co.Whitespace != nil, "composition.whitespace")
		need(co.Alignment != nil, "composition.alignment")
	}
	if tx := r.Textures; tx == nil {
		out = append(out, "textures")
	} else {
		need(tx.Grain != nil, "textures.grain")
		need(tx.Contrast != nil, "textures.contrast")
		need(tx.Halftone != nil, "textures.halftone")
		need(tx.PatternDensity != nil, "textures.pattern_density")
	}
	if mo := r.Mood; mo == nil {
		out = append(out, "mood")
	} else {
		need(mo.Warmth != nil, "mood.warmth")
		need(mo.Density != nil, "mood.density")
		need(mo.Brightness != nil, "mood.brightness")
		need(mo.Formality != nil, "mood.formality")
	}
	return out
}

func typeStyle(r *rawTypeStyle) domain.TypeStyle {
	return domain.TypeStyle{
		Style:  jsoncfg.FoldLabel(*r.Style),
		Weight: jsoncfg.FoldLabel(r.Weight),
		Size:   jsoncfg.FoldLabel(r.Size),
	}
}

func normalizeAlignment(s string) string {
	label := jsoncfg.FoldLabel(s)
	if label == "center" {
		return "centre"
	}
	return label
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

func extractJSONFragment(raw string) string {
	text := trimCodeFence(raw)
	if text == "" {
		return ""
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 {
		trimmed = trimmed[nl+1:]
	} else {
		trimmed = strings.TrimPrefix(trimmed, "```")
	}
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
