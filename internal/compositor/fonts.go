package compositor

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

const (
	DefaultPrimaryFont   = "/System/Library/Fonts/Helvetica.ttc"
	DefaultSecondaryFont = "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf"
)

// FontSet is the text font fallback chain: configured font files in order,
// then the embedded Go Regular face, then the fixed 7x13 bitmap face. Parsed
// fonts are read-only and shared across renders.
type FontSet struct {
	chain []*opentype.Font
}

// LoadFonts parses each readable font file in paths, skipping the ones that
// are missing or unparsable.
func LoadFonts(paths []string, logger zerolog.Logger) *FontSet {
	fs := &FontSet{}
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := parseFontFile(p)
		if err != nil {
			logger.Debug().Err(err).Str("path", p).Msg("compositor: font unavailable, falling back")
			continue
		}
		fs.chain = append(fs.chain, f)
	}
	if f, err := opentype.Parse(goregular.TTF); err == nil {
		fs.chain = append(fs.chain, f)
	}
	return fs
}

func parseFontFile(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if f, err := opentype.Parse(data); err == nil {
		return f, nil
	}
	coll, err := opentype.ParseCollection(data)
	if err != nil {
		return nil, err
	}
	return coll.Font(0)
}

// Face returns a face at size pixels from the first font in the chain that
// accepts it. It never fails. Callers close the face when done.
func (fs *FontSet) Face(size int) font.Face {
	if fs != nil {
		for _, f := range fs.chain {
			face, err := opentype.NewFace(f, &opentype.FaceOptions{
				Size:    float64(size),
				DPI:     72,
				Hinting: font.HintingNone,
			})
			if err == nil {
				return face
			}
		}
	}
	return basicfont.Face7x13
}
