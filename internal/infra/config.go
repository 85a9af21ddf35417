package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultTuningFile is read when STUDIO_TUNING_FILE is unset. Its absence is
// not an error.
const DefaultTuningFile = "studio.toml"

// Vision backends selectable through VISION_PROVIDER.
const (
	VisionProviderGemini = "gemini"
	VisionProviderQwen   = "qwen"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	DBMaxConns         int32
	StoragePath        string
	VisionProvider     string
	GeminiAPIKey       string
	GeminiModel        string
	GeminiBaseURL      string
	QwenAPIKey         string
	QwenModel          string
	QwenBaseURL        string
	VisionTimeout      time.Duration
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	CORSAllowedOrigins []string
	TuningFile         string
	Tuning             Tuning
}

// Tuning holds the algorithm knobs that live in the optional TOML file.
type Tuning struct {
	Palette    PaletteTuning    `toml:"palette"`
	Compositor CompositorTuning `toml:"compositor"`
	Extraction ExtractionTuning `toml:"extraction"`
}

type PaletteTuning struct {
	WorkingWidth  int    `toml:"working_width"`
	Clusters      int    `toml:"clusters"`
	MaxIterations int    `toml:"max_iterations"`
	Seed          uint64 `toml:"seed"`
}

type CompositorTuning struct {
	PrimaryFont   string `toml:"primary_font"`
	SecondaryFont string `toml:"secondary_font"`
	MaxCanvas     int    `toml:"max_canvas"`
	Background    string `toml:"background"`
}

type ExtractionTuning struct {
	Workers int `toml:"workers"`
}

// DefaultTuning mirrors the built-in component defaults.
func DefaultTuning() Tuning {
	return Tuning{
		Palette: PaletteTuning{WorkingWidth: 256, Clusters: 8, MaxIterations: 20, Seed: 42},
		Compositor: CompositorTuning{
			PrimaryFont:   "/System/Library/Fonts/Helvetica.ttc",
			SecondaryFont: "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
			MaxCanvas:     8192,
			Background:    "#1a1a1a",
		},
		Extraction: ExtractionTuning{Workers: 4},
	}
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBMaxConns:         int32(getEnvInt("DB_MAX_CONNS", 10)),
		StoragePath:        getEnv("STORAGE_PATH", "./storage"),
		VisionProvider:     strings.ToLower(getEnv("VISION_PROVIDER", VisionProviderGemini)),
		GeminiAPIKey:       strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL:      getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		QwenAPIKey:         strings.TrimSpace(os.Getenv("DASHSCOPE_API_KEY")),
		QwenModel:          getEnv("QWEN_VL_MODEL", "qwen-vl-max"),
		QwenBaseURL:        getEnv("DASHSCOPE_BASE_URL", "https://dashscope-intl.aliyuncs.com/api/v1"),
		VisionTimeout:      time.Second * time.Duration(getEnvInt("VISION_TIMEOUT_SECONDS", 60)),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		TuningFile:         os.Getenv("STUDIO_TUNING_FILE"),
	}
	if cfg.VisionTimeout <= 0 {
		return nil, fmt.Errorf("VISION_TIMEOUT_SECONDS must be positive")
	}
	switch cfg.VisionProvider {
	case VisionProviderGemini, VisionProviderQwen:
	default:
		return nil, fmt.Errorf("VISION_PROVIDER must be %q or %q", VisionProviderGemini, VisionProviderQwen)
	}

	tuning, err := LoadTuning(cfg.TuningFile)
	if err != nil {
		return nil, err
	}
	cfg.Tuning = tuning
	return cfg, nil
}

// RequireDatabase fails when no database is configured. Only the api and the
// worker need one.
func (c *Config) RequireDatabase() error {
	if c == nil || strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// LoadTuning reads the TOML tuning file at path over the defaults. An empty
// path tries DefaultTuningFile and tolerates its absence; an explicit path
// must exist.
func LoadTuning(path string) (Tuning, error) {
	tuning := DefaultTuning()
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = DefaultTuningFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return tuning, nil
		}
		return Tuning{}, fmt.Errorf("read tuning file: %w", err)
	}
	if err := toml.Unmarshal(data, &tuning); err != nil {
		return Tuning{}, fmt.Errorf("parse tuning file %s: %w", path, err)
	}
	if err := tuning.validate(); err != nil {
		return Tuning{}, fmt.Errorf("tuning file %s: %w", path, err)
	}
	return tuning, nil
}

func (t Tuning) validate() error {
	switch {
	case t.Palette.WorkingWidth <= 0:
		return errors.New("palette.working_width must be positive")
	case t.Palette.Clusters <= 0:
		return errors.New("palette.clusters must be positive")
	case t.Palette.MaxIterations <= 0:
		return errors.New("palette.max_iterations must be positive")
	case t.Compositor.MaxCanvas <= 0:
		return errors.New("compositor.max_canvas must be positive")
	case t.Extraction.Workers <= 0:
		return errors.New("extraction.workers must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
