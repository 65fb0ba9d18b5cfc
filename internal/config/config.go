// Package config loads relgraph's relgraph.toml, applies .env and RELGRAPH_*
// overrides, and converts sections into viewer, layout and server options.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/recera/relgraph/internal/cache"
	"github.com/recera/relgraph/pkg/dataset"
	"github.com/recera/relgraph/pkg/graphviewer"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// DefaultFile is the config file name looked up in the working directory.
const DefaultFile = "relgraph.toml"

// Config represents relgraph.toml.
type Config struct {
	Viewer  ViewerConfig  `toml:"viewer"`
	Layout  LayoutConfig  `toml:"layout"`
	Render  RenderConfig  `toml:"render"`
	Server  ServerConfig  `toml:"server"`
	Dataset DatasetConfig `toml:"dataset"`
	Log     LogConfig     `toml:"log"`
}

// ViewerConfig holds the initial filter and display settings.
type ViewerConfig struct {
	ShowCategories   bool     `toml:"show_categories"`
	ShowLabels       bool     `toml:"show_labels"`
	RelationsOnly    bool     `toml:"relations_only"`
	RelationStrength float64  `toml:"relation_strength"`
	NodeSize         float64  `toml:"node_size"`
	RelationTypes    []string `toml:"relation_types"`
	TickInterval     Duration `toml:"tick_interval"`
}

// LayoutConfig overrides physics constants. Zero keeps the default.
type LayoutConfig struct {
	Repulsion   float64 `toml:"repulsion"`
	DT          float64 `toml:"dt"`
	MaxDistance float64 `toml:"max_distance"`
	MinDistance float64 `toml:"min_distance"`
	Epsilon     float64 `toml:"epsilon"`
}

// RenderConfig controls headless output.
type RenderConfig struct {
	Width      int     `toml:"width"`
	Height     int     `toml:"height"`
	Format     string  `toml:"format"` // "png" | "svg"
	Ticks      int     `toml:"ticks"`
	FitPadding float64 `toml:"fit_padding"`
	LabelSize  float64 `toml:"label_size"`
}

// ServerConfig configures `relgraph serve`.
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	AllowAllOrigins bool     `toml:"allow_all_origins"`
	AllowOrigins    []string `toml:"allow_origins"`
	CacheMaxSize    int64    `toml:"cache_max_size"`
	CacheMaxAge     Duration `toml:"cache_max_age"`
	CacheStrategy   string   `toml:"cache_strategy"` // "lru" | "lfu" | "fifo"
}

// DatasetConfig locates the dataset and its resource filter.
type DatasetConfig struct {
	Path       string   `toml:"path"`
	Watch      bool     `toml:"watch"`
	Debounce   Duration `toml:"debounce"`
	Types      []string `toml:"types"`
	MinQuality float64  `toml:"min_quality"`
	Query      string   `toml:"query"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `toml:"level"`  // debug | info | warn | error
	Format string `toml:"format"` // text | json
}

// Duration is a time.Duration written as a string ("50ms") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the default configuration.
func Default() *Config {
	s := graphviewer.DefaultSettings()
	return &Config{
		Viewer: ViewerConfig{
			ShowCategories:   s.ShowCategories,
			ShowLabels:       s.ShowLabels,
			RelationsOnly:    s.RelationsOnly,
			RelationStrength: s.RelationStrength,
			NodeSize:         s.NodeSize,
			RelationTypes:    []string{dataset.AllRelations},
			TickInterval:     Duration{graphviewer.DefaultTickInterval},
		},
		Render: RenderConfig{
			Width:      800,
			Height:     600,
			Format:     "png",
			Ticks:      300,
			FitPadding: graphviewer.DefaultFitPadding,
			LabelSize:  graphviewer.DefaultTheme().LabelSize,
		},
		Server: ServerConfig{
			Addr:          "localhost:8080",
			CacheMaxSize:  cache.DefaultConfig().MaxSize,
			CacheMaxAge:   Duration{cache.DefaultConfig().MaxAge},
			CacheStrategy: cache.LRU.String(),
		},
		Dataset: DatasetConfig{
			Debounce: Duration{300 * time.Millisecond},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the TOML file at path on top of the defaults. An empty path
// uses DefaultFile when it exists and the defaults otherwise. A .env file in
// the working directory and RELGRAPH_* variables are applied last.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	applyDefaults(cfg)
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode parses TOML text without touching the filesystem or environment.
func Decode(text string) (*Config, error) {
	cfg := Default()
	if _, err := toml.Decode(text, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as TOML.
func Save(cfg *Config, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("save config %s: %w", path, err)
	}
	return nil
}

// applyDefaults fills values a partial file left at zero.
func applyDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Viewer.RelationStrength == 0 {
		cfg.Viewer.RelationStrength = defaults.Viewer.RelationStrength
	}
	if cfg.Viewer.NodeSize == 0 {
		cfg.Viewer.NodeSize = defaults.Viewer.NodeSize
	}
	if len(cfg.Viewer.RelationTypes) == 0 {
		cfg.Viewer.RelationTypes = defaults.Viewer.RelationTypes
	}
	if cfg.Viewer.TickInterval.Duration <= 0 {
		cfg.Viewer.TickInterval = defaults.Viewer.TickInterval
	}

	if cfg.Render.Width == 0 {
		cfg.Render.Width = defaults.Render.Width
	}
	if cfg.Render.Height == 0 {
		cfg.Render.Height = defaults.Render.Height
	}
	if cfg.Render.Format == "" {
		cfg.Render.Format = defaults.Render.Format
	}
	if cfg.Render.FitPadding == 0 {
		cfg.Render.FitPadding = defaults.Render.FitPadding
	}
	if cfg.Render.LabelSize == 0 {
		cfg.Render.LabelSize = defaults.Render.LabelSize
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaults.Server.Addr
	}
	if cfg.Server.CacheStrategy == "" {
		cfg.Server.CacheStrategy = defaults.Server.CacheStrategy
	}

	if cfg.Dataset.Debounce.Duration <= 0 {
		cfg.Dataset.Debounce = defaults.Dataset.Debounce
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Log.Format
	}
}

// applyEnv applies RELGRAPH_* overrides.
func applyEnv(cfg *Config) {
	cfg.Dataset.Path = getEnv("RELGRAPH_DATASET", cfg.Dataset.Path)
	cfg.Dataset.Watch = getEnvAsBool("RELGRAPH_WATCH", cfg.Dataset.Watch)
	cfg.Server.Addr = getEnv("RELGRAPH_ADDR", cfg.Server.Addr)
	cfg.Log.Level = getEnv("RELGRAPH_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("RELGRAPH_LOG_FORMAT", cfg.Log.Format)
	cfg.Viewer.RelationStrength = getEnvAsFloat("RELGRAPH_RELATION_STRENGTH", cfg.Viewer.RelationStrength)
	cfg.Viewer.NodeSize = getEnvAsFloat("RELGRAPH_NODE_SIZE", cfg.Viewer.NodeSize)
	cfg.Render.Width = getEnvAsInt("RELGRAPH_WIDTH", cfg.Render.Width)
	cfg.Render.Height = getEnvAsInt("RELGRAPH_HEIGHT", cfg.Render.Height)
}

// Validate reports the first invalid setting, wrapped in ErrInvalid.
func (c *Config) Validate() error {
	if _, err := dataset.NewRelationSet(c.Viewer.RelationTypes...); err != nil {
		return fmt.Errorf("%w: viewer.relation_types: %v", ErrInvalid, err)
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("%w: render size %dx%d", ErrInvalid, c.Render.Width, c.Render.Height)
	}
	if c.Render.Ticks < 0 {
		return fmt.Errorf("%w: render.ticks %d", ErrInvalid, c.Render.Ticks)
	}
	switch strings.ToLower(c.Render.Format) {
	case "png", "svg":
	default:
		return fmt.Errorf("%w: render.format %q", ErrInvalid, c.Render.Format)
	}
	if _, err := cache.ParseStrategy(c.Server.CacheStrategy); err != nil {
		return fmt.Errorf("%w: server.cache_strategy: %v", ErrInvalid, err)
	}
	if c.Server.CacheMaxSize < 0 {
		return fmt.Errorf("%w: server.cache_max_size %d", ErrInvalid, c.Server.CacheMaxSize)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format)
	}
	return nil
}

// ViewerSettings converts the viewer section. Numeric values are clamped.
func (c *Config) ViewerSettings() (graphviewer.Settings, error) {
	types, err := dataset.NewRelationSet(c.Viewer.RelationTypes...)
	if err != nil {
		return graphviewer.Settings{}, err
	}
	return graphviewer.Settings{
		ShowCategories:   c.Viewer.ShowCategories,
		ShowLabels:       c.Viewer.ShowLabels,
		RelationsOnly:    c.Viewer.RelationsOnly,
		RelationStrength: c.Viewer.RelationStrength,
		NodeSize:         c.Viewer.NodeSize,
		RelationTypes:    types,
	}.Clamp(), nil
}

// LayoutSettings converts the layout section.
func (c *Config) LayoutSettings() graphviewer.LayoutSettings {
	return graphviewer.LayoutSettings{
		Repulsion:   c.Layout.Repulsion,
		DT:          c.Layout.DT,
		MaxDistance: c.Layout.MaxDistance,
		MinDistance: c.Layout.MinDistance,
		Epsilon:     c.Layout.Epsilon,
	}
}

// Filter converts the dataset section's resource filter.
func (c *Config) Filter() dataset.Filter {
	return dataset.Filter{
		Types:      c.Dataset.Types,
		MinQuality: c.Dataset.MinQuality,
		Query:      c.Dataset.Query,
	}
}

// Theme returns the default theme with the configured label size.
func (c *Config) Theme() graphviewer.Theme {
	t := graphviewer.DefaultTheme()
	t.LabelSize = c.Render.LabelSize
	return t
}

// CacheConfig converts the server's cache settings.
func (c *Config) CacheConfig() cache.Config {
	strategy, _ := cache.ParseStrategy(c.Server.CacheStrategy)
	cc := cache.DefaultConfig()
	cc.MaxSize = c.Server.CacheMaxSize
	cc.MaxAge = c.Server.CacheMaxAge.Duration
	cc.Strategy = strategy
	return cc
}

// ParseLevel maps a level name onto slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, err
	}
	return l, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "default", defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		slog.Warn("invalid number in environment, using default", "key", key, "default", defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		slog.Warn("invalid boolean in environment, using default", "key", key, "default", defaultValue)
		return defaultValue
	}
	return value
}
