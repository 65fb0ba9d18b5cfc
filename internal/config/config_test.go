package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/relgraph/internal/cache"
	"github.com/recera/relgraph/pkg/dataset"
)

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	s, err := cfg.ViewerSettings()
	require.NoError(t, err)
	assert.True(t, s.ShowLabels)
	assert.Equal(t, 50.0, s.RelationStrength)
	assert.Equal(t, 20.0, s.NodeSize)
	assert.True(t, s.RelationTypes.All())
	assert.Equal(t, 50*time.Millisecond, cfg.Viewer.TickInterval.Duration)
}

func TestDecode_Partial(t *testing.T) {
	cfg, err := Decode(`
[viewer]
show_categories = true
relation_strength = 80
relation_types = ["dependency", "similarity"]
tick_interval = "20ms"

[layout]
epsilon = 0.01

[server]
addr = ":9000"
cache_strategy = "lfu"
cache_max_age = "1m"

[dataset]
path = "graph.yaml"
types = ["dataset"]
min_quality = 40
`)
	require.NoError(t, err)

	assert.True(t, cfg.Viewer.ShowCategories)
	assert.True(t, cfg.Viewer.ShowLabels, "omitted keys keep defaults")
	assert.Equal(t, 20.0, cfg.Viewer.NodeSize)
	assert.Equal(t, 20*time.Millisecond, cfg.Viewer.TickInterval.Duration)
	assert.Equal(t, ":9000", cfg.Server.Addr)

	s, err := cfg.ViewerSettings()
	require.NoError(t, err)
	assert.Equal(t, 80.0, s.RelationStrength)
	assert.True(t, s.RelationTypes.Contains(dataset.Dependency))
	assert.False(t, s.RelationTypes.Contains(dataset.Usage))

	layout := cfg.LayoutSettings()
	assert.Equal(t, 0.01, layout.Epsilon)
	assert.Zero(t, layout.Repulsion, "zero keeps the simulation default")

	f := cfg.Filter()
	assert.Equal(t, []string{"dataset"}, f.Types)
	assert.Equal(t, 40.0, f.MinQuality)

	cc := cfg.CacheConfig()
	assert.Equal(t, cache.LFU, cc.Strategy)
	assert.Equal(t, time.Minute, cc.MaxAge)
}

func TestViewerSettings_Clamps(t *testing.T) {
	cfg := Default()
	cfg.Viewer.RelationStrength = 500
	cfg.Viewer.NodeSize = 2

	s, err := cfg.ViewerSettings()
	require.NoError(t, err)
	assert.Equal(t, 100.0, s.RelationStrength)
	assert.Equal(t, 10.0, s.NodeSize)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relation type", func(c *Config) { c.Viewer.RelationTypes = []string{"friendship"} }},
		{"render size", func(c *Config) { c.Render.Width = -1 }},
		{"render ticks", func(c *Config) { c.Render.Ticks = -5 }},
		{"render format", func(c *Config) { c.Render.Format = "gif" }},
		{"cache strategy", func(c *Config) { c.Server.CacheStrategy = "random" }},
		{"cache size", func(c *Config) { c.Server.CacheMaxSize = -1 }},
		{"log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode(`[viewer`)
	assert.Error(t, err)

	_, err = Decode("[viewer]\ntick_interval = \"soon\"")
	assert.Error(t, err)

	_, err = Decode("[render]\nformat = \"bmp\"")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", DefaultFile)

	cfg := Default()
	cfg.Viewer.ShowLabels = false
	cfg.Viewer.RelationTypes = []string{"derivation"}
	cfg.Render.Format = "svg"
	cfg.Dataset.Debounce = Duration{time.Second}
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.False(t, loaded.Viewer.ShowLabels)
	assert.Equal(t, []string{"derivation"}, loaded.Viewer.RelationTypes)
	assert.Equal(t, "svg", loaded.Render.Format)
	assert.Equal(t, time.Second, loaded.Dataset.Debounce.Duration)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, Save(Default(), path))

	t.Setenv("RELGRAPH_DATASET", "/data/graph.json")
	t.Setenv("RELGRAPH_ADDR", ":7000")
	t.Setenv("RELGRAPH_WATCH", "true")
	t.Setenv("RELGRAPH_NODE_SIZE", "30")
	t.Setenv("RELGRAPH_WIDTH", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/graph.json", cfg.Dataset.Path)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.True(t, cfg.Dataset.Watch)
	assert.Equal(t, 30.0, cfg.Viewer.NodeSize)
	assert.Equal(t, 800, cfg.Render.Width, "invalid values fall back")
}

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"debug", "INFO", "warn", "error"} {
		_, err := ParseLevel(name)
		assert.NoError(t, err, name)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}
