package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml"), nil)
	require.NoError(t, err)

	assert.Equal(t, "bounded", cfg.Algorithm)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, int64(-1), cfg.End)
	assert.False(t, cfg.WebMode)
}

func TestLoadPriority(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("port = 9000\nalgorithm = \"unbounded\"\nworker = \"h/1\"\n"), 0o644))
	t.Setenv("CRITPATH_PORT", "9100")
	t.Setenv("CRITPATH_LOG_JSON", "true")

	f := Flags("test")
	require.NoError(t, f.Parse([]string{"--worker", "h/2", "-vv"}))

	cfg, err := LoadFrom(path, f)
	require.NoError(t, err)

	assert.Equal(t, "unbounded", cfg.Algorithm, "file")
	assert.Equal(t, 9100, cfg.Port, "env over file")
	assert.True(t, cfg.LogJSON, "env")
	assert.Equal(t, "h/2", cfg.Worker, "flag over file")
	assert.Equal(t, 2, cfg.VerboseCnt)
}

func TestValidate(t *testing.T) {
	valid := Config{Algorithm: "bounded", Port: 8080, End: -1}
	require.NoError(t, valid.Validate())

	tests := map[string]func(c *Config){
		"both inputs":       func(c *Config) { c.Scenario, c.Fixture = "a.toml", "basic" },
		"verify no fixture": func(c *Config) { c.Verify = true },
		"watch no scenario": func(c *Config) { c.Watch = true },
		"bad algorithm":     func(c *Config) { c.Algorithm = "fastest" },
		"bad port":          func(c *Config) { c.Port = 0 },
		"end before start":  func(c *Config) { c.Start, c.End = 10, 5 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
