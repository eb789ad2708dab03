package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	SetLogger(zerolog.Nop())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultsGolden(t *testing.T) {
	out, err := Default().Marshal()
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "defaults", out)
}

func TestApplyDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "Inkpot", cfg.Site.Name)
	assert.Equal(t, 12600, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:12600", cfg.Server.Addr())
	assert.Equal(t, 2*time.Second, cfg.Autosave.Debounce)
	assert.Equal(t, 2*time.Second, cfg.Autosave.TitleDebounce)
	assert.Equal(t, 10*time.Second, cfg.Autosave.SaveTimeout)
	assert.False(t, cfg.Autosave.NotifyOnAutosave)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "sqlite3", cfg.Storage.SQLite.Driver)
	assert.Equal(t, "demo-user-123", cfg.Auth.DemoUserID)
	assert.Equal(t, 30*time.Minute, cfg.Editor.SessionIdleTimeout)
	assert.Zero(t, cfg.Server.WriteTimeout)
	assert.True(t, cfg.Seed.Enabled)
}

func TestApplyDefaultsCustomStruct(t *testing.T) {
	type nested struct {
		Wait time.Duration `default:"1m30s"`
	}
	type custom struct {
		Name    string   `default:"x"`
		On      bool     `default:"true"`
		Count   int      `default:"42"`
		Ratio   float64  `default:"3.14"`
		Words   []string `default:"a, b,c"`
		Keep    []string `default:"ignored"`
		Nested  nested
		NoValue string
	}

	c := &custom{Keep: []string{"kept"}}
	ApplyDefaults(c)

	assert.Equal(t, "x", c.Name)
	assert.True(t, c.On)
	assert.Equal(t, 42, c.Count)
	assert.InDelta(t, 3.14, c.Ratio, 1e-9)
	assert.Equal(t, []string{"a", "b", "c"}, c.Words)
	assert.Equal(t, []string{"kept"}, c.Keep)
	assert.Equal(t, 90*time.Second, c.Nested.Wait)
	assert.Empty(t, c.NoValue)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
autosave:
  debounce: 500ms
  notify_on_autosave: true
storage:
  backend: sqlite
  compression: gzip
  sqlite:
    path: /tmp/x.db
    driver: sqlite
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.Autosave.Debounce)
	assert.Equal(t, 2*time.Second, cfg.Autosave.TitleDebounce, "untouched keys keep defaults")
	assert.True(t, cfg.Autosave.NotifyOnAutosave)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "gzip", cfg.Storage.Compression)
	assert.Equal(t, "sqlite", cfg.Storage.SQLite.Driver)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("INKPOT_PORT", "7000")
	t.Setenv("INKPOT_STORAGE_BACKEND", "badger")
	t.Setenv("INKPOT_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "badger", cfg.Storage.Backend)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("INKPOT_TEST_ENV_VALUE=from-dotenv\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("INKPOT_TEST_ENV_VALUE") })

	LoadEnv(path, filepath.Join(t.TempDir(), "missing.env"))
	assert.Equal(t, "from-dotenv", os.Getenv("INKPOT_TEST_ENV_VALUE"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }, "storage.backend"},
		{"unknown compression", func(c *Config) { c.Storage.Compression = "lz4" }, "storage.compression"},
		{"unknown driver", func(c *Config) {
			c.Storage.Backend = "sqlite"
			c.Storage.SQLite.Driver = "pg"
		}, "storage.sqlite.driver"},
		{"s3 without bucket", func(c *Config) { c.Storage.Backend = "s3" }, "storage.s3.bucket"},
		{"zero debounce", func(c *Config) { c.Autosave.Debounce = 0 }, "autosave.debounce"},
		{"negative save timeout", func(c *Config) { c.Autosave.SaveTimeout = -time.Second }, "autosave.save_timeout"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"missing demo user", func(c *Config) { c.Auth.DemoUserID = "" }, "auth.demo_user_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
