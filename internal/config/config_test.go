package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const key32 = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	cfg, used, err := Load(Options{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, used)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "storytree.yaml", `
log_level: debug
theme: dark
store:
  driver: sqlite
  path: sessions.db
  ttl: 1h
  mask_vars: [name, email]
server:
  addr: ":9000"
  watch: true
`)

	cfg, used, err := Load(Options{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "storytree.yaml"), used)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ThemeDark, cfg.Theme)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "sessions.db", cfg.Store.Path)
	assert.Equal(t, time.Hour, cfg.Store.TTL)
	assert.Equal(t, []string{"name", "email"}, cfg.Store.MaskVars)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.True(t, cfg.Server.Watch)
	// Untouched keys keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.Store.LockTTL)
	assert.Equal(t, 4096, cfg.Input.MaxSize)
}

func TestLoad_TOML(t *testing.T) {
	dir := t.TempDir()
	p := write(t, dir, "custom.toml", `
log_format = "json"

[store]
driver = "redis"
redis_url = "redis://localhost:6379/0"
lock_ttl = "5s"

[input]
max_size = 128
`)

	cfg, used, err := Load(Options{File: p})
	require.NoError(t, err)
	assert.Equal(t, p, used)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Store.RedisURL)
	assert.Equal(t, 5*time.Second, cfg.Store.LockTTL)
	assert.Equal(t, 128, cfg.Input.MaxSize)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "storytree.yml", "theme: light\nstore:\n  driver: file\n")
	t.Setenv("STORYTREE_THEME", "notty")
	t.Setenv("STORYTREE_STORE_PATH", "/tmp/sessions")
	t.Setenv("STORYTREE_STORE_MASK_VARS", "a,b")
	t.Setenv("STORYTREE_SERVER_WATCH", "true")

	cfg, _, err := Load(Options{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, ThemeNoTTY, cfg.Theme)
	assert.Equal(t, DriverFile, cfg.Store.Driver)
	assert.Equal(t, "/tmp/sessions", cfg.Store.Path)
	assert.Equal(t, []string{"a", "b"}, cfg.Store.MaskVars)
	assert.True(t, cfg.Server.Watch)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := write(t, dir, ".env", "STORYTREE_LOG_LEVEL=warn\n")
	t.Setenv("STORYTREE_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("STORYTREE_LOG_LEVEL"))

	cfg, _, err := Load(Options{Dir: dir, EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)

	_, _, err = Load(Options{Dir: dir, EnvFile: filepath.Join(dir, "missing.env")})
	assert.NoError(t, err)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := Load(Options{File: filepath.Join(dir, "nope.yaml")})
	assert.Error(t, err)

	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"unknown key", "a.yaml", "colour: red\n", "colour"},
		{"bad driver", "b.yaml", "store:\n  driver: mongo\n", "unknown store driver"},
		{"sqlite without path", "c.yaml", "store:\n  driver: sqlite\n", "store.path"},
		{"redis without url", "d.toml", "[store]\ndriver = \"redis\"\n", "store.redis_url"},
		{"bad theme", "e.yaml", "theme: neon\n", "unknown theme"},
		{"bad level", "f.yaml", "log_level: loud\n", "unknown log level"},
		{"bad key", "g.yaml", "store:\n  encryption_key: short\n", "encryption_key"},
		{"bad syntax", "h.toml", "store = [", "parse"},
		{"bad format", "i.json", "{}", "unsupported config format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := write(t, dir, tt.file, tt.content)
			_, _, err := Load(Options{File: p})
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), err.Error())
		})
	}
}

func TestDecodeKey(t *testing.T) {
	b, err := DecodeKey(key32)
	require.NoError(t, err)
	assert.Len(t, b, 32)

	b64, err := DecodeKey("AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8=")
	require.NoError(t, err)
	assert.Equal(t, b, b64)

	_, err = DecodeKey("abcd")
	assert.Error(t, err)
}
