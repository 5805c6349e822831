// Package config loads the settings of the storytree commands.
//
// Values are layered: built-in defaults, then an optional configuration
// file (storytree.yaml, storytree.yml or storytree.toml), then STORYTREE_*
// environment variables, which may come from a .env file. Command-line
// flags are applied last by the caller.
package config

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/storytree/internal/logging"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STORYTREE_"

// FileNames are searched, in order, when no file is given explicitly.
var FileNames = []string{"storytree.yaml", "storytree.yml", "storytree.toml"}

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Markdown themes.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
	ThemeNoTTY = "notty"
)

// Config is the full configuration.
type Config struct {
	LogLevel  string `mapstructure:"log_level" env:"LOG_LEVEL"`
	LogFormat string `mapstructure:"log_format" env:"LOG_FORMAT"`
	Theme     string `mapstructure:"theme" env:"THEME"`

	Store  StoreConfig  `mapstructure:"store" envPrefix:"STORE_"`
	Server ServerConfig `mapstructure:"server" envPrefix:"SERVER_"`
	Input  InputConfig  `mapstructure:"input" envPrefix:"INPUT_"`
}

// StoreConfig selects where reading sessions are kept.
type StoreConfig struct {
	Driver string `mapstructure:"driver" env:"DRIVER"`
	// Path is the session directory (file) or database file (sqlite).
	Path     string        `mapstructure:"path" env:"PATH"`
	RedisURL string        `mapstructure:"redis_url" env:"REDIS_URL"`
	Prefix   string        `mapstructure:"prefix" env:"PREFIX"`
	TTL      time.Duration `mapstructure:"ttl" env:"TTL"`
	LockTTL  time.Duration `mapstructure:"lock_ttl" env:"LOCK_TTL"`

	// EncryptionKey is a 32 byte key, hex or base64 encoded. Empty
	// disables encryption at rest.
	EncryptionKey string   `mapstructure:"encryption_key" env:"ENCRYPTION_KEY"`
	FallbackKeys  []string `mapstructure:"fallback_keys" env:"FALLBACK_KEYS" envSeparator:","`
	// MaskVars are patterns of story variables masked before saving.
	MaskVars []string `mapstructure:"mask_vars" env:"MASK_VARS" envSeparator:","`
}

// ServerConfig applies to serve and mcp.
type ServerConfig struct {
	Addr  string `mapstructure:"addr" env:"ADDR"`
	Watch bool   `mapstructure:"watch" env:"WATCH"`
}

// InputConfig bounds reader input.
type InputConfig struct {
	MaxSize int `mapstructure:"max_size" env:"MAX_SIZE"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Theme:     ThemeAuto,
		Store: StoreConfig{
			Driver:  DriverMemory,
			LockTTL: 30 * time.Second,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Input: InputConfig{
			MaxSize: 4096,
		},
	}
}

// Options control Load.
type Options struct {
	// File is an explicit configuration file. It must exist.
	File string
	// Dir is searched for FileNames when File is empty.
	Dir string
	// EnvFile is loaded into the environment when present. Variables
	// already set are not overridden.
	EnvFile string
}

// Load builds the configuration. It returns the file that was used, if any.
func Load(opts Options) (*Config, string, error) {
	cfg := Default()

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("load %s: %w", opts.EnvFile, err)
		}
	}

	path, err := locate(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, "", err
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, "", fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func locate(opts Options) (string, error) {
	if opts.File != "" {
		if _, err := os.Stat(opts.File); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return opts.File, nil
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

// decodeFile reads YAML or TOML into a generic map and decodes it onto cfg,
// so keys absent from the file keep their current values.
func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	raw := make(map[string]any)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Validate checks enumerations and keys.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	switch c.Theme {
	case ThemeAuto, ThemeDark, ThemeLight, ThemeNoTTY:
	default:
		return fmt.Errorf("unknown theme %q", c.Theme)
	}
	switch c.Store.Driver {
	case DriverMemory, DriverFile:
	case DriverSQLite:
		if c.Store.Path == "" {
			return errors.New("store.path is required by the sqlite driver")
		}
	case DriverRedis:
		if c.Store.RedisURL == "" {
			return errors.New("store.redis_url is required by the redis driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.EncryptionKey != "" {
		if _, err := DecodeKey(c.Store.EncryptionKey); err != nil {
			return fmt.Errorf("store.encryption_key: %w", err)
		}
	}
	for i, k := range c.Store.FallbackKeys {
		if _, err := DecodeKey(k); err != nil {
			return fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
		}
	}
	return nil
}

// DecodeKey decodes a 32 byte key from hex or base64.
func DecodeKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if b, err := hex.DecodeString(s); err == nil && len(b) == 32 {
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil && len(b) == 32 {
		return b, nil
	}
	return nil, errors.New("key must be 32 bytes, hex or base64 encoded")
}
