// Package config loads the aizine configuration file.
//
// The file is TOML and lives at $XDG_CONFIG_HOME/aizine/config.toml
// (~/.config/aizine/config.toml when XDG_CONFIG_HOME is unset). Every key is
// optional; a missing file yields [Default]. Command-line flags override
// whatever the file sets.
//
//	[match]
//	strategy = "auto"          # auto, label or geometry
//	infer_orientation = false
//
//	[export]
//	preset = "[High Quality Print]"
//	preview = false
//	bundle = true              # write magazine.zip next to final.pdf
//
//	[cache]
//	disabled = false
//	dir = ""                   # defaults to $XDG_CACHE_HOME/aizine
//	redis_addr = ""            # use Redis instead of the file cache
//	redis_db = 0
//	ttl = "720h"
//
//	[log]
//	level = "info"
package config

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/aizine/pkg/compose"
	"github.com/matzehuels/aizine/pkg/errors"
	"github.com/matzehuels/aizine/pkg/imageinfo"
	"github.com/matzehuels/aizine/pkg/render"
)

const (
	appName  = "aizine"
	fileName = "config.toml"
)

// Config is the decoded configuration file.
type Config struct {
	Match  Match  `toml:"match"`
	Export Export `toml:"export"`
	Cache  Cache  `toml:"cache"`
	Log    Log    `toml:"log"`

	// Source is the file the config was read from, empty for defaults.
	Source string `toml:"-"`
}

type Match struct {
	Strategy         string `toml:"strategy"`
	InferOrientation bool   `toml:"infer_orientation"`
}

type Export struct {
	Preset  string `toml:"preset"`
	Preview bool   `toml:"preview"`
	Bundle  bool   `toml:"bundle"`
}

type Cache struct {
	Disabled  bool     `toml:"disabled"`
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	RedisDB   int      `toml:"redis_db"`
	TTL       Duration `toml:"ttl"`
}

type Log struct {
	Level string `toml:"level"`
}

// Duration is a time.Duration written as a Go duration string ("720h").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Match:  Match{Strategy: string(compose.StrategyAuto)},
		Export: Export{Preset: render.HighQualityPrint.Name, Bundle: true},
		Cache:  Cache{TTL: Duration{imageinfo.DefaultTTL}},
		Log:    Log{Level: log.InfoLevel.String()},
	}
}

// Path returns the default config file location.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, fileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, fileName), nil
}

// Load reads the config file at path on top of [Default]. An empty path
// means [Path]. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		p, err := Path()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, cfg)
	if stderrors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidInput, "config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "config %s", path)
	}
	cfg.Source = path
	return cfg, nil
}

// Validate checks values the TOML decoder cannot.
func (c *Config) Validate() error {
	if _, err := c.Strategy(); err != nil {
		return err
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache.ttl must not be negative")
	}
	if c.Cache.RedisDB < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache.redis_db must not be negative")
	}
	return nil
}

// Strategy returns the configured match strategy.
func (c *Config) Strategy() (compose.Strategy, error) {
	return compose.ParseStrategy(c.Match.Strategy)
}

// LogLevel returns the configured log level; empty means info.
func (c *Config) LogLevel() (log.Level, error) {
	if c.Log.Level == "" {
		return log.InfoLevel, nil
	}
	return log.ParseLevel(c.Log.Level)
}
