// Package config loads board and runtime settings from TOML or YAML files.
//
// Every key is optional. [Default] reproduces the reference board with a
// random source, and a file only needs to name what it changes:
//
//	grid_size = 8
//	coord_size = 8.0
//
//	[contacts]
//	"05" = [0, 4]
//	"06" = [0, 5]
//
//	[source]
//	kind = "tail"
//	path = "/var/log/probe.log"
//
// A [contacts] table replaces the reference layout rather than extending it.
//
// Rendered boards can be cached between runs:
//
//	[cache]
//	kind = "file"   # or "redis", "none"
//	ttl = "24h"
package config

import (
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/boardviz/pkg/board"
	errs "github.com/matzehuels/boardviz/pkg/errors"
	"github.com/matzehuels/boardviz/pkg/source/random"
	"github.com/matzehuels/boardviz/pkg/source/redis"
)

// Source kinds.
const (
	SourceRandom = "random"
	SourceTail   = "tail"
	SourceRedis  = "redis"
)

// SourceKinds lists the accepted values of source.kind.
var SourceKinds = []string{SourceRandom, SourceTail, SourceRedis}

// Cache kinds.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// CacheKinds lists the accepted values of cache.kind.
var CacheKinds = []string{CacheNone, CacheFile, CacheRedis}

// DefaultCachePrefix namespaces render cache keys in Redis.
const DefaultCachePrefix = "boardviz:"

// Display defaults.
const (
	DefaultWidth    = 600
	DefaultSavePath = "board.svg"
	DefaultHistory  = 10
)

// Config is the root of a configuration file.
type Config struct {
	GridSize  int              `toml:"grid_size" yaml:"grid_size"`
	CoordSize float64          `toml:"coord_size" yaml:"coord_size"`
	Contacts  map[string][]int `toml:"contacts" yaml:"contacts"`
	Style     Style            `toml:"style" yaml:"style"`
	Source    Source           `toml:"source" yaml:"source"`
	Display   Display          `toml:"display" yaml:"display"`
	Cache     Cache            `toml:"cache" yaml:"cache"`
}

// Style sets how connections are drawn.
type Style struct {
	Color string  `toml:"color" yaml:"color"`
	Width float64 `toml:"width" yaml:"width"`
}

// Source selects and tunes the connection source.
type Source struct {
	Kind       string `toml:"kind" yaml:"kind"`
	Interval   string `toml:"interval" yaml:"interval"`
	Count      int    `toml:"count" yaml:"count"`
	LabelWidth int    `toml:"label_width" yaml:"label_width"`
	Seed       uint64 `toml:"seed" yaml:"seed"`

	Path      string `toml:"path" yaml:"path"`
	FromStart bool   `toml:"from_start" yaml:"from_start"`

	RedisAddr    string `toml:"redis_addr" yaml:"redis_addr"`
	RedisChannel string `toml:"redis_channel" yaml:"redis_channel"`
}

// Display configures the terminal and web displays.
type Display struct {
	Width    int    `toml:"width" yaml:"width"`
	SavePath string `toml:"save_path" yaml:"save_path"`
	HTTPAddr string `toml:"http_addr" yaml:"http_addr"`
	History  int    `toml:"history" yaml:"history"`
}

// Cache configures the render cache. An empty Dir uses the user cache
// directory; an empty RedisAddr uses source.redis_addr.
type Cache struct {
	Kind      string `toml:"kind" yaml:"kind"`
	Dir       string `toml:"dir" yaml:"dir"`
	TTL       string `toml:"ttl" yaml:"ttl"`
	RedisAddr string `toml:"redis_addr" yaml:"redis_addr"`
	Prefix    string `toml:"prefix" yaml:"prefix"`
}

// Default returns the reference board with a random source that emits one
// connection every two seconds.
func Default() *Config {
	contacts := make(map[string][]int)
	for id, t := range board.ReferenceContacts() {
		contacts[id] = []int{t.X, t.Y}
	}
	return &Config{
		GridSize:  board.ReferenceGridSize,
		CoordSize: board.ReferenceCoordSize,
		Contacts:  contacts,
		Style: Style{
			Color: board.DefaultStyle.Color,
			Width: board.DefaultStyle.Width,
		},
		Source: Source{
			Kind:         SourceRandom,
			Interval:     random.DefaultInterval.String(),
			Count:        random.DefaultCount,
			LabelWidth:   random.DefaultWidth,
			RedisAddr:    redis.DefaultAddr,
			RedisChannel: redis.DefaultChannel,
		},
		Display: Display{
			Width:    DefaultWidth,
			SavePath: DefaultSavePath,
			History:  DefaultHistory,
		},
		Cache: Cache{
			Kind:   CacheNone,
			Prefix: DefaultCachePrefix,
		},
	}
}

// Load reads a configuration file over [Default] and validates the result.
// The format is chosen by extension: .toml, or .yaml/.yml.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeIO, err, "read config")
	}

	cfg := Default()
	cfg.Contacts = nil

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse %s", filepath.Base(path))
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse %s", filepath.Base(path))
		}
	default:
		return nil, errs.New(errs.ErrCodeInvalidFormat, "unsupported config format %q (use .toml, .yaml or .yml)", ext)
	}

	if cfg.Contacts == nil {
		cfg.Contacts = Default().Contacts
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field and returns the first problem found as an
// INVALID_CONFIG error.
func (c *Config) Validate() error {
	if c.GridSize <= 0 {
		return invalid("grid_size must be positive, got %d", c.GridSize)
	}
	if !(c.CoordSize > 0) {
		return invalid("coord_size must be positive, got %v", c.CoordSize)
	}
	for _, id := range slices.Sorted(maps.Keys(c.Contacts)) {
		if err := errs.ValidateContactID(id); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidConfig, err, "contacts")
		}
		pos := c.Contacts[id]
		if len(pos) != 2 {
			return invalid("contact %s: want [x, y], got %v", id, pos)
		}
		if pos[0] < 0 || pos[0] >= c.GridSize || pos[1] < 0 || pos[1] >= c.GridSize {
			return invalid("contact %s: tile %v outside %dx%d grid", id, pos, c.GridSize, c.GridSize)
		}
	}

	if c.Style.Color == "" {
		return invalid("style.color must not be empty")
	}
	if !(c.Style.Width > 0) {
		return invalid("style.width must be positive, got %v", c.Style.Width)
	}

	if err := c.Source.validate(); err != nil {
		return err
	}

	if c.Display.Width <= 0 {
		return invalid("display.width must be positive, got %d", c.Display.Width)
	}
	if c.Display.History < 0 {
		return invalid("display.history must not be negative, got %d", c.Display.History)
	}
	if c.Display.SavePath != "" {
		if err := errs.ValidateOutputPath(c.Display.SavePath); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidConfig, err, "display.save_path")
		}
	}

	return c.Cache.validate()
}

func (c Cache) validate() error {
	if !slices.Contains(CacheKinds, c.Kind) {
		return invalid("cache.kind %q is not one of %s", c.Kind, strings.Join(CacheKinds, ", "))
	}
	_, err := c.ttl()
	return err
}

func (c Cache) ttl() (time.Duration, error) {
	if c.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 0, errs.Wrap(errs.ErrCodeInvalidConfig, err, "cache.ttl")
	}
	if d < 0 {
		return 0, invalid("cache.ttl must not be negative, got %s", d)
	}
	return d, nil
}

// CacheTTL returns the parsed cache TTL; zero means entries never expire.
func (c *Config) CacheTTL() time.Duration {
	d, _ := c.Cache.ttl()
	return d
}

func (s Source) validate() error {
	if !slices.Contains(SourceKinds, s.Kind) {
		return invalid("source.kind %q is not one of %s", s.Kind, strings.Join(SourceKinds, ", "))
	}
	if _, err := s.interval(); err != nil {
		return err
	}
	if s.Count < 2 {
		return invalid("source.count must be at least 2, got %d", s.Count)
	}
	if s.LabelWidth < 1 {
		return invalid("source.label_width must be at least 1, got %d", s.LabelWidth)
	}
	if s.Kind == SourceTail && s.Path == "" {
		return invalid("source.path is required for the tail source")
	}
	if s.Kind == SourceRedis && s.RedisChannel == "" {
		return invalid("source.redis_channel is required for the redis source")
	}
	return nil
}

func (s Source) interval() (time.Duration, error) {
	if s.Interval == "" {
		return random.DefaultInterval, nil
	}
	d, err := time.ParseDuration(s.Interval)
	if err != nil {
		return 0, errs.Wrap(errs.ErrCodeInvalidConfig, err, "source.interval")
	}
	if d < 0 {
		return 0, invalid("source.interval must not be negative, got %s", d)
	}
	return d, nil
}

// Interval returns the parsed source interval. It assumes the config was
// validated and falls back to the default otherwise.
func (c *Config) Interval() time.Duration {
	d, err := c.Source.interval()
	if err != nil {
		return random.DefaultInterval
	}
	return d
}

// Tiles returns the contact layout as board tiles.
func (c *Config) Tiles() map[string]board.Tile {
	out := make(map[string]board.Tile, len(c.Contacts))
	for id, pos := range c.Contacts {
		if len(pos) == 2 {
			out[id] = board.Tile{X: pos[0], Y: pos[1]}
		}
	}
	return out
}

// BoardStyle returns the connection style as a [board.Style].
func (c *Config) BoardStyle() board.Style {
	return board.Style{Color: c.Style.Color, Width: c.Style.Width}
}

// AspectHeight returns the display height for the configured width.
func (c *Config) AspectHeight() int {
	return int(float64(c.Display.Width) * board.AspectRatio)
}

func invalid(format string, args ...any) error {
	return errs.New(errs.ErrCodeInvalidConfig, format, args...)
}
