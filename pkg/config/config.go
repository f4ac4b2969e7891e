// Package config loads forge.toml, the workspace configuration file.
//
// The file lives at the workspace root and every key is optional:
//
//	language = "nomnoml"            # fence info string of diagram blocks
//	title = "Diagram"               # heading written above the diagram block
//	directives = ["#direction: right"]
//	trailing_sections = ["Notes"]   # headings written after the block
//
//	[cache]
//	backend = "file"                # file, redis or none
//	dir = ""                        # defaults to the user cache directory
//	redis_url = "redis://localhost:6379/0"
//	ttl = "168h"
//
//	[server]
//	addr = "127.0.0.1:7420"
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/forge/pkg/diagram"
	errs "github.com/matzehuels/forge/pkg/errors"
)

// FileName is the name of the configuration file.
const FileName = "forge.toml"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// DefaultAddr is the listen address of forge serve.
const DefaultAddr = "127.0.0.1:7420"

// Config is the decoded forge.toml.
type Config struct {
	Language         string   `toml:"language"`
	Title            string   `toml:"title"`
	Directives       []string `toml:"directives"`
	TrailingSections []string `toml:"trailing_sections"`

	Cache  Cache  `toml:"cache"`
	Server Server `toml:"server"`

	// Root is the directory holding forge.toml. It is not read from the file.
	Root string `toml:"-"`

	// Unknown lists keys present in the file that no field consumed.
	Unknown []string `toml:"-"`
}

// Cache configures the parse and export cache.
type Cache struct {
	Backend  string   `toml:"backend"`
	Dir      string   `toml:"dir"`
	RedisURL string   `toml:"redis_url"`
	TTL      Duration `toml:"ttl"`
}

// Server configures forge serve.
type Server struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as a Go duration string ("90m").
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText writes the duration as a string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no forge.toml exists.
func Default() Config {
	sk := diagram.DefaultSkeleton()
	return Config{
		Language:         diagram.DefaultLanguage,
		Title:            sk.Title,
		TrailingSections: sk.Sections,
		Cache:            Cache{Backend: BackendFile, TTL: Duration{7 * 24 * time.Hour}},
		Server:           Server{Addr: DefaultAddr},
	}
}

// Load reads forge.toml from root. A missing file yields Default with Root
// set. Values present in the file override the defaults.
func Load(root string) (Config, error) {
	cfg := Default()
	cfg.Root = root

	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, errs.Wrap(errs.ErrCodeInvalidConfig, err, "read %s", path)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	for _, k := range md.Undecoded() {
		cfg.Unknown = append(cfg.Unknown, k.String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Find walks up from dir to the first directory holding forge.toml and
// returns it. When none is found, dir itself is returned with found false.
func Find(dir string) (root string, found bool, err error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", false, err
	}
	for d := abs; ; {
		if _, err := os.Stat(filepath.Join(d, FileName)); err == nil {
			return d, true, nil
		}
		parent := filepath.Dir(d)
		if parent == d {
			return abs, false, nil
		}
		d = parent
	}
}

// Validate checks values that cannot be caught by decoding.
func (c Config) Validate() error {
	if c.Language == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "language cannot be empty")
	}
	if strings.ContainsAny(c.Language, " \t\r\n`~") {
		return errs.New(errs.ErrCodeInvalidConfig, "language %q must be a single word without backticks or tildes", c.Language)
	}
	for _, d := range c.Directives {
		// Directives are written inside the diagram block, so anything the
		// parser would read as a node or edge corrupts the diagram.
		t := strings.TrimSpace(d)
		if strings.ContainsAny(d, "\r\n") || !(strings.HasPrefix(t, "#") || strings.HasPrefix(t, "//")) {
			return errs.New(errs.ErrCodeInvalidConfig, "directive %q must be a single line starting with '#' or '//'", d)
		}
	}
	if !slices.Contains([]string{BackendFile, BackendRedis, BackendNone}, c.Cache.Backend) {
		return errs.New(errs.ErrCodeInvalidConfig, "unknown cache backend %q (available: file, redis, none)", c.Cache.Backend)
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisURL == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "cache.redis_url is required for the redis backend")
	}
	if c.Cache.TTL.Duration < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "cache.ttl cannot be negative")
	}
	return nil
}

// Skeleton returns the diagram document skeleton described by the config.
func (c Config) Skeleton() diagram.Skeleton {
	return diagram.Skeleton{
		Title:      c.Title,
		Directives: slices.Clone(c.Directives),
		Sections:   slices.Clone(c.TrailingSections),
	}
}

// Serializer returns a diagram serializer for the configured language and
// skeleton.
func (c Config) Serializer() *diagram.Serializer {
	return diagram.NewSerializer(c.Language, c.Skeleton())
}
