package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/ritzau/lumen-atlas/pkg/atlas"
	"github.com/ritzau/lumen-atlas/pkg/embedding"
)

// EnvPrefix prefixes environment overrides, e.g. LUMEN_ATLAS_PORT=9090.
const EnvPrefix = "LUMEN_ATLAS_"

// DefaultFile is the optional config file read from the working directory.
const DefaultFile = "lumen-atlas.toml"

// Config holds all configuration for the application
type Config struct {
	Snapshot  string `koanf:"snapshot"`  // snapshot to load
	Out       string `koanf:"out"`       // export path, empty for no export
	Source    string `koanf:"source"`    // export source: authored or adjacency
	Missing   string `koanf:"missing"`   // barycenter policy for unknown ids: origin or exclude
	WebMode   bool   `koanf:"web"`       // serve the read API
	Port      int    `koanf:"port"`      // API port
	Watch     bool   `koanf:"watch"`     // reload the snapshot when it changes
	Verbosity string `koanf:"verbosity"` // log level name
	Verbose   int    `koanf:"verbose"`   // -v count
	JSONLogs  bool   `koanf:"json"`      // JSON log output
}

// Defaults returns the built-in configuration values.
func Defaults() map[string]any {
	return map[string]any{
		"snapshot":  "atlas.json",
		"out":       "",
		"source":    string(atlas.ExportAuthored),
		"missing":   "origin",
		"web":       false,
		"port":      8080,
		"watch":     false,
		"verbosity": "info",
		"verbose":   0,
		"json":      false,
	}
}

// RegisterFlags declares the command-line flags that Load reads back.
func RegisterFlags(f *pflag.FlagSet) {
	d := Defaults()
	f.StringP("snapshot", "s", d["snapshot"].(string), "Atlas snapshot to load (.json, .yaml or .yml)")
	f.StringP("out", "o", "", "Write the loaded atlas to this path")
	f.String("source", d["source"].(string), "Export neighbors from authored lists or graph adjacency (authored|adjacency)")
	f.String("missing", d["missing"].(string), "Barycenter treatment of unknown node ids (origin|exclude)")
	f.Bool("web", false, "Serve the read API instead of printing a summary")
	f.IntP("port", "p", d["port"].(int), "Port for the read API (only used with --web)")
	f.BoolP("watch", "w", false, "Reload the snapshot when the file changes (only used with --web)")
	f.String("verbosity", d["verbosity"].(string), "Log level (trace|debug|info|warn|error)")
	f.CountP("verbose", "v", "Increase log verbosity (repeatable)")
	f.Bool("json", false, "Log as JSON")
}

// Options selects the sources Load reads. Zero values use the defaults.
type Options struct {
	File   string // config file, DefaultFile when empty
	DotEnv bool   // load .env into the environment first
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	return LoadWith(f, Options{DotEnv: true})
}

// LoadWith is Load with explicit sources.
func LoadWith(f *pflag.FlagSet, opts Options) (*Config, error) {
	if opts.DotEnv {
		// .env is optional; a missing file is not an error
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file (optional)
	path := opts.File
	if path == "" {
		path = DefaultFile
	}
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	// 3. Environment variables
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that have a closed set of choices.
func (c *Config) Validate() error {
	if _, err := c.ExportOptions(); err != nil {
		return fmt.Errorf("invalid source: %w", err)
	}
	if _, err := c.MissingPolicy(); err != nil {
		return fmt.Errorf("invalid missing: %w", err)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// ExportOptions converts Source into atlas export options.
func (c *Config) ExportOptions() (atlas.ExportOptions, error) {
	src, err := atlas.ParseExportSource(c.Source)
	return atlas.ExportOptions{Source: src}, err
}

// MissingPolicy converts Missing into an embedding policy.
func (c *Config) MissingPolicy() (embedding.MissingPolicy, error) {
	return embedding.ParseMissingPolicy(c.Missing)
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]any
}

func makeMapProvider(m map[string]any) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]any, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
