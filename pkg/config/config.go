// Package config loads the FlowScope server configuration from a TOML
// file, with sane defaults for running against a local Docker daemon.
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/valhq/flowscope/pkg/errors"
	"github.com/valhq/flowscope/pkg/layout"
)

// Config is the full server configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Docker DockerConfig `toml:"docker"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Layout LayoutConfig `toml:"layout"`
}

// ServerConfig controls the HTTP listener and the websocket feed.
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	PollInterval    duration `toml:"poll_interval"`
	ShutdownTimeout duration `toml:"shutdown_timeout"`
}

// DockerConfig controls the daemon connection. An empty host uses the
// standard environment (DOCKER_HOST, falling back to the local socket).
type DockerConfig struct {
	Host string `toml:"host"`
}

// CacheConfig selects the cache backend: "none", "file", or "redis".
type CacheConfig struct {
	Backend  string   `toml:"backend"`
	Dir      string   `toml:"dir"`
	Addr     string   `toml:"addr"`
	Password string   `toml:"password"`
	DB       int      `toml:"db"`
	TTL      duration `toml:"ttl"`
}

// StoreConfig selects the saved-layout backend: "memory" or "mongo".
type StoreConfig struct {
	Backend    string `toml:"backend"`
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// LayoutConfig sets the default algorithm used when a request does not
// name one, plus optional overrides for the per-algorithm defaults.
// Zero values leave the built-in defaults untouched.
type LayoutConfig struct {
	DefaultAlgorithm string  `toml:"default_algorithm"`
	GridColumns      int     `toml:"grid_columns"`
	GridGapX         float64 `toml:"grid_gap_x"`
	GridGapY         float64 `toml:"grid_gap_y"`
	LevelHeight      float64 `toml:"level_height"`
	NodeSpacing      float64 `toml:"node_spacing"`
	ForceIterations  int     `toml:"force_iterations"`
}

// Params merges the configured overrides onto the built-in layout
// defaults.
func (c LayoutConfig) Params() layout.Params {
	p := layout.DefaultParams()
	if c.GridColumns > 0 {
		p.Grid.Columns = c.GridColumns
	}
	if c.GridGapX > 0 {
		p.Grid.GapX = c.GridGapX
	}
	if c.GridGapY > 0 {
		p.Grid.GapY = c.GridGapY
	}
	if c.LevelHeight > 0 {
		p.Hierarchical.LevelHeight = c.LevelHeight
	}
	if c.NodeSpacing > 0 {
		p.Hierarchical.NodeSpacing = c.NodeSpacing
	}
	if c.ForceIterations > 0 {
		p.Force.Iterations = c.ForceIterations
	}
	return p
}

// duration wraps time.Duration for TOML strings like "5s".
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration.
func (d duration) Duration() time.Duration { return time.Duration(d) }

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8095",
			PollInterval:    duration(5 * time.Second),
			ShutdownTimeout: duration(10 * time.Second),
		},
		Cache: CacheConfig{
			Backend: "none",
			TTL:     duration(30 * time.Second),
		},
		Store: StoreConfig{
			Backend: "memory",
		},
		Layout: LayoutConfig{
			DefaultAlgorithm: "hierarchical",
		},
	}
}

// Load reads a TOML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Cache.Backend {
	case "", "none", "file", "redis":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case "", "memory", "mongo":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend == "mongo" && c.Store.URI == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "store backend mongo requires a uri")
	}
	if c.Cache.Backend == "redis" && c.Cache.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache backend redis requires an addr")
	}
	if a := c.Layout.DefaultAlgorithm; a != "" && !layout.ValidAlgorithms[a] {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown layout algorithm %q", a)
	}
	return nil
}
