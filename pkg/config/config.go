package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/praetorian-inc/suppcheck/pkg/candidate"
	"github.com/praetorian-inc/suppcheck/pkg/suppression"
)

// Default set names used when no configuration file is given.
const (
	CommonSet    = "common"
	MacSet       = "mac"
	HeapcheckSet = "heapcheck"
)

// Config is the suppcheck configuration file.
type Config struct {
	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`

	// Workers bounds parallel matching and log reads (0 = GOMAXPROCS)
	Workers int `yaml:"workers"`

	// DisablePrefilter turns off the Aho-Corasick candidate prefilter
	DisablePrefilter bool `yaml:"disable_prefilter"`

	// CommonSet names the set every report is checked against
	CommonSet string `yaml:"common_set"`

	// Sets maps set names to suppression files, in load order
	Sets map[string][]string `yaml:"sets"`

	// Routes add sets for reports whose origins all match a pattern
	Routes []RouteConfig `yaml:"routes"`

	// Include and Exclude filter suppressions by name (regular expressions)
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`

	// ExtractArchives reads logs out of .zip, .7z and .gz inputs
	ExtractArchives bool `yaml:"extract_archives"`

	// MaxLogSize skips logs larger than this many bytes (0 = no limit)
	MaxLogSize int64 `yaml:"max_log_size"`

	// MetricsFile receives Prometheus text-format metrics after a check
	MetricsFile string `yaml:"metrics_file"`

	// dir resolves relative paths; the config file's directory
	dir string
}

// RouteConfig is one routing rule.
type RouteConfig struct {
	Name          string   `yaml:"name"`
	OriginPattern string   `yaml:"origin_pattern"`
	Sets          []string `yaml:"sets"`
}

// Default returns the configuration used without a config file: empty
// common, mac and heapcheck sets with the waterfall routes. Environment
// overrides apply.
func Default() *Config {
	cfg := &Config{
		LogLevel:  "info",
		CommonSet: CommonSet,
		Sets: map[string][]string{
			CommonSet:    nil,
			MacSet:       nil,
			HeapcheckSet: nil,
		},
		ExtractArchives: true,
	}
	for _, r := range candidate.DefaultRoutes() {
		cfg.Routes = append(cfg.Routes, RouteConfig{
			Name:          r.Name,
			OriginPattern: r.OriginPattern.String(),
			Sets:          r.Sets,
		})
	}
	cfg.applyEnv()
	return cfg
}

// Load reads, defaults, overrides from the environment and validates the
// configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML configuration. Relative suppression paths resolve
// against dir. Unknown keys are rejected.
func Parse(data []byte, dir string) (*Config, error) {
	cfg := &Config{
		LogLevel:        "info",
		CommonSet:       CommonSet,
		ExtractArchives: true,
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.dir = dir
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv lets CI override logging and parallelism without editing the file.
func (c *Config) applyEnv() {
	c.LogLevel = getEnv("SUPPCHECK_LOG_LEVEL", c.LogLevel)
	c.LogJSON = getEnvBool("SUPPCHECK_LOG_JSON", c.LogJSON)
	c.Workers = getEnvInt("SUPPCHECK_WORKERS", c.Workers)
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log_level", "must be debug, info, warn or error, got %q", c.LogLevel)
	}

	if c.Workers < 0 {
		return invalid("workers", "must not be negative, got %d", c.Workers)
	}
	if c.MaxLogSize < 0 {
		return invalid("max_log_size", "must not be negative, got %d", c.MaxLogSize)
	}

	if c.CommonSet == "" {
		return invalid("common_set", "is required")
	}
	if _, ok := c.Sets[c.CommonSet]; !ok {
		return invalid("common_set", "set %q is not defined in sets", c.CommonSet)
	}

	seen := make(map[string]bool, len(c.Routes))
	for i, r := range c.Routes {
		field := fmt.Sprintf("routes[%d]", i)
		if r.Name == "" {
			return invalid(field, "name is required")
		}
		if r.Name == candidate.CommonRoute {
			return invalid(field, "name %q is reserved", r.Name)
		}
		if seen[r.Name] {
			return invalid(field, "duplicate route %q", r.Name)
		}
		seen[r.Name] = true

		if r.OriginPattern == "" {
			return invalid(field, "origin_pattern is required")
		}
		if _, err := regexp.Compile(r.OriginPattern); err != nil {
			return invalid(field, "invalid origin_pattern: %v", err)
		}
		if len(r.Sets) == 0 {
			return invalid(field, "at least one set is required")
		}
		for _, s := range r.Sets {
			if _, ok := c.Sets[s]; !ok {
				return invalid(field, "set %q is not defined in sets", s)
			}
		}
	}

	for _, patterns := range [][]string{c.Include, c.Exclude} {
		for _, p := range patterns {
			if _, err := regexp.Compile(p); err != nil {
				return invalid("include/exclude", "invalid pattern %q: %v", p, err)
			}
		}
	}

	return nil
}

// WorkerCount returns the effective worker count.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// SetPaths returns the files of set name with relative paths resolved.
func (c *Config) SetPaths(name string) []string {
	paths := c.Sets[name]
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if c.dir != "" && !filepath.IsAbs(p) {
			p = filepath.Join(c.dir, p)
		}
		out = append(out, p)
	}
	return out
}

// AddFiles appends files to set name, creating the set if needed.
func (c *Config) AddFiles(name string, paths ...string) {
	if c.Sets == nil {
		c.Sets = make(map[string][]string)
	}
	c.Sets[name] = append(c.Sets[name], paths...)
}

// CandidateRoutes compiles the configured routes.
func (c *Config) CandidateRoutes() ([]candidate.Route, error) {
	routes := make([]candidate.Route, 0, len(c.Routes))
	for _, r := range c.Routes {
		route, err := candidate.NewRoute(r.Name, r.OriginPattern, r.Sets...)
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}
	return routes, nil
}

// LoadSets loads and filters every set's suppression files. A malformed
// suppression anywhere is returned as an error.
func (c *Config) LoadSets(loader *suppression.Loader) (candidate.Sets, error) {
	filter := suppression.FilterConfig{Include: c.Include, Exclude: c.Exclude}

	sets := make(candidate.Sets, len(c.Sets))
	for name := range c.Sets {
		supps, err := loader.LoadFiles(c.SetPaths(name)...)
		if err != nil {
			return nil, fmt.Errorf("set %s: %w", name, err)
		}
		supps, err = suppression.Filter(supps, filter)
		if err != nil {
			return nil, fmt.Errorf("set %s: %w", name, err)
		}
		sets[name] = supps
	}
	return sets, nil
}

// Router loads every set and builds the candidate router.
func (c *Config) Router(loader *suppression.Loader) (*candidate.Router, error) {
	sets, err := c.LoadSets(loader)
	if err != nil {
		return nil, err
	}
	routes, err := c.CandidateRoutes()
	if err != nil {
		return nil, err
	}
	return candidate.NewRouter(sets, c.CommonSet, routes)
}
