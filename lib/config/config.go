// Copyright 2026 The Dexsplit Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/dexsplit/dexsplit/lib/costcache"
	"github.com/dexsplit/dexsplit/lib/split"
)

// EnvVar names the environment variable [Load] reads the job file path
// from.
const EnvVar = "DEXSPLIT_CONFIG"

// Variant selects which override section applies.
type Variant string

const (
	Debug   Variant = "debug"
	Release Variant = "release"
)

// Config is a dexsplit job file.
type Config struct {
	// Variant selects the debug or release override section.
	Variant Variant `yaml:"variant"`

	// Defaults apply to every job that does not set the field itself.
	Defaults SplitDefaults `yaml:"defaults"`

	// Cache configures the persistent footprint cache.
	Cache CacheConfig `yaml:"cache"`

	Jobs []Job `yaml:"jobs"`

	// Per-variant overrides of Defaults, applied after loading.
	DebugOverrides   *SplitDefaults `yaml:"debug,omitempty"`
	ReleaseOverrides *SplitDefaults `yaml:"release,omitempty"`

	// directory is where the file was loaded from. Relative job paths
	// resolve against it.
	directory string
}

// SplitDefaults are the split parameters shared by jobs.
type SplitDefaults struct {
	// Limit is the linear-alloc budget per archive.
	// Default: 5242880
	Limit int64 `yaml:"limit"`

	// SecondaryPattern names secondary archives; one integer verb.
	// Default: secondary-%d.jar
	SecondaryPattern string `yaml:"secondary_pattern"`

	// Strategy is maximize-primary or minimize-primary.
	// Default: maximize-primary
	Strategy string `yaml:"strategy"`

	// Canaries inserts a canary class at the start of every secondary.
	Canaries bool `yaml:"canaries"`

	// Compression is the zip method of output entries: deflate or store.
	// Default: deflate
	Compression string `yaml:"compression"`
}

// CacheConfig configures the footprint cache.
type CacheConfig struct {
	// Dir holds the cache snapshot. Empty disables persistence.
	// Default: ${HOME}/.cache/dexsplit
	Dir string `yaml:"dir"`

	// Compression is none, lz4 or zstd.
	// Default: zstd
	Compression string `yaml:"compression"`

	// MemoryEntries bounds the in-memory tier.
	// Default: 65536
	MemoryEntries int `yaml:"memory_entries"`
}

// Job is one split. Zero-valued optional fields take the defaults.
type Job struct {
	Name         string   `yaml:"name"`
	Inputs       []string `yaml:"inputs"`
	Primary      string   `yaml:"primary"`
	SecondaryDir string   `yaml:"secondary_dir"`
	ReportDir    string   `yaml:"report_dir,omitempty"`

	// PrimaryPatterns select entries that must be in the primary. A
	// pattern starting with "^" is a path prefix, anything else a
	// substring.
	PrimaryPatterns []string `yaml:"primary_patterns,omitempty"`

	Limit            int64  `yaml:"limit,omitempty"`
	SecondaryPattern string `yaml:"secondary_pattern,omitempty"`
	Strategy         string `yaml:"strategy,omitempty"`
	Canaries         *bool  `yaml:"canaries,omitempty"`
	Compression      string `yaml:"compression,omitempty"`
}

// Default returns the configuration used as the base for loading and
// for flag-only invocations.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Variant: Release,
		Defaults: SplitDefaults{
			Limit:            5 * 1024 * 1024,
			SecondaryPattern: "secondary-%d.jar",
			Strategy:         split.MaximizePrimary.String(),
			Compression:      split.CompressDeflate.String(),
		},
		Cache: CacheConfig{
			Dir:           filepath.Join(homeDir, ".cache", "dexsplit"),
			Compression:   costcache.CompressionZstd.String(),
			MemoryEntries: costcache.DefaultMemoryEntries,
		},
	}
}

// Load loads the job file named by DEXSPLIT_CONFIG. There is no
// discovery: if the variable is unset, Load fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvVar)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your job file, or use --config", EnvVar)
	}
	return LoadFile(configPath)
}

// LoadFile loads a job file. Environment variables never override file
// values; they are only expanded where a path field references them.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	absolute, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	cfg.directory = filepath.Dir(absolute)

	cfg.applyVariantOverrides()
	cfg.expandVariables()
	return cfg, nil
}

// applyVariantOverrides merges the section for the selected variant
// into Defaults.
func (c *Config) applyVariantOverrides() {
	var overrides *SplitDefaults
	switch c.Variant {
	case Debug:
		overrides = c.DebugOverrides
	case Release:
		overrides = c.ReleaseOverrides
	}
	if overrides == nil {
		return
	}

	if overrides.Limit != 0 {
		c.Defaults.Limit = overrides.Limit
	}
	if overrides.SecondaryPattern != "" {
		c.Defaults.SecondaryPattern = overrides.SecondaryPattern
	}
	if overrides.Strategy != "" {
		c.Defaults.Strategy = overrides.Strategy
	}
	// Canaries is a bool, so an override section always sets it.
	c.Defaults.Canaries = overrides.Canaries
	if overrides.Compression != "" {
		c.Defaults.Compression = overrides.Compression
	}
}

// expandVariables expands ${VAR} patterns in path fields and resolves
// relative job paths against the job file's directory.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME":       os.Getenv("HOME"),
		"CONFIG_DIR": c.directory,
	}

	c.Cache.Dir = c.resolve(expandVars(c.Cache.Dir, vars))
	for i := range c.Jobs {
		job := &c.Jobs[i]
		for j, input := range job.Inputs {
			job.Inputs[j] = c.resolve(expandVars(input, vars))
		}
		job.Primary = c.resolve(expandVars(job.Primary, vars))
		job.SecondaryDir = c.resolve(expandVars(job.SecondaryDir, vars))
		job.ReportDir = c.resolve(expandVars(job.ReportDir, vars))
	}
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.directory == "" {
		return path
	}
	return filepath.Join(c.directory, path)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Provided vars first, then the environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration and every job. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Variant != Debug && c.Variant != Release {
		errs = append(errs, fmt.Errorf("invalid variant: %q", c.Variant))
	}
	if c.Defaults.Limit <= 0 {
		errs = append(errs, fmt.Errorf("defaults.limit must be positive, got %d", c.Defaults.Limit))
	}
	if _, err := split.ParseStrategy(c.Defaults.Strategy); err != nil {
		errs = append(errs, fmt.Errorf("defaults.strategy: %w", err))
	}
	if _, err := split.ParseCompression(c.Defaults.Compression); err != nil {
		errs = append(errs, fmt.Errorf("defaults.compression: %w", err))
	}
	if _, err := costcache.ParseCompression(c.Cache.Compression); err != nil {
		errs = append(errs, fmt.Errorf("cache.compression: %w", err))
	}
	if c.Cache.MemoryEntries < 0 {
		errs = append(errs, fmt.Errorf("cache.memory_entries must not be negative, got %d", c.Cache.MemoryEntries))
	}

	names := make(map[string]bool, len(c.Jobs))
	for i, job := range c.Jobs {
		label := fmt.Sprintf("jobs[%d]", i)
		if job.Name == "" {
			errs = append(errs, fmt.Errorf("%s: name is required", label))
		} else {
			label = fmt.Sprintf("job %q", job.Name)
			if names[job.Name] {
				errs = append(errs, fmt.Errorf("%s: duplicate job name", label))
			}
			names[job.Name] = true
		}
		errs = append(errs, c.validateJob(label, job)...)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (c *Config) validateJob(label string, job Job) []error {
	var errs []error
	if len(job.Inputs) == 0 {
		errs = append(errs, fmt.Errorf("%s: inputs are required", label))
	}
	if job.Primary == "" {
		errs = append(errs, fmt.Errorf("%s: primary is required", label))
	}
	if job.SecondaryDir == "" {
		errs = append(errs, fmt.Errorf("%s: secondary_dir is required", label))
	}
	for _, pattern := range job.PrimaryPatterns {
		if pattern == "" || pattern == "^" {
			errs = append(errs, fmt.Errorf("%s: empty primary pattern would match every entry", label))
		}
	}
	if job.Limit < 0 {
		errs = append(errs, fmt.Errorf("%s: limit must be positive, got %d", label, job.Limit))
	}
	if job.Strategy != "" {
		if _, err := split.ParseStrategy(job.Strategy); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", label, err))
		}
	}
	if job.Compression != "" {
		if _, err := split.ParseCompression(job.Compression); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", label, err))
		}
	}
	return errs
}

// Job returns the job with the given name.
func (c *Config) Job(name string) (Job, error) {
	for _, job := range c.Jobs {
		if job.Name == name {
			return job, nil
		}
	}
	return Job{}, fmt.Errorf("no job named %q", name)
}

// SplitConfig resolves job against the defaults. The returned config
// has no Logger or Estimator; callers set those.
func (c *Config) SplitConfig(job Job) (split.Config, error) {
	limit := c.Defaults.Limit
	if job.Limit != 0 {
		limit = job.Limit
	}
	pattern := c.Defaults.SecondaryPattern
	if job.SecondaryPattern != "" {
		pattern = job.SecondaryPattern
	}
	strategyName := c.Defaults.Strategy
	if job.Strategy != "" {
		strategyName = job.Strategy
	}
	compressionName := c.Defaults.Compression
	if job.Compression != "" {
		compressionName = job.Compression
	}
	canaries := c.Defaults.Canaries
	if job.Canaries != nil {
		canaries = *job.Canaries
	}

	strategy, err := split.ParseStrategy(strategyName)
	if err != nil {
		return split.Config{}, fmt.Errorf("job %q: %w", job.Name, err)
	}
	compression, err := split.ParseCompression(compressionName)
	if err != nil {
		return split.Config{}, fmt.Errorf("job %q: %w", job.Name, err)
	}

	config := split.Config{
		Inputs:            job.Inputs,
		PrimaryPath:       job.Primary,
		SecondaryDir:      job.SecondaryDir,
		SecondaryPattern:  pattern,
		Limit:             limit,
		RequiredInPrimary: split.PatternPredicate(job.PrimaryPatterns),
		Strategy:          strategy,
		ReportDir:         job.ReportDir,
		Compression:       compression,
	}
	if canaries {
		config.Canaries = split.IncludeCanaries
	}
	return config, nil
}

// CacheOptions returns the footprint cache options. The estimator is
// left for the caller.
func (c *Config) CacheOptions() (costcache.Options, error) {
	compression, err := costcache.ParseCompression(c.Cache.Compression)
	if err != nil {
		return costcache.Options{}, fmt.Errorf("cache.compression: %w", err)
	}
	return costcache.Options{
		Dir:           c.Cache.Dir,
		Compression:   compression,
		MemoryEntries: c.Cache.MemoryEntries,
	}, nil
}
