// Package config provides configuration types and defaults for modkit.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjrosen/modkit/internal/flags"
	"github.com/zjrosen/modkit/internal/log"
	"github.com/zjrosen/modkit/internal/tracing"
)

// Config holds all configuration options for modkit.
type Config struct {
	// Manifests lists YAML (.yaml/.yml) or HCL (.hcl) component manifests,
	// scanned after the built-in sample source.
	Manifests []string `mapstructure:"manifests"`

	// Root names the host tree root components are attached under.
	Root string `mapstructure:"root"`

	// Builtin includes the built-in sample components as a source.
	Builtin bool `mapstructure:"builtin"`

	Watch   WatchConfig     `mapstructure:"watch"`
	Log     LogConfig       `mapstructure:"log"`
	Tracing tracing.Config  `mapstructure:"tracing"`
	Cache   CacheConfig     `mapstructure:"cache"`
	Flags   map[string]bool `mapstructure:"flags"`
}

// WatchConfig controls manifest reloads during `modkit run`.
type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// LogConfig controls the debug log.
type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
	Path  string `mapstructure:"path"`  // empty = no log file unless --debug
}

// CacheConfig controls the manifest parse cache.
type CacheConfig struct {
	Disabled bool          `mapstructure:"disabled"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.config/modkit/traces/traces.jsonl or empty string if home dir unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "modkit", "traces", "traces.jsonl")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	tr := tracing.DefaultConfig()
	tr.FilePath = "" // Derived from config dir at runtime

	return Config{
		Root:    "root",
		Builtin: true,
		Watch: WatchConfig{
			Enabled:  false,
			Debounce: 500 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "info",
		},
		Tracing: tr,
		Cache: CacheConfig{
			TTL: 10 * time.Minute,
		},
		Flags: flags.Defaults(),
	}
}

// Validate checks every section and joins the errors found.
func (c Config) Validate() error {
	return errors.Join(
		ValidateManifests(c.Manifests),
		ValidateWatch(c.Watch),
		ValidateLog(c.Log),
		ValidateTracing(c.Tracing),
		ValidateCache(c.Cache),
	)
}

// ManifestFormat returns "yaml" or "hcl" for a manifest path, or "" when the
// extension is not recognized.
func ManifestFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".hcl":
		return "hcl"
	default:
		return ""
	}
}

// ValidateManifests checks that every manifest has a supported extension and
// that no path is listed twice.
func ValidateManifests(paths []string) error {
	seen := make(map[string]bool, len(paths))
	for i, p := range paths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("manifests[%d]: path is required", i)
		}
		if ManifestFormat(p) == "" {
			return fmt.Errorf("manifests[%d]: %q must end in .yaml, .yml or .hcl", i, p)
		}
		if seen[p] {
			return fmt.Errorf("manifests[%d]: %q is listed twice", i, p)
		}
		seen[p] = true
	}
	return nil
}

// ValidateWatch checks watch configuration for errors.
func ValidateWatch(w WatchConfig) error {
	if w.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", w.Debounce)
	}
	return nil
}

// ValidateLog checks log configuration for errors.
func ValidateLog(l LogConfig) error {
	if l.Level == "" {
		return nil
	}
	if _, err := log.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// ValidateCache checks cache configuration for errors.
func ValidateCache(c CacheConfig) error {
	if c.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", c.TTL)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tr tracing.Config) error {
	if tr.SampleRate < 0.0 || tr.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tr.SampleRate)
	}

	if !tracing.IsExporter(tr.Exporter) {
		return fmt.Errorf("tracing.exporter must be one of %s, got %q", strings.Join(tracing.Exporters(), ", "), tr.Exporter)
	}

	// Only validate path requirements when tracing is enabled
	if tr.Enabled {
		if tr.Exporter == tracing.ExporterFile && tr.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tr.Exporter == tracing.ExporterOTLP && tr.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# modkit configuration

# Component manifests scanned on start, in order (.yaml, .yml or .hcl)
# manifests:
#   - ./modules/game.yaml
#   - ./modules/audio.hcl
manifests: []

# Name of the host tree root modules are attached under
root: root

# Include the built-in sample components (Game, Inventory, PlayerStats, ...)
builtin: true

# Reload manifests while 'modkit run' is active. Changed manifests are
# scanned again and only components new to the running coordinator start.
watch:
  enabled: false
  debounce: 500ms

# Debug log (also enabled with --debug or MODKIT_DEBUG=1)
log:
  level: info     # debug, info, warn, error
  # path: ./debug.log

# Manifest parse cache, keyed by file digest
cache:
  # disabled: true
  ttl: 10m

# Feature flags
flags:
  locator-auto-register: true   # Register every component in the service locator
  strict-hosting: false         # Drop components whose AttachUnder fails

# Distributed tracing of lifecycle phases and component calls
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/modkit/traces/traces.jsonl  # Output file for file exporter
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
#
# Example: Send traces to Jaeger via OTLP
# tracing:
#   enabled: true
#   exporter: otlp
#   otlp_endpoint: jaeger.internal:4317
#   sample_rate: 0.1  # Sample 10% of traces
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
