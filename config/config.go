package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brettbedarf/adaptergw"
	"github.com/brettbedarf/adaptergw/internal/util"
	"gopkg.in/yaml.v3"
)

// Config contains runtime configuration values for the gateway.
// It is built once at startup and treated as read-only afterwards.
type Config struct {
	LogLvl util.LogLevel // Log level (Default info)

	ServicePort  int    // Port the gateway listens on (Default 8080)
	RegistryHost string // Registry service host (Default localhost)
	RegistryPort int    // Registry service port (Default 8094)

	ClientTimeout       float64 // Per-hop timeout in seconds (Default 30)
	MaxIdleConns        int     // Pooled idle connections across all hosts (Default 100)
	MaxIdleConnsPerHost int     // Pooled idle connections per host (Default 10)
	IdleConnTimeout     float64 // Seconds an idle pooled connection is kept (Default 90)

	MaxBodyBytes int64 // Inbound request body cap in bytes (Default 10MB)

	MetricsEnabled bool   // Serve Prometheus metrics (Default true)
	MetricsPath    string // Path metrics are served on (Default /metrics)

	ShutdownTimeout float64 // Seconds to drain in-flight requests on shutdown (Default 10)
}

// Registry returns the registry service location
func (c *Config) Registry() adaptergw.Location {
	return adaptergw.Location{Host: c.RegistryHost, Port: c.RegistryPort}
}

// ListenAddr returns the address the gateway binds to
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.ServicePort)
}

// ClientTimeoutDuration returns ClientTimeout as a time.Duration
func (c *Config) ClientTimeoutDuration() time.Duration {
	return seconds(c.ClientTimeout)
}

// IdleConnTimeoutDuration returns IdleConnTimeout as a time.Duration
func (c *Config) IdleConnTimeoutDuration() time.Duration {
	return seconds(c.IdleConnTimeout)
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return seconds(c.ShutdownTimeout)
}

// Validate reports the first setting the gateway cannot start with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RegistryHost) == "" {
		return fmt.Errorf("registry host is required")
	}
	if !validPort(c.RegistryPort) {
		return fmt.Errorf("registry port %d out of range", c.RegistryPort)
	}
	if !validPort(c.ServicePort) {
		return fmt.Errorf("service port %d out of range", c.ServicePort)
	}
	if c.ClientTimeout <= 0 {
		return fmt.Errorf("client timeout must be > 0")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be > 0")
	}
	if c.MetricsEnabled && !strings.HasPrefix(c.MetricsPath, "/") {
		return fmt.Errorf("metrics path %q must start with /", c.MetricsPath)
	}
	return nil
}

func validPort(p int) bool {
	return p > 0 && p <= 65535
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
type ConfigOverride struct {
	// LogLvl is a CLI style verbosity between 1 (error) and 5 (trace)
	LogLvl *int `yaml:"log_verbose,omitempty" json:"log_verbose,omitempty"`

	ServicePort  *int    `yaml:"service_port,omitempty" json:"service_port,omitempty"`
	RegistryHost *string `yaml:"registry_host,omitempty" json:"registry_host,omitempty"`
	RegistryPort *int    `yaml:"registry_port,omitempty" json:"registry_port,omitempty"`

	ClientTimeout       *float64 `yaml:"client_timeout,omitempty" json:"client_timeout,omitempty"`
	MaxIdleConns        *int     `yaml:"max_idle_conns,omitempty" json:"max_idle_conns,omitempty"`
	MaxIdleConnsPerHost *int     `yaml:"max_idle_conns_per_host,omitempty" json:"max_idle_conns_per_host,omitempty"`
	IdleConnTimeout     *float64 `yaml:"idle_conn_timeout,omitempty" json:"idle_conn_timeout,omitempty"`

	MaxBodyBytes *int64 `yaml:"max_body_bytes,omitempty" json:"max_body_bytes,omitempty"`

	MetricsEnabled *bool   `yaml:"metrics_enabled,omitempty" json:"metrics_enabled,omitempty"`
	MetricsPath    *string `yaml:"metrics_path,omitempty" json:"metrics_path,omitempty"`

	ShutdownTimeout *float64 `yaml:"shutdown_timeout,omitempty" json:"shutdown_timeout,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		LogLvl:              DefaultLogLvl,
		ServicePort:         DefaultServicePort,
		RegistryHost:        DefaultRegistryHost,
		RegistryPort:        DefaultRegistryPort,
		ClientTimeout:       DefaultClientTimeout,
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
		MaxBodyBytes:        DefaultMaxBodyBytes,
		MetricsEnabled:      DefaultMetricsEnabled,
		MetricsPath:         DefaultMetricsPath,
		ShutdownTimeout:     DefaultShutdownTimeout,
	}
}

// NewConfig creates a Config from defaults with each override applied in order.
// Nil overrides are skipped.
func NewConfig(overrides ...*ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	for _, o := range overrides {
		if o != nil {
			cfg.Merge(o)
		}
	}
	return cfg
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.LogLvl != nil {
		c.LogLvl = VerboseToLogLevel(*override.LogLvl)
	}
	if override.ServicePort != nil {
		c.ServicePort = *override.ServicePort
	}
	if override.RegistryHost != nil {
		c.RegistryHost = *override.RegistryHost
	}
	if override.RegistryPort != nil {
		c.RegistryPort = *override.RegistryPort
	}
	if override.ClientTimeout != nil {
		c.ClientTimeout = *override.ClientTimeout
	}
	if override.MaxIdleConns != nil {
		c.MaxIdleConns = *override.MaxIdleConns
	}
	if override.MaxIdleConnsPerHost != nil {
		c.MaxIdleConnsPerHost = *override.MaxIdleConnsPerHost
	}
	if override.IdleConnTimeout != nil {
		c.IdleConnTimeout = *override.IdleConnTimeout
	}
	if override.MaxBodyBytes != nil {
		c.MaxBodyBytes = *override.MaxBodyBytes
	}
	if override.MetricsEnabled != nil {
		c.MetricsEnabled = *override.MetricsEnabled
	}
	if override.MetricsPath != nil {
		c.MetricsPath = *override.MetricsPath
	}
	if override.ShutdownTimeout != nil {
		c.ShutdownTimeout = *override.ShutdownTimeout
	}
}

// VerboseToLogLevel maps CLI verbosity onto a [util.LogLevel], clamping to 1..5
func VerboseToLogLevel(verbose int) util.LogLevel {
	verbose = min(max(verbose, ErrorVerbose), TraceVerbose)
	logLvls := [5]util.LogLevel{util.ErrorLevel, util.WarnLevel, util.InfoLevel, util.DebugLevel, util.TraceLevel}
	return logLvls[verbose-1]
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
// This is a convenience function that combines NewDefaultConfig, LoadConfigOverrideFile, and Merge.
func NewConfigFromFile(path string) (*Config, error) {
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	return NewConfig(override), nil
}
