package config

import (
	"time"

	"github.com/brettbedarf/adaptergw/internal/util"
)

// Log verbosity as passed on the CLI, 1 (error) through 5 (trace)
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// Bytes per MB
const MB = 1024 * 1024

// Default configuration constants. See [Config] for field descriptions.
const (
	DefaultLogLvl = util.InfoLevel

	DefaultServicePort  = 8080
	DefaultRegistryHost = "localhost"
	DefaultRegistryPort = 8094

	// DefaultClientTimeout bounds each hop, in seconds
	DefaultClientTimeout       = 30.0
	DefaultMaxIdleConns        = 100
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout in seconds
	DefaultIdleConnTimeout = 90.0

	DefaultMaxBodyBytes = 10 * MB

	DefaultMetricsEnabled = true
	DefaultMetricsPath    = "/metrics"

	// DefaultShutdownTimeout in seconds
	DefaultShutdownTimeout = 10.0
)

// Environment variables read by [LoadEnvOverride]. The first three keep the
// names the registry deployment already exports.
const (
	EnvRegistryHost = "CONFIG_MANAGER_URL"
	EnvRegistryPort = "CONFIG_MANAGER_PORT"
	EnvServicePort  = "SERVICE_PORT"

	EnvLogVerbose     = "GATEWAY_LOG_VERBOSE"
	EnvClientTimeout  = "GATEWAY_CLIENT_TIMEOUT"
	EnvMaxBodyBytes   = "GATEWAY_MAX_BODY_BYTES"
	EnvMetricsEnabled = "GATEWAY_METRICS_ENABLED"
	EnvMetricsPath    = "GATEWAY_METRICS_PATH"
)

// seconds converts a float seconds value to a time.Duration
func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
