package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LookupFunc reads a single environment variable, like os.LookupEnv
type LookupFunc func(key string) (string, bool)

// LoadEnvOverride builds a ConfigOverride from the process environment.
// Variables from the given .env files fill in anything the process does not set;
// missing .env files are skipped.
func LoadEnvOverride(envFiles ...string) (*ConfigOverride, error) {
	fileVars := map[string]string{}
	for _, f := range envFiles {
		vars, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read env file %s: %w", f, err)
		}
		for k, v := range vars {
			if _, ok := fileVars[k]; !ok {
				fileVars[k] = v
			}
		}
	}

	return OverrideFromEnv(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	})
}

// OverrideFromEnv builds a ConfigOverride from the variables lookup can see.
// Blank values are treated as unset.
func OverrideFromEnv(lookup LookupFunc) (*ConfigOverride, error) {
	var (
		o    ConfigOverride
		errs []error
	)
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	intVar := func(key string, dst **int) {
		if v, ok := get(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %q is not an integer", key, v))
				return
			}
			*dst = &n
		}
	}

	if v, ok := get(EnvRegistryHost); ok {
		o.RegistryHost = &v
	}
	intVar(EnvRegistryPort, &o.RegistryPort)
	intVar(EnvServicePort, &o.ServicePort)
	intVar(EnvLogVerbose, &o.LogLvl)

	if v, ok := get(EnvClientTimeout); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not a number", EnvClientTimeout, v))
		} else {
			o.ClientTimeout = &f
		}
	}
	if v, ok := get(EnvMaxBodyBytes); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not an integer", EnvMaxBodyBytes, v))
		} else {
			o.MaxBodyBytes = &n
		}
	}
	if v, ok := get(EnvMetricsEnabled); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not a boolean", EnvMetricsEnabled, v))
		} else {
			o.MetricsEnabled = &b
		}
	}
	if v, ok := get(EnvMetricsPath); ok {
		o.MetricsPath = &v
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid environment: %w", errors.Join(errs...))
	}
	return &o, nil
}
