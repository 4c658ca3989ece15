package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variable names
const (
	EnvHost              = "STUBD_HOST"
	EnvPort              = "STUBD_PORT"
	EnvDynamicPort       = "STUBD_DYNAMIC_PORT"
	EnvDrainTimeoutMs    = "STUBD_DRAIN_TIMEOUT_MS"
	EnvReadTimeout       = "STUBD_READ_TIMEOUT"
	EnvWriteTimeout      = "STUBD_WRITE_TIMEOUT"
	EnvMaxBodySize       = "STUBD_MAX_BODY_SIZE"
	EnvMaxJournalEntries = "STUBD_MAX_JOURNAL_ENTRIES"
	EnvDisableAdmin      = "STUBD_DISABLE_ADMIN"
	EnvMappings          = "STUBD_MAPPINGS"
	EnvRootDir           = "STUBD_ROOT_DIR"
	EnvLogLevel          = "STUBD_LOG_LEVEL"
	EnvLogFormat         = "STUBD_LOG_FORMAT"
)

// ApplyEnv overrides cfg with values present in the process environment.
func ApplyEnv(cfg *ServerConfiguration) error {
	return ApplyEnvFrom(cfg, os.LookupEnv)
}

// ApplyEnvFrom overrides cfg with values returned by lookup. Only variables
// that are set and non-empty are applied. Unparsable numbers are reported.
func ApplyEnvFrom(cfg *ServerConfiguration, lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(name)
		if !ok || strings.TrimSpace(v) == "" {
			return "", false
		}
		return strings.TrimSpace(v), true
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{EnvPort, &cfg.Port},
		{EnvDrainTimeoutMs, &cfg.DrainTimeoutMs},
		{EnvReadTimeout, &cfg.ReadTimeout},
		{EnvWriteTimeout, &cfg.WriteTimeout},
		{EnvMaxBodySize, &cfg.MaxBodySize},
		{EnvMaxJournalEntries, &cfg.MaxJournalEntries},
	}
	for _, e := range ints {
		v, ok := get(e.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, e.name, v)
		}
		*e.dst = n
	}

	if v, ok := get(EnvHost); ok {
		cfg.Host = v
	}
	if v, ok := get(EnvDynamicPort); ok {
		cfg.DynamicPort = parseBool(v)
	}
	if v, ok := get(EnvDisableAdmin); ok {
		cfg.DisableAdmin = parseBool(v)
	}
	if v, ok := get(EnvMappings); ok {
		cfg.Mappings = splitList(v)
	}
	if v, ok := get(EnvRootDir); ok {
		cfg.RootDir = v
	}
	if v, ok := get(EnvLogLevel); ok {
		cfg.LogLevel = v
	}
	if v, ok := get(EnvLogFormat); ok {
		cfg.LogFormat = v
	}
	return nil
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

func splitList(v string) []string {
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
