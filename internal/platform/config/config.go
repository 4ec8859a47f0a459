// Package config reads typed settings from environment variables
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"colasignal/internal/platform/logger"
)

// Conf resolves keys under an accumulated prefix such as "CORE_" or
// "SERVICE_PGSQL_". Must* getters panic on a missing value, May* getters
// fall back to a default and warn on malformed input
type Conf struct{ ns string }

// New returns an unprefixed Conf
func New() Conf { return Conf{} }

// Prefix appends another namespace segment, e.g. cfg.Prefix("CORE_")
func (c Conf) Prefix(p string) Conf { return Conf{ns: c.ns + p} }

func (c Conf) key(k string) string { return c.ns + k }

// raw reads and trims the env var; empty and whitespace-only are both missing
func (c Conf) raw(key string) string {
	return strings.TrimSpace(os.Getenv(c.key(key)))
}

// MustString panics when the key is missing
func (c Conf) MustString(key string) string {
	v := c.raw(key)
	if v == "" {
		logger.Get().Panic().Str("key", c.key(key)).Msg("missing required env")
	}
	return v
}

// MayString falls back to def when the key is missing
func (c Conf) MayString(key, def string) string {
	if v := c.raw(key); v != "" {
		return v
	}
	return def
}

// MayInt falls back to def when missing; a malformed value warns and falls back
func (c Conf) MayInt(key string, def int) int {
	s := c.raw(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Int("default", def).Msg("invalid int; using default")
		return def
	}
	return v
}

// MayFloat64 falls back to def when missing; a malformed value warns and falls back
func (c Conf) MayFloat64(key string, def float64) float64 {
	s := c.raw(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Float64("default", def).
			Msg("invalid float64; using default")
		return def
	}
	return v
}

// MayBool falls back to def when missing; a malformed value warns and falls back
func (c Conf) MayBool(key string, def bool) bool {
	s := c.raw(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Bool("default", def).Msg("invalid bool; using default")
		return def
	}
	return v
}

// MayDuration falls back to def when missing; a malformed value warns and falls back
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	s := c.raw(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Dur("default", def).
			Msg("invalid duration; using default")
		return def
	}
	return d
}

// MayCSV splits a comma-separated value, trimming each element and dropping
// empties. All-empty input falls back to def
func (c Conf) MayCSV(key string, def []string) []string {
	s := c.raw(key)
	if s == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
