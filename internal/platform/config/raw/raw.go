// Package raw reads environment variables during bootstrap, before the
// logger exists. It must not import logger or config to stay cycle free
package raw

import (
	"os"
	"strings"
)

// Conf reads env vars under an accumulated prefix such as "LOG_"
type Conf struct{ ns string }

// New returns an unprefixed Conf
func New() Conf { return Conf{} }

// Prefix appends another namespace segment
func (c Conf) Prefix(p string) Conf { return Conf{ns: c.ns + p} }

func (c Conf) key(k string) string { return c.ns + k }

// Get returns the trimmed value, or def when unset or blank
func (c Conf) Get(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(c.key(key))); v != "" {
		return v
	}
	return def
}

// GetBool accepts 1, true, and yes as true; anything else is false
func (c Conf) GetBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(c.key(key))))
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "yes":
		return true
	}
	return false
}

// GetInt parses a non-negative integer; anything else falls back to def.
// The parser only accepts digits, no signs or separators
func (c Conf) GetInt(key string, def int) int {
	s := strings.TrimSpace(os.Getenv(c.key(key)))
	if s == "" {
		return def
	}
	n := 0
	for _, ch := range []byte(s) {
		if ch < '0' || ch > '9' {
			return def
		}
		n = n*10 + int(ch-'0')
	}
	return n
}
