package module

import "colasignal/internal/platform/config"

// Options holds configuration settings for the filings module
type Options struct {
	HardLimit int
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	df := cfg.Prefix("CORE_FILINGS_")
	return Options{
		HardLimit: df.MayInt("HARD_LIMIT", 5000),
	}
}
