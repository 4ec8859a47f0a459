package module

import "colasignal/internal/platform/config"

// Options holds configuration settings for the review module
type Options struct {
	ListLimit int
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	df := cfg.Prefix("CORE_REVIEW_")
	return Options{
		ListLimit: df.MayInt("LIST_LIMIT", 100),
	}
}
