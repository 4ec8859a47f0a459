package module

import "colasignal/internal/platform/config"

// Options holds configuration settings for the classify module
type Options struct {
	Limit  int
	DryRun bool
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	df := cfg.Prefix("CORE_UPDATE_")
	return Options{
		Limit:  df.MayInt("LIMIT", 10000),
		DryRun: df.MayBool("DRY_RUN", false),
	}
}
