package module

import "colasignal/internal/platform/config"

// Options holds configuration settings for the reclassify module
type Options struct {
	Workers    int
	PageSize   int
	DiffSample int
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	df := cfg.Prefix("CORE_RECLASSIFY_")
	return Options{
		Workers:    df.MayInt("WORKERS", 4),
		PageSize:   df.MayInt("PAGE_SIZE", 2000),
		DiffSample: df.MayInt("DIFF_SAMPLE", 50),
	}
}
