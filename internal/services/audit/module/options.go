package module

import "colasignal/internal/platform/config"

// Options holds configuration settings for the audit module
type Options struct {
	CensusTable string
	RecentLimit int
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	df := cfg.Prefix("CORE_AUDIT_")
	return Options{
		CensusTable: df.MayString("CENSUS_TABLE", "signal_census"),
		RecentLimit: df.MayInt("RECENT_LIMIT", 50),
	}
}
