// Package modkit provides module wiring and core deps
package modkit

import (
	"colasignal/internal/modkit/repokit"
	"colasignal/internal/platform/config"
	"colasignal/internal/platform/logger"
	"colasignal/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
}
