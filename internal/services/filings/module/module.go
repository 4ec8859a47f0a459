// Package module provides the filings module
package module

import (
	"colasignal/internal/modkit"
	"colasignal/internal/modkit/repokit"
	"colasignal/internal/services/filings/domain"
	"colasignal/internal/services/filings/repo"
	"colasignal/internal/services/filings/service"
)

// Ports exposed by the filings module
type Ports struct {
	Reader domain.ReaderPort
	Writer domain.WriterPort

	// Storage lets transactional consumers bind the filings repo inside
	// their own transaction together with their own tables
	Storage repokit.Binder[repo.Storage]
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new filings module
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)

	binder := repo.NewPG()
	svc := service.New(repokit.TxRunner(deps.PG), binder, service.Config{
		HardLimit: opts.HardLimit,
	})

	m := &Module{deps: deps}
	m.ports = Ports{Reader: svc, Writer: svc, Storage: binder}
	return m
}

// Name implements modkit.Module
func (m *Module) Name() string { return "filings" }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }
