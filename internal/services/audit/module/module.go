// Package module provides the audit module
package module

import (
	"colasignal/internal/modkit"
	"colasignal/internal/services/audit/domain"
	"colasignal/internal/services/audit/repo"
	"colasignal/internal/services/audit/service"
)

// Ports exposed by the audit module
type Ports struct {
	Ledger  domain.LedgerPort
	Auditor domain.AuditorPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new audit module
func New(deps modkit.Deps, overrides Options) *Module {
	cfg := FromConfig(deps.Cfg)
	if overrides.CensusTable != "" {
		cfg.CensusTable = overrides.CensusTable
	}
	if overrides.RecentLimit != 0 {
		cfg.RecentLimit = overrides.RecentLimit
	}

	svc := service.New(deps.PG, repo.NewPG(), deps.CH, service.Config{
		CensusTable: cfg.CensusTable,
		RecentLimit: cfg.RecentLimit,
	})

	m := &Module{deps: deps}
	m.ports = Ports{Ledger: svc, Auditor: svc}
	return m
}

// Name implements modkit.Module
func (m *Module) Name() string { return "audit" }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }
