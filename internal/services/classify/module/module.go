// Package module provides the classify module
package module

import (
	"colasignal/internal/modkit"
	"colasignal/internal/modkit/repokit"
	auditdom "colasignal/internal/services/audit/domain"
	"colasignal/internal/services/classify/domain"
	"colasignal/internal/services/classify/repo"
	"colasignal/internal/services/classify/service"
	entdom "colasignal/internal/services/entities/domain"
	fdom "colasignal/internal/services/filings/domain"
	frepo "colasignal/internal/services/filings/repo"
)

// PortsIn are the dependencies the classify module needs from its siblings
type PortsIn struct {
	Reader   fdom.ReaderPort
	Filings  repokit.Binder[frepo.Storage]
	Resolver entdom.ResolverPort
	Ledger   auditdom.LedgerPort
}

// Ports exposed by the classify module
type Ports struct {
	Runner domain.RunnerPort

	// State lets the batch reclassifier rebuild the seen tables it shares
	// with the updater
	State repokit.Binder[repo.Storage]
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	built modkit.Built
	ports Ports
}

// New constructs a new classify module
func New(deps modkit.Deps, in PortsIn, overrides Options) *Module {
	b := modkit.Build(modkit.WithName("classify"), modkit.WithPorts(in))

	// guardrails against incorrect wiring
	wired, ok := b.Ports.(PortsIn)
	if !ok || wired.Reader == nil || wired.Filings == nil || wired.Resolver == nil || wired.Ledger == nil {
		panic("classify module: missing required ports")
	}
	in = wired

	cfg := FromConfig(deps.Cfg)
	if overrides.Limit != 0 {
		cfg.Limit = overrides.Limit
	}
	cfg.DryRun = cfg.DryRun || overrides.DryRun

	stateBinder := repo.NewPG()
	runner := service.New(
		repokit.TxRunner(deps.PG),
		stateBinder,
		in.Filings,
		in.Reader,
		in.Resolver,
		in.Ledger,
		service.Config{Limit: cfg.Limit, DryRun: cfg.DryRun},
	)

	m := &Module{deps: deps, built: b}
	m.ports = Ports{Runner: runner, State: stateBinder}
	return m
}

// Name implements modkit.Module
func (m *Module) Name() string { return m.built.Name }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }
