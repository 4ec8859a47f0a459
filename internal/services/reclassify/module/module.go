// Package module provides the reclassify module
package module

import (
	"context"

	"colasignal/internal/modkit"
	"colasignal/internal/modkit/repokit"
	auditdom "colasignal/internal/services/audit/domain"
	fdom "colasignal/internal/services/filings/domain"
	frepo "colasignal/internal/services/filings/repo"
	"colasignal/internal/services/reclassify/domain"
	"colasignal/internal/services/reclassify/repo"
	"colasignal/internal/services/reclassify/service"
)

// PortsIn are the dependencies the reclassify module needs from its siblings
type PortsIn struct {
	Reader fdom.ReaderPort
	Ledger auditdom.LedgerPort
}

// Ports exposed by the reclassify module
type Ports struct {
	Runner domain.RunnerPort

	// Stage exposes the staging repo so the ops surface can inspect or
	// drop abandoned runs
	Stage repokit.Binder[repo.Storage]
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	built modkit.Built
	ports Ports
}

// New constructs a new reclassify module
func New(deps modkit.Deps, in PortsIn, overrides Options) *Module {
	b := modkit.Build(modkit.WithName("reclassify"), modkit.WithPorts(in))

	wired, ok := b.Ports.(PortsIn)
	if !ok || wired.Reader == nil || wired.Ledger == nil {
		panic("reclassify module: missing required ports")
	}
	in = wired

	cfg := FromConfig(deps.Cfg)
	if overrides.Workers != 0 {
		cfg.Workers = overrides.Workers
	}
	if overrides.PageSize != 0 {
		cfg.PageSize = overrides.PageSize
	}

	// everything this runner writes is recomputable by another replay, so
	// relax commit durability for the staging-heavy transactions
	db := repokit.WithBeginHooks(deps.PG, func(ctx context.Context, q repokit.Queryer) error {
		_, err := q.Exec(ctx, `SET LOCAL synchronous_commit TO off`)
		return err
	})

	stageBinder := repo.NewPG()
	runner := service.New(
		db,
		stageBinder,
		frepo.NewPG(),
		in.Reader,
		in.Ledger,
		service.Config{
			PageSize:   cfg.PageSize,
			Workers:    cfg.Workers,
			DiffSample: cfg.DiffSample,
		},
	)

	m := &Module{deps: deps, built: b}
	m.ports = Ports{Runner: runner, Stage: stageBinder}
	return m
}

// Name implements modkit.Module
func (m *Module) Name() string { return m.built.Name }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }
