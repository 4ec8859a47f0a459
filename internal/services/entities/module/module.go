// Package module provides the entities module
package module

import (
	"colasignal/internal/modkit"
	"colasignal/internal/modkit/repokit"
	"colasignal/internal/services/entities/domain"
	"colasignal/internal/services/entities/repo"
	"colasignal/internal/services/entities/service"
)

// Ports exposed by the entities module
type Ports struct {
	Resolver domain.ResolverPort

	// Storage lets transactional consumers (review apply, audit) bind the
	// entities repo inside their own transaction
	Storage repokit.Binder[repo.Storage]
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new entities module
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)

	binder := repo.NewPG()
	svc := service.New(repokit.TxRunner(deps.PG), binder, service.Config{
		CandidateLimit: opts.CandidateLimit,
		CacheTTL:       opts.CacheTTL,
		Thresholds:     opts.Thresholds,
	})

	m := &Module{deps: deps}
	m.ports = Ports{Resolver: svc, Storage: binder}
	return m
}

// Name implements modkit.Module
func (m *Module) Name() string { return "entities" }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }
