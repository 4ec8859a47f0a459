// Package module provides the review module
package module

import (
	"colasignal/internal/modkit"
	"colasignal/internal/services/review/domain"
	"colasignal/internal/services/review/repo"
	"colasignal/internal/services/review/service"
)

// Ports exposed by the review module
type Ports struct {
	Reviewer domain.ReviewerPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new review module
func New(deps modkit.Deps, overrides Options) *Module {
	cfg := FromConfig(deps.Cfg)
	if overrides.ListLimit != 0 {
		cfg.ListLimit = overrides.ListLimit
	}

	svc := service.New(deps.PG, repo.NewPG(), service.Config{ListLimit: cfg.ListLimit})

	m := &Module{deps: deps}
	m.ports = Ports{Reviewer: svc}
	return m
}

// Name implements modkit.Module
func (m *Module) Name() string { return "review" }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }
