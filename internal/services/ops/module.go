package ops

import (
	"context"
	"net/http"
	"time"

	"colasignal/internal/modkit"
	"colasignal/internal/platform/config"
	pstrings "colasignal/internal/platform/strings"
	auditdom "colasignal/internal/services/audit/domain"
	revdom "colasignal/internal/services/review/domain"
)

// PortsIn are the dependencies the ops module reads from its siblings
type PortsIn struct {
	Ready    func(ctx context.Context) error
	Ledger   auditdom.LedgerPort
	Auditor  auditdom.AuditorPort
	Reviewer revdom.ReviewerPort
}

// Ports exposed by the ops module
type Ports struct {
	Handler http.Handler
	Server  *Server
}

// Options holds configuration settings for the ops module
type Options struct {
	Addr        string
	SlowMs      int
	CORSOrigins []string
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	df := cfg.Prefix("CORE_OPS_")
	return Options{
		Addr:        df.MayString("ADDR", ":4600"),
		SlowMs:      df.MayInt("SLOW_MS", 500),
		CORSOrigins: df.MayCSV("CORS_ORIGINS", nil),
	}
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new ops module
func New(deps modkit.Deps, in PortsIn, overrides Options) *Module {
	if in.Ledger == nil || in.Auditor == nil || in.Reviewer == nil {
		panic("ops module: missing required ports")
	}

	cfg := FromConfig(deps.Cfg)
	if overrides.Addr != "" {
		cfg.Addr = overrides.Addr
	}
	if overrides.SlowMs != 0 {
		cfg.SlowMs = overrides.SlowMs
	}
	cfg.CORSOrigins = pstrings.IfEmpty(overrides.CORSOrigins, cfg.CORSOrigins)

	h := &Handler{
		Ready:       in.Ready,
		Ledger:      in.Ledger,
		Auditor:     in.Auditor,
		Reviewer:    in.Reviewer,
		Slow:        time.Duration(cfg.SlowMs) * time.Millisecond,
		CORSOrigins: cfg.CORSOrigins,
	}
	routes := h.Routes()

	m := &Module{deps: deps}
	m.ports = Ports{Handler: routes, Server: NewServer(cfg.Addr, routes)}
	return m
}

// Name implements modkit.Module
func (m *Module) Name() string { return "ops" }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }
