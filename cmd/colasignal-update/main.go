package main

import (
	"context"
	"flag"
	"os"
	"strconv"

	"colasignal/internal/cli"
	"colasignal/internal/modkit"
	"colasignal/internal/modkit/module"
	"colasignal/internal/modkit/repokit"
	"colasignal/internal/platform/config"
	"colasignal/internal/platform/logger"
	"colasignal/internal/platform/store"

	auditmod "colasignal/internal/services/audit/module"
	classifymod "colasignal/internal/services/classify/module"
	entitiesmod "colasignal/internal/services/entities/module"
	filingsmod "colasignal/internal/services/filings/module"
)

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

func main() {
	var (
		fDryRun  = flag.Bool("dry-run", false, "classify and report without writing signals or state")
		fLimit   = flag.Int("limit", 0, "max unclassified filings per pass, 0 uses CORE_UPDATE_LIMIT")
		fAnalyze = flag.Bool("analyze", false, "report the signal distribution and exit without classifying")
	)
	env := cli.EnvFlag(nil)
	flag.Parse()

	l := logger.Get()
	if err := env.Load(); err != nil {
		l.Panic().Err(err).Msg("env load failed")
	}

	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")

	st, err := store.Open(context.Background(), store.Config{
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(context.Background(), st)

	deps := modkit.Deps{Cfg: root, PG: st.PG, CH: st.CH, Log: *l}

	// surface flag overrides to modules that read FromConfig
	if *fLimit > 0 {
		mustSetEnv("CORE_UPDATE_LIMIT", strconv.Itoa(*fLimit))
	}

	em := entitiesmod.New(deps)
	fm := filingsmod.New(deps)
	am := auditmod.New(deps, auditmod.Options{})

	fmPorts := module.MustPortsOf[filingsmod.Ports](fm)
	amPorts := module.MustPortsOf[auditmod.Ports](am)
	cm := classifymod.New(deps, classifymod.PortsIn{
		Reader:   fmPorts.Reader,
		Filings:  fmPorts.Storage,
		Resolver: module.MustPortsOf[entitiesmod.Ports](em).Resolver,
		Ledger:   amPorts.Ledger,
	}, classifymod.Options{DryRun: *fDryRun})

	module.Register(em.Name(), em.Ports())
	module.Register(fm.Name(), fm.Ports())
	module.Register(am.Name(), am.Ports())
	module.Register(cm.Name(), cm.Ports())

	ctx := context.Background()

	if *fAnalyze {
		census, err := amPorts.Auditor.Census(ctx)
		if err != nil {
			l.Fatal().Err(err).Msg("census failed")
		}
		for _, row := range census {
			l.Info().Str("bucket", row.Signal).Int64("count", row.Count).Msg("census")
		}
		return
	}

	rep, err := module.MustPortsOf[classifymod.Ports](cm).Runner.Run(ctx)
	if err != nil {
		l.Fatal().Err(err).Msg("update pass failed")
	}
	l.Info().
		Int("new_company", rep.NewCompany).
		Int("new_brand", rep.NewBrand).
		Int("new_sku", rep.NewSKU).
		Int("refile", rep.Refile).
		Int("pending", rep.Pending).
		Int("backdated", rep.Backdated).
		Bool("dry_run", *fDryRun).
		Msg("update pass done")

	// run output is only accepted when the first-occurrence invariants hold
	if !*fDryRun {
		violations, err := amPorts.Auditor.CheckConsistency(ctx)
		if err != nil {
			l.Fatal().Err(err).Msg("consistency audit failed")
		}
		if len(violations) > 0 {
			l.Fatal().Int("violations", len(violations)).Msg("first-occurrence invariants violated")
		}
		l.Info().Msg("consistency audit clean")
	}
}
