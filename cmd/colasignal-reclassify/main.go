package main

import (
	"context"
	"flag"
	"strconv"
	"strings"

	"colasignal/internal/cli"
	"colasignal/internal/modkit"
	"colasignal/internal/modkit/module"
	"colasignal/internal/modkit/repokit"
	"colasignal/internal/platform/config"
	"colasignal/internal/platform/logger"
	"colasignal/internal/platform/store"

	auditmod "colasignal/internal/services/audit/module"
	filingsmod "colasignal/internal/services/filings/module"
	recdom "colasignal/internal/services/reclassify/domain"
	reclassifymod "colasignal/internal/services/reclassify/module"
)

func parseEntities(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func main() {
	var (
		fDryRun   = flag.Bool("dry-run", false, "stage and diff without touching live rows")
		fApply    = flag.Bool("apply", false, "swap staged signals into the live table")
		fAnalyze  = flag.Bool("analyze", false, "report the signal distribution and exit without replaying")
		fWorkers  = flag.Int("workers", 0, "entity shards, 0 uses CORE_RECLASSIFY_WORKERS")
		fEntities = flag.String("entities", "", "comma-separated entity ids for a targeted replay")
	)
	env := cli.EnvFlag(nil)
	flag.Parse()

	l := logger.Get()
	if err := env.Load(); err != nil {
		l.Panic().Err(err).Msg("env load failed")
	}
	if *fDryRun && *fApply {
		l.Panic().Msg("-dry-run and -apply are mutually exclusive")
	}

	entities, err := parseEntities(*fEntities)
	if err != nil {
		l.Panic().Err(err).Msg("bad -entities")
	}

	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")

	st, err := store.Open(context.Background(), store.Config{
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 8)),
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

	fm := filingsmod.New(deps)
	am := auditmod.New(deps, auditmod.Options{})
	rm := reclassifymod.New(deps, reclassifymod.PortsIn{
		Reader: module.MustPortsOf[filingsmod.Ports](fm).Reader,
		Ledger: module.MustPortsOf[auditmod.Ports](am).Ledger,
	}, reclassifymod.Options{Workers: *fWorkers})

	module.Register(fm.Name(), fm.Ports())
	module.Register(am.Name(), am.Ports())
	module.Register(rm.Name(), rm.Ports())

	if *fAnalyze {
		census, err := module.MustPortsOf[auditmod.Ports](am).Auditor.Census(context.Background())
		if err != nil {
			l.Fatal().Err(err).Msg("census failed")
		}
		for _, row := range census {
			l.Info().Str("bucket", row.Signal).Int64("count", row.Count).Msg("census")
		}
		return
	}

	rep, err := module.MustPortsOf[reclassifymod.Ports](rm).Runner.Run(
		context.Background(),
		recdom.Input{DryRun: *fDryRun, Apply: *fApply, Workers: *fWorkers, Entities: entities},
	)
	if err != nil {
		l.Fatal().Err(err).Msg("batch reclassification failed")
	}

	evt := l.Info().
		Str("run_id", rep.RunID).
		Int("entities", rep.Entities).
		Int("staged", rep.Staged).
		Int64("changed", rep.Changed).
		Int64("unchanged", rep.Unchanged).
		Int64("first_time", rep.FirstTime).
		Bool("applied", rep.Applied)
	for _, d := range rep.DiffSample {
		l.Info().
			Str("ttb_id", d.TTBID).
			Int64("entity_id", d.EntityID).
			Str("old", d.OldSignal).
			Str("new", d.NewSignal).
			Int("old_refile", d.OldRefile).
			Int("new_refile", d.NewRefile).
			Msg("signal diff")
	}
	evt.Msg("batch run done")
}
