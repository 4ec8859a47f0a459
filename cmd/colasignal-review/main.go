package main

import (
	"context"
	"flag"
	"os"

	"colasignal/internal/cli"
	"colasignal/internal/modkit"
	"colasignal/internal/modkit/module"
	"colasignal/internal/modkit/repokit"
	"colasignal/internal/platform/config"
	"colasignal/internal/platform/logger"
	"colasignal/internal/platform/store"

	revdom "colasignal/internal/services/review/domain"
	reviewmod "colasignal/internal/services/review/module"
)

func main() {
	var (
		fList  = flag.Bool("list", false, "print pending review items and exit")
		fLimit = flag.Int("limit", 0, "max items to list, 0 uses CORE_REVIEW_LIST_LIMIT")
		fApply = flag.String("apply", "", "path to a decisions file to apply")
	)
	env := cli.EnvFlag(nil)
	flag.Parse()

	l := logger.Get()
	if err := env.Load(); err != nil {
		l.Panic().Err(err).Msg("env load failed")
	}
	if !*fList && *fApply == "" {
		l.Panic().Msg("nothing to do: pass -list or -apply decisions.json")
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

	vm := reviewmod.New(deps, reviewmod.Options{})
	module.Register(vm.Name(), vm.Ports())
	reviewer := module.MustPortsOf[reviewmod.Ports](vm).Reviewer

	ctx := context.Background()

	if *fList {
		items, err := reviewer.ListPending(ctx, *fLimit)
		if err != nil {
			l.Fatal().Err(err).Msg("list pending failed")
		}
		for _, it := range items {
			l.Info().
				Str("id", it.ID).
				Str("alias", it.AliasRaw).
				Int64("candidate_id", it.CandidateID).
				Int64("hold_id", it.HoldID).
				Float64("score", it.Score).
				Msg("pending review")
		}
		l.Info().Int("pending", len(items)).Msg("review queue listed")
	}

	if *fApply != "" {
		raw, err := os.ReadFile(*fApply)
		if err != nil {
			l.Fatal().Err(err).Msg("read decisions file failed")
		}
		decisions, err := revdom.ParseDecisions(raw)
		if err != nil {
			l.Fatal().Err(err).Msg("decisions file rejected")
		}

		rep, err := reviewer.Apply(ctx, decisions)
		if err != nil {
			l.Fatal().Err(err).Msg("apply decisions failed")
		}
		l.Info().
			Int("merged", rep.Merged).
			Int("kept", rep.Kept).
			Int("missing", rep.Missing).
			Ints64("dirtied", rep.Dirtied).
			Msg("decisions applied; run colasignal-reclassify -entities for the dirtied ids")
	}
}
