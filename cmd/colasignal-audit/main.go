package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"colasignal/internal/cli"
	"colasignal/internal/modkit"
	"colasignal/internal/modkit/module"
	"colasignal/internal/modkit/repokit"
	"colasignal/internal/platform/config"
	"colasignal/internal/platform/logger"
	"colasignal/internal/platform/store"

	auditmod "colasignal/internal/services/audit/module"
	"colasignal/internal/services/ops"
	reviewmod "colasignal/internal/services/review/module"
)

func main() {
	var (
		fServe    = flag.Bool("serve", false, "serve the ops endpoints instead of exiting after the audit")
		fSnapshot = flag.Bool("snapshot", false, "write the census to the analytics sink")
	)
	env := cli.EnvFlag(nil)
	flag.Parse()

	l := logger.Get()
	if err := env.Load(); err != nil {
		l.Panic().Err(err).Msg("env load failed")
	}

	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")

	chURL := chCfg.MayString("DBURL", "")
	st, err := store.Open(context.Background(), store.Config{
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled:    chURL != "",
			URL:        chURL,
			ClientName: "audit",
			ClientTag:  chCfg.MayString("CLIENT_TAG", "colasignal"),
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
	if !*fServe {
		// batch mode has no readiness probe, fail fast instead
		repokit.MustGuard(context.Background(), st)
	}

	deps := modkit.Deps{Cfg: root, PG: st.PG, CH: st.CH, Log: *l}

	am := auditmod.New(deps, auditmod.Options{})
	vm := reviewmod.New(deps, reviewmod.Options{})
	amPorts := module.MustPortsOf[auditmod.Ports](am)

	module.Register(am.Name(), am.Ports())
	module.Register(vm.Name(), vm.Ports())

	ctx := context.Background()

	violations, err := amPorts.Auditor.CheckConsistency(ctx)
	if err != nil {
		l.Fatal().Err(err).Msg("consistency audit failed")
	}
	census, err := amPorts.Auditor.Census(ctx)
	if err != nil {
		l.Fatal().Err(err).Msg("census failed")
	}
	for _, row := range census {
		l.Info().Str("bucket", row.Signal).Int64("count", row.Count).Msg("census")
	}

	if *fSnapshot {
		if err := amPorts.Auditor.Snapshot(ctx); err != nil {
			l.Fatal().Err(err).Msg("census snapshot failed")
		}
	}

	if !*fServe {
		if len(violations) > 0 {
			l.Fatal().Int("violations", len(violations)).Msg("first-occurrence invariants violated")
		}
		l.Info().Msg("audit clean")
		return
	}

	om := ops.New(deps, ops.PortsIn{
		Ready:    st.Guard,
		Ledger:   amPorts.Ledger,
		Auditor:  amPorts.Auditor,
		Reviewer: module.MustPortsOf[reviewmod.Ports](vm).Reviewer,
	}, ops.Options{})
	module.Register(om.Name(), om.Ports())

	srv := module.MustPortsOf[ops.Ports](om).Server

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			l.Error().Err(err).Msg("ops shutdown failed")
		}
	}()

	if err := srv.Run(ctx); err != nil {
		l.Fatal().Err(err).Msg("ops server failed")
	}
}
