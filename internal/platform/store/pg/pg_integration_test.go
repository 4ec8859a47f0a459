//go:build integration_pg
// +build integration_pg

package pg

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres launches a disposable Postgres; generous deadlines cover the
// first image pull
func startPostgres(t *testing.T) (dsn string, stop func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		Started: true,
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "postgres",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections"),
			).WithDeadline(2 * time.Minute),
		},
	})
	if err != nil {
		cancel()
		t.Fatalf("start postgres container: %v", err)
	}
	stop = func() {
		_ = c.Terminate(context.Background())
		cancel()
	}

	host, herr := c.Host(ctx)
	port, perr := c.MappedPort(ctx, "5432/tcp")
	if herr != nil || perr != nil {
		stop()
		t.Fatalf("container endpoint: host err %v, port err %v", herr, perr)
	}

	dsn = fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, port.Port())
	return dsn, stop
}

func TestOpenAndAliasQueries_Integration(t *testing.T) {
	dsn, stop := startPostgres(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	appName := "colasignal-pg-integration"

	WithTestDB(t, dsn, func(pc *pgxpool.Config) {
		if pc.ConnConfig.RuntimeParams == nil {
			pc.ConnConfig.RuntimeParams = map[string]string{}
		}
		pc.ConnConfig.RuntimeParams["application_name"] = appName
		pc.MinConns = 1
	}, func(p *PG) {
		conn := AcquireConn(ctx, t, p)

		var one int
		if err := conn.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil || one != 1 {
			t.Fatalf("sanity select: %d %v", one, err)
		}

		// TEMP table without ON COMMIT DROP; autocommit would drop it immediately
		if _, err := conn.Exec(ctx, `
			CREATE TEMPORARY TABLE aliases_it (
				entity_id BIGINT NOT NULL,
				norm      TEXT PRIMARY KEY
			)
		`); err != nil {
			t.Fatalf("create temp table: %v", err)
		}
		defer func() { _, _ = conn.Exec(ctx, `DROP TABLE IF EXISTS aliases_it`) }()

		batch := &pgx.Batch{}
		batch.Queue(`INSERT INTO aliases_it (entity_id, norm) VALUES ($1, $2)`, int64(1), "cascade brewing")
		batch.Queue(`INSERT INTO aliases_it (entity_id, norm) VALUES ($1, $2)`, int64(1), "cascade brewing co")
		br := conn.SendBatch(ctx, batch)
		for i := 0; i < 2; i++ {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				t.Fatalf("batch insert %d: %v", i, err)
			}
		}
		if err := br.Close(); err != nil {
			t.Fatalf("batch close: %v", err)
		}

		type alias struct {
			EntityID int64
			Norm     string
		}
		rows, err := conn.Query(ctx, `SELECT entity_id, norm FROM aliases_it ORDER BY norm`)
		if err != nil {
			t.Fatalf("query aliases: %v", err)
		}
		defer rows.Close()

		got, err := pgx.CollectRows(rows, pgx.RowToStructByPos[alias])
		if err != nil {
			t.Fatalf("collect: %v", err)
		}
		if len(got) != 2 || got[0].Norm != "cascade brewing" || got[1].EntityID != 1 {
			t.Fatalf("unexpected aliases: %#v", got)
		}

		var gotApp string
		if err := conn.QueryRow(ctx, `SELECT current_setting('application_name')`).Scan(&gotApp); err != nil {
			t.Fatalf("read application_name: %v", err)
		}
		if gotApp != appName {
			t.Fatalf("application_name = %q, want %q", gotApp, appName)
		}
	})
}
