package postgres_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/robocode-api/internal/application/counter"
	"github.com/jhoicas/robocode-api/internal/domain"
	"github.com/jhoicas/robocode-api/internal/infrastructure/postgres"
	"github.com/jhoicas/robocode-api/pkg/config"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers: un contenedor PostgreSQL por ejecución; cada subtest usa categorías propias.
// ──────────────────────────────────────────────────────────────────────────────

func startPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("integración con PostgreSQL omitida en modo -short")
	}
	tc.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("robocode"),
		tcpostgres.WithUsername("robocode"),
		tcpostgres.WithPassword("robocode"),
		tc.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "arrancar contenedor postgres")
	t.Cleanup(func() { _ = pgContainer.Terminate(context.Background()) })

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func newPool(t *testing.T, dsn string, lockTimeoutMS int) *pgxpool.Pool {
	t.Helper()
	pool, err := postgres.NewPool(context.Background(), config.DBConfig{
		DatabaseURL:   dsn,
		MaxConns:      20,
		MinConns:      1,
		LockTimeoutMS: lockTimeoutMS,
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func newService(pool *pgxpool.Pool) *counter.Service {
	repo := postgres.NewCounterRepository(pool)
	return counter.NewService(postgres.NewTxRunner(pool), repo, postgres.NewSchema(pool))
}

func currentCount(t *testing.T, pool *pgxpool.Pool, category string) int64 {
	t.Helper()
	c, err := postgres.NewCounterRepository(pool).GetByCategory(context.Background(), category)
	require.NoError(t, err)
	if c == nil {
		return 0
	}
	return c.Count
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestCounterStore_PostgreSQL(t *testing.T) {
	dsn := startPostgres(t)
	pool := newPool(t, dsn, 5000)
	svc := newService(pool)
	ctx := context.Background()

	t.Run("EnsureSchema idempotente y concurrente", func(t *testing.T) {
		require.NoError(t, svc.EnsureSchema(ctx))
		require.NoError(t, svc.EnsureSchema(ctx))

		var wg sync.WaitGroup
		errs := make(chan error, 5)
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- postgres.NewSchema(pool).EnsureSchema(ctx)
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			assert.NoError(t, err)
		}
	})

	t.Run("Escenario ROB-A / ROB-B", func(t *testing.T) {
		got, err := svc.NextCode(ctx, "ROB-A")
		require.NoError(t, err)
		assert.Equal(t, "ROB-A-0001", got)

		got, err = svc.NextCode(ctx, "ROB-A")
		require.NoError(t, err)
		assert.Equal(t, "ROB-A-0002", got)

		got, err = svc.NextCode(ctx, "ROB-B")
		require.NoError(t, err)
		assert.Equal(t, "ROB-B-0001", got)

		assert.Equal(t, int64(2), currentCount(t, pool, "ROB-A"))
	})

	t.Run("Categoría vacía no crea filas", func(t *testing.T) {
		before, err := postgres.NewCounterRepository(pool).Count(ctx)
		require.NoError(t, err)

		_, err = svc.NextCode(ctx, "  ")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		after, err := postgres.NewCounterRepository(pool).Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("Concurrencia desde dos procesos sin duplicados", func(t *testing.T) {
		// Dos pools independientes emulan dos procesos contra la misma base.
		other := newService(newPool(t, dsn, 5000))
		services := []*counter.Service{svc, other}

		const m = 60
		category := "ROB-CONC"
		counts := make(chan int64, m)
		var wg sync.WaitGroup
		for i := 0; i < m; i++ {
			wg.Add(1)
			go func(s *counter.Service) {
				defer wg.Done()
				issued, err := s.Next(ctx, category)
				if assert.NoError(t, err) {
					counts <- issued.Count
				}
			}(services[i%2])
		}
		wg.Wait()
		close(counts)

		var got []int64
		for c := range counts {
			got = append(got, c)
		}
		sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
		require.Len(t, got, m)
		for i, c := range got {
			assert.Equal(t, int64(i+1), c, "conteos exactamente 1..%d", m)
		}
		assert.Equal(t, int64(m), currentCount(t, pool, category))
	})

	t.Run("Lock timeout revierte sin mutar", func(t *testing.T) {
		impatient := newService(newPool(t, dsn, 200))
		category := "ROB-LOCK"

		_, err := impatient.NextCode(ctx, category)
		require.NoError(t, err)

		holder, err := pool.Begin(ctx)
		require.NoError(t, err)
		_, err = holder.Exec(ctx, `SELECT count FROM counters WHERE category = $1 FOR UPDATE`, category)
		require.NoError(t, err)

		_, err = impatient.NextCode(ctx, category)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrStore)
		assert.Equal(t, domain.StoreLockTimeout, domain.StoreErrorKind(err))

		// Otra categoría no espera por ese bloqueo.
		got, err := impatient.NextCode(ctx, "ROB-LOCK-OTRO")
		require.NoError(t, err)
		assert.Equal(t, "ROB-LOCK-OTRO-0001", got)

		require.NoError(t, holder.Rollback(ctx))
		assert.Equal(t, int64(1), currentCount(t, pool, category), "el timeout no debe consumir valor")

		got, err = impatient.NextCode(ctx, category)
		require.NoError(t, err)
		assert.Equal(t, "ROB-LOCK-0002", got)
	})

	t.Run("Contexto vencido esperando el bloqueo", func(t *testing.T) {
		category := "ROB-CTX"
		_, err := svc.NextCode(ctx, category)
		require.NoError(t, err)

		holder, err := pool.Begin(ctx)
		require.NoError(t, err)
		defer func() { _ = holder.Rollback(ctx) }()
		_, err = holder.Exec(ctx, `SELECT count FROM counters WHERE category = $1 FOR UPDATE`, category)
		require.NoError(t, err)

		short, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
		defer cancel()
		_, err = svc.NextCode(short, category)
		require.Error(t, err)
		assert.Equal(t, domain.StoreCanceled, domain.StoreErrorKind(err))

		require.NoError(t, holder.Rollback(ctx))
		assert.Equal(t, int64(1), currentCount(t, pool, category))
	})

	t.Run("List y Get", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			_, err := svc.NextCode(ctx, fmt.Sprintf("ZZ-%d", i))
			require.NoError(t, err)
		}
		out, err := svc.Get(ctx, "ZZ-1")
		require.NoError(t, err)
		require.NotNil(t, out)
		assert.Equal(t, "ZZ-1-0001", out.LastCode)

		missing, err := svc.Get(ctx, "NO-EXISTE")
		require.NoError(t, err)
		assert.Nil(t, missing)

		list, err := svc.List(ctx, 100, 0)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, list.Page.Total, 3)
		assert.Equal(t, list.Page.Total, len(list.Items))
	})
}
