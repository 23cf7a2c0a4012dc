// robocodectl administra los contadores de códigos desde la línea de comandos.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/robocode-api/internal/application/counter"
	"github.com/jhoicas/robocode-api/internal/infrastructure/postgres"
	"github.com/jhoicas/robocode-api/pkg/config"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(cfg, openService).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// openService abre el pool y arma el servicio. El cierre libera el pool.
func openService(ctx context.Context, cfg *config.Config) (CounterService, func(), error) {
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	svc := counter.NewService(
		postgres.NewTxRunner(pool),
		postgres.NewCounterRepository(pool),
		postgres.NewSchema(pool),
	)
	return svc, pool.Close, nil
}
