package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jhoicas/robocode-api/docs"
	"github.com/jhoicas/robocode-api/internal/application/counter"
	"github.com/jhoicas/robocode-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/robocode-api/internal/interfaces/http"
	"github.com/jhoicas/robocode-api/pkg/config"
	"github.com/jhoicas/robocode-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

// @title       Robocode API
// @version     1.0
// @description Asignación atómica de códigos secuenciales por tipo de robot.
// @BasePath    /
// @securityDefinitions.apikey Bearer
// @in          header
// @name        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:        cfg.App.Env,
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	counterSvc := counter.NewService(
		postgres.NewTxRunner(pool),
		postgres.NewCounterRepository(pool),
		postgres.NewSchema(pool),
	)

	// La tabla se crea antes de aceptar peticiones.
	schemaCtx, cancelSchema := context.WithTimeout(ctx, 30*time.Second)
	err = counterSvc.EnsureSchema(schemaCtx)
	cancelSchema()
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar esquema de contadores")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 15,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Robocode API",
		}))
	} else {
		log.Warn().Str("file", swaggerFile).Msg("swagger.json no encontrado, UI deshabilitada")
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		AppName:   cfg.App.Name,
		Codes:     counterSvc,
		Counters:  counterSvc,
		DB:        pool,
		Robots:    cfg.Robots,
		StaticDir: cfg.App.StaticDir,
		JWTSecret: cfg.JWT.Secret,
		Log:       log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
