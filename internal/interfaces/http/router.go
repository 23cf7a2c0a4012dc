package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/robocode-api/pkg/config"
	"github.com/jhoicas/robocode-api/pkg/jwt"
	"github.com/jhoicas/robocode-api/pkg/logger"
)

// Pinger verifica la conexión a la base de datos. Lo implementa *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AppName   string
	Codes     CodeIssuer
	Counters  CounterQuery
	DB        Pinger
	Robots    []config.RobotType
	StaticDir string
	JWTSecret string // vacío: la API de administración no se registra
	Log       *logger.Logger
}

// Router registra las rutas de la aplicación.
func Router(app *fiber.App, deps RouterDeps) {
	app.Use(requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		Generator:  uuid.NewString,
		ContextKey: LocalRequestID,
	}))
	app.Use(Metrics())

	// Página índice (público)
	indexHandler := NewIndexHandler(deps.AppName, deps.Robots)
	app.Get("/", indexHandler.Index)
	if deps.StaticDir != "" {
		app.Static("/static", deps.StaticDir)
	}

	app.Get("/health", healthHandler(deps.AppName, deps.DB))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Asignación de códigos (público)
	codeHandler := NewCodeHandler(deps.Codes, deps.Log)
	app.Post("/generate_code", codeHandler.Generate)

	if deps.JWTSecret == "" {
		deps.Log.Warn().Msg("JWT_SECRET vacío: API de administración deshabilitada")
		return
	}

	// Administración (Bearer Token con rol admin, solo lectura)
	admin := app.Group("/api", AuthMiddleware(deps.JWTSecret), RequireRole(jwt.RoleAdmin))
	counterHandler := NewCounterHandler(deps.Counters)
	admin.Get("/counters", counterHandler.List)
	admin.Get("/counters/:category", counterHandler.Get)
}

// healthHandler responde 200 si la BD contesta, 503 si no.
func healthHandler(name string, db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": name})
	}
}
