package http

import (
	"context"
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/robocode-api/internal/application/dto"
	"github.com/jhoicas/robocode-api/internal/domain"
)

// CounterQuery consultas de solo lectura sobre contadores. Lo implementa *counter.Service.
type CounterQuery interface {
	Get(ctx context.Context, category string) (*dto.CounterResponse, error)
	List(ctx context.Context, limit, offset int) (*dto.CounterListResponse, error)
}

// CounterHandler maneja la API de administración de contadores (protegido, solo lectura).
type CounterHandler struct {
	query CounterQuery
}

// NewCounterHandler construye el handler.
func NewCounterHandler(query CounterQuery) *CounterHandler {
	return &CounterHandler{query: query}
}

// List godoc
// @Summary      Listar contadores
// @Tags         counters
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"   default(20)
// @Param        offset  query  int  false  "Offset"   default(0)
// @Success      200     {object}  dto.CounterListResponse
// @Failure      401     {object}  dto.ErrorResponse
// @Router       /api/counters [get]
func (h *CounterHandler) List(c *fiber.Ctx) error {
	out, err := h.query.List(c.UserContext(), c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		return storeFailure(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Estado de un contador
// @Tags         counters
// @Security     Bearer
// @Produce      json
// @Param        category  path  string  true  "Categoría (tipo de robot)"
// @Success      200  {object}  dto.CounterResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/counters/{category} [get]
func (h *CounterHandler) Get(c *fiber.Ctx) error {
	category, err := url.PathUnescape(c.Params("category"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_CATEGORY", Message: "categoría mal codificada"})
	}
	out, err := h.query.Get(c.UserContext(), category)
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: vErr.Reason})
		}
		return storeFailure(c, err)
	}
	if out == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "categoría sin códigos asignados"})
	}
	return c.JSON(out)
}

func storeFailure(c *fiber.Ctx, err error) error {
	if domain.StoreErrorKind(err) == domain.StoreUnavailable {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "STORE_UNAVAILABLE", Message: "base de datos no disponible"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error consultando contadores"})
}
