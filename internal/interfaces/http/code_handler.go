package http

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/robocode-api/internal/application/dto"
	"github.com/jhoicas/robocode-api/internal/domain"
	"github.com/jhoicas/robocode-api/internal/domain/entity"
	"github.com/jhoicas/robocode-api/pkg/logger"
)

// CodeIssuer es lo que el handler necesita del servicio de contadores. Lo implementa *counter.Service.
type CodeIssuer interface {
	Next(ctx context.Context, category string) (*entity.IssuedCode, error)
}

const generateTimeout = 10 * time.Second

// CodeHandler expone la asignación de códigos (público, usado por la página índice).
type CodeHandler struct {
	issuer   CodeIssuer
	log      *logger.Logger
	validate *validator.Validate
}

// NewCodeHandler construye el handler.
func NewCodeHandler(issuer CodeIssuer, log *logger.Logger) *CodeHandler {
	return &CodeHandler{issuer: issuer, log: log, validate: validator.New()}
}

// Generate godoc
// @Summary      Generar el siguiente código de un tipo de robot
// @Tags         codes
// @Accept       json
// @Produce      json
// @Param        body  body  dto.GenerateCodeRequest  true  "Tipo de robot"
// @Success      200   {object}  dto.GenerateCodeResponse
// @Failure      400   {object}  dto.GenerateCodeError
// @Failure      500   {object}  dto.GenerateCodeError
// @Failure      503   {object}  dto.GenerateCodeError
// @Router       /generate_code [post]
func (h *CodeHandler) Generate(c *fiber.Ctx) error {
	var in dto.GenerateCodeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.GenerateCodeError{Error: "cuerpo inválido, se espera JSON {\"robot_type\": ...}"})
	}
	if err := h.validate.Struct(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.GenerateCodeError{Error: validationMessage(err)})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), generateTimeout)
	defer cancel()

	log := h.log.With("request_id", GetRequestID(c))
	issued, err := h.issuer.Next(ctx, in.RobotType)
	if err != nil {
		status, msg := generateErrorResponse(err)
		ev := log.Error()
		if status == fiber.StatusBadRequest {
			ev = log.Debug()
		}
		ev.Err(err).
			Str("robot_type", in.RobotType).
			Str("kind", domain.StoreErrorKind(err)).
			Msg("generación de código fallida")
		return c.Status(status).JSON(dto.GenerateCodeError{Error: msg})
	}

	log.Info().
		Str("category", issued.Category).
		Int64("count", issued.Count).
		Str("code", issued.Code).
		Msg("código generado")
	return c.JSON(dto.GenerateCodeResponse{Code: issued.Code})
}

// generateErrorResponse: validación → 400; timeout de bloqueo → 503; resto del almacén → 500.
// Los 5xx no exponen el mensaje del driver.
func generateErrorResponse(err error) (int, string) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return fiber.StatusBadRequest, vErr.Reason
	}
	if domain.StoreErrorKind(err) == domain.StoreLockTimeout {
		return fiber.StatusServiceUnavailable, "el contador está ocupado, intente de nuevo"
	}
	return fiber.StatusInternalServerError, "error interno del servidor durante la generación del código"
}

func validationMessage(err error) string {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) && len(vErrs) > 0 {
		switch vErrs[0].Tag() {
		case "required":
			return "tipo de robot no especificado"
		case "max":
			return "tipo de robot demasiado largo"
		}
	}
	return "tipo de robot inválido"
}
