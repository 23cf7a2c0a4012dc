package http

import (
	"bytes"
	_ "embed"
	"html/template"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/robocode-api/pkg/config"
)

//go:embed templates/index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

// IndexHandler sirve la página de selección de robot.
type IndexHandler struct {
	robots []config.RobotType
	title  string
}

// NewIndexHandler construye el handler con los tipos de robot configurados.
func NewIndexHandler(title string, robots []config.RobotType) *IndexHandler {
	return &IndexHandler{title: title, robots: robots}
}

// Index renderiza la página. El template se evalúa por petición sobre datos inmutables.
func (h *IndexHandler) Index(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, fiber.Map{"Title": h.title, "Robots": h.robots}); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "render index")
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}
