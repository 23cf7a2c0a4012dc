package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/robocode-api/internal/domain"
	"github.com/jhoicas/robocode-api/internal/domain/code"
	"github.com/jhoicas/robocode-api/internal/domain/entity"
	apphttp "github.com/jhoicas/robocode-api/internal/interfaces/http"
	"github.com/jhoicas/robocode-api/pkg/logger"
)

// fakeIssuer asigna conteos en memoria o devuelve err si está definido.
type fakeIssuer struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
	calls  int
}

func (f *fakeIssuer) Next(_ context.Context, raw string) (*entity.IssuedCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	category, err := code.NormalizeCategory(raw)
	if err != nil {
		return nil, err
	}
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[category]++
	n := f.counts[category]
	return &entity.IssuedCode{Category: category, Count: n, Code: code.Format(category, n)}, nil
}

func buildCodeApp(issuer apphttp.CodeIssuer) *fiber.App {
	app := fiber.New()
	app.Post("/generate_code", apphttp.NewCodeHandler(issuer, logger.Nop()).Generate)
	return app
}

func postGenerate(t *testing.T, app *fiber.App, body string) (int, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/generate_code", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestGenerateCode_Secuencia(t *testing.T) {
	app := buildCodeApp(&fakeIssuer{})

	status, body := postGenerate(t, app, `{"robot_type":"ROB-A"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ROB-A-0001", body["code"])

	_, body = postGenerate(t, app, `{"robot_type":"ROB-A"}`)
	assert.Equal(t, "ROB-A-0002", body["code"])

	_, body = postGenerate(t, app, `{"robot_type":"ROB-B"}`)
	assert.Equal(t, "ROB-B-0001", body["code"])
}

func TestGenerateCode_SinRobotType_400(t *testing.T) {
	issuer := &fakeIssuer{}
	app := buildCodeApp(issuer)

	for _, body := range []string{`{}`, `{"robot_type":""}`} {
		status, out := postGenerate(t, app, body)
		assert.Equal(t, http.StatusBadRequest, status, body)
		assert.Equal(t, "tipo de robot no especificado", out["error"])
	}
	assert.Zero(t, issuer.calls, "la validación ocurre antes de llamar al servicio")
}

func TestGenerateCode_SoloEspacios_400DesdeElNucleo(t *testing.T) {
	issuer := &fakeIssuer{}
	status, out := postGenerate(t, buildCodeApp(issuer), `{"robot_type":"   "}`)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "tipo de robot no especificado", out["error"])
	assert.Equal(t, 1, issuer.calls)
}

func TestGenerateCode_CaracterNulo_400(t *testing.T) {
	issuer := &fakeIssuer{}
	status, out := postGenerate(t, buildCodeApp(issuer), `{"robot_type":"ROB\u0000A"}`)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "la categoría contiene caracteres nulos", out["error"])
	assert.Empty(t, out["code"])
	assert.Empty(t, issuer.counts)
}

func TestGenerateCode_CuerpoInvalido_400(t *testing.T) {
	status, out := postGenerate(t, buildCodeApp(&fakeIssuer{}), `{"robot_type": 5}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, out["error"])
}

func TestGenerateCode_FalloDelAlmacen_500(t *testing.T) {
	issuer := &fakeIssuer{err: &domain.StoreError{
		Op: "begin transaction", Kind: domain.StoreUnavailable, Err: errors.New("dial tcp 10.0.0.5:5432: connection refused"),
	}}
	status, out := postGenerate(t, buildCodeApp(issuer), `{"robot_type":"ROB-A"}`)

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotContains(t, out["error"], "10.0.0.5", "no se filtran detalles del driver")
	assert.Empty(t, out["code"])
}

func TestGenerateCode_LockTimeout_503(t *testing.T) {
	issuer := &fakeIssuer{err: &domain.StoreError{Op: "counter transaction", Kind: domain.StoreLockTimeout}}
	status, out := postGenerate(t, buildCodeApp(issuer), `{"robot_type":"ROB-A"}`)

	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.NotEmpty(t, out["error"])
}

func TestGenerateCode_LogConRequestID(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(requestid.New(requestid.Config{ContextKey: apphttp.LocalRequestID}))
	app.Post("/generate_code", apphttp.NewCodeHandler(&fakeIssuer{}, logger.NewWithWriter(&buf, "info")).Generate)

	req := httptest.NewRequest(http.MethodPost, "/generate_code", strings.NewReader(`{"robot_type":"ROB-A"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, resp.Header.Get(fiber.HeaderXRequestID), entry["request_id"])
	assert.Equal(t, "ROB-A-0001", entry["code"])
	assert.NotEmpty(t, entry["request_id"])
}
