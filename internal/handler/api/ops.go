package api

import (
	"context"
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/usecase"
	xhttp "github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/http"
	xlogger "github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/logger"
)

// HealthChecker is anything that can report whether it is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthFunc adapts a plain function to HealthChecker.
type HealthFunc func(ctx context.Context) error

func (f HealthFunc) Health(ctx context.Context) error { return f(ctx) }

// OpsHandler serves health and the state of in-flight runs.
type OpsHandler struct {
	logger   *xlogger.Logger
	registry *usecase.Registry
	checks   map[string]HealthChecker
	timeout  time.Duration
}

func NewOpsHandler(logger *xlogger.Logger, registry *usecase.Registry, checks map[string]HealthChecker) *OpsHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &OpsHandler{logger: logger, registry: registry, checks: checks, timeout: 3 * time.Second}
}

func (h *OpsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/runs")
	g.GET("", h.ListRuns)
	g.GET("/:id", h.GetRun)
	g.POST("/:id/stop", h.StopRun)
}

// Health reports "ok" or the error of every dependency that failed.
func (h *OpsHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := make(map[string]string, len(names))
	healthy := true
	for _, name := range names {
		if err := h.checks[name].Health(ctx); err != nil {
			healthy = false
			status[name] = err.Error()
			h.logger.Warn("health check failed", xlogger.String("dependency", name), xlogger.Error(err))
			continue
		}
		status[name] = "ok"
	}
	if !healthy {
		return xhttp.UnavailableResponse(c, status)
	}
	return xhttp.SuccessResponse(c, status)
}

func (h *OpsHandler) ListRuns(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.registry.List())
}

func (h *OpsHandler) GetRun(c echo.Context) error {
	run, ok := h.registry.Get(c.Param("id"))
	if !ok {
		return xhttp.NotFoundResponse(c, "run not found")
	}
	return xhttp.SuccessResponse(c, run.Snapshot())
}

// StopRun asks a run to stop at its next unit boundary.
func (h *OpsHandler) StopRun(c echo.Context) error {
	id := c.Param("id")
	if !h.registry.Stop(id) {
		return xhttp.NotFoundResponse(c, "run not found")
	}
	h.logger.Info("run stop requested", xlogger.RunID(id))
	return xhttp.AcceptedResponse(c, map[string]string{"run_id": id})
}
