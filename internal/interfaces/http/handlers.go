package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ac-tresor/dossiers/internal/domain/entity"
	"github.com/ac-tresor/dossiers/internal/domain/errs"
	"github.com/ac-tresor/dossiers/internal/metrics"
)

// Response is the JSON envelope of every endpoint
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

type handlers struct {
	services Services
	config   ServerConfig
	metrics  *metrics.Metrics
	logger   Logger
}

func newHandlers(services Services, config ServerConfig, m *metrics.Metrics, logger Logger) *handlers {
	return &handlers{services: services, config: config, metrics: m, logger: logger}
}

// HealthCheck handles GET /health
func (h *handlers) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Version:   h.config.Version,
		Database:  "ok",
		Timestamp: time.Now().UTC(),
	}

	if h.services.Health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.services.Health(ctx); err != nil {
			h.logger.Error("Health check failed", "error", err)
			resp.Status = "degraded"
			resp.Database = "unreachable"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *handlers) ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func (h *handlers) created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// fail writes the error envelope with the status of the error kind
func (h *handlers) fail(c *gin.Context, err error) {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		h.logger.Error("Request failed",
			"request_id", c.GetString(ctxRequestID),
			"path", c.FullPath(),
			"error", err,
		)
	}
	c.JSON(status, Response{Success: false, Error: publicMessage(err, status)})
}

func (h *handlers) badRequest(c *gin.Context, err error) {
	h.fail(c, errs.Validation("malformed request body: %v", err))
}

// principal returns the caller; authMiddleware guarantees it is set
func (h *handlers) principal(c *gin.Context) entity.Principal {
	p, _ := principalFrom(c)
	return p
}

// bindOptionalJSON binds the body when one is sent
func bindOptionalJSON(c *gin.Context, dst interface{}) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errs.Validation("query parameter %s must be a non-negative integer", key)
	}
	return n, nil
}
