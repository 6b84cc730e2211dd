package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"

	"garagebill/internal/caching"
	"garagebill/internal/services"
)

const checkTimeout = 2 * time.Second

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers handles health check and monitoring endpoints
type HealthHandlers struct {
	db        Pinger
	cacheSvc  caching.CacheService
	minioSvc  services.MinioService
	bucket    string
	version   string
	startedAt time.Time
}

// NewHealthHandlers creates a new health handlers instance. Any dependency
// may be nil, in which case it is reported as "disabled".
func NewHealthHandlers(db Pinger, cacheSvc caching.CacheService, minioSvc services.MinioService, bucket, version string) *HealthHandlers {
	return &HealthHandlers{
		db:        db,
		cacheSvc:  cacheSvc,
		minioSvc:  minioSvc,
		bucket:    bucket,
		version:   version,
		startedAt: time.Now(),
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
}

// HealthCheck godoc
// @Summary      Service health
// @Tags         health
// @Produce      json
// @Success      200  {object}  HealthStatus
// @Success      206  {object}  HealthStatus
// @Router       /health [get]
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	ctx := c.Request().Context()
	health := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  make(map[string]string),
		Version:   h.version,
		Uptime:    time.Since(h.startedAt).Truncate(time.Second).String(),
	}

	checks := map[string]func(context.Context) error{
		"database": h.checkDatabase,
		"redis":    h.checkRedis,
		"storage":  h.checkStorage,
	}
	for name, check := range checks {
		switch err := check(ctx); {
		case errors.Is(err, errDisabled):
			health.Services[name] = "disabled"
		case err != nil:
			health.Services[name] = "unhealthy"
			health.Status = "degraded"
		default:
			health.Services[name] = "healthy"
		}
	}

	statusCode := http.StatusOK
	if health.Status == "degraded" {
		statusCode = http.StatusPartialContent
	}

	return c.JSON(statusCode, health)
}

var errDisabled = errors.New("disabled")

func (h *HealthHandlers) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return errDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return h.db.Ping(ctx)
}

func (h *HealthHandlers) checkRedis(ctx context.Context) error {
	if h.cacheSvc == nil {
		return errDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return h.cacheSvc.Ping(ctx)
}

func (h *HealthHandlers) checkStorage(ctx context.Context) error {
	if h.minioSvc == nil {
		return errDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	found, err := h.minioSvc.BucketExists(ctx, h.bucket)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("bucket %s does not exist", h.bucket)
	}
	return nil
}

// ReadinessCheck reports ready once the database answers. The cache only
// speeds up cold starts, so it does not gate readiness.
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	if err := h.checkDatabase(c.Request().Context()); err != nil && !errors.Is(err, errDisabled) {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":  "not_ready",
			"message": "Critical services unavailable",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ready",
		"message": "All systems operational",
	})
}

// LivenessCheck determines if the application is running (basic liveness probe)
func (h *HealthHandlers) LivenessCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":     "alive",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"goroutines": runtime.NumGoroutine(),
	})
}
