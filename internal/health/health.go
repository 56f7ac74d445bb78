package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Status represents the health status of a service or dependency.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

const checkTimeout = 5 * time.Second

// CheckResult represents the health check result for a single dependency.
type CheckResult struct {
	Status    Status `json:"status"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
	Pending   int    `json:"pending,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HealthStatus represents the overall health status of the service.
type HealthStatus struct {
	Status  Status                 `json:"status"`
	Version string                 `json:"version,omitempty"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// Pinger is a dependency that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type dependency struct {
	name   string
	pinger Pinger
}

// Checker performs health checks on service dependencies.
type Checker struct {
	deps    []dependency
	backlog func() int
	version string
}

// NewChecker creates a new health checker with no dependencies registered.
func NewChecker(version string) *Checker {
	return &Checker{
		version: version,
	}
}

// Register adds a dependency checked on readiness.
func (c *Checker) Register(name string, p Pinger) *Checker {
	c.deps = append(c.deps, dependency{name: name, pinger: p})
	return c
}

// WithBacklog reports unsaved changes. A non-zero backlog degrades the
// overall status without failing readiness.
func (c *Checker) WithBacklog(fn func() int) *Checker {
	c.backlog = fn
	return c
}

// Check performs health checks on all dependencies and returns the overall status.
func (c *Checker) Check(ctx context.Context) *HealthStatus {
	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	status := &HealthStatus{
		Status:  StatusHealthy,
		Version: c.version,
		Checks:  make(map[string]CheckResult),
	}

	for _, dep := range c.deps {
		start := time.Now()
		if err := dep.pinger.Ping(checkCtx); err != nil {
			status.Status = StatusUnhealthy
			status.Checks[dep.name] = CheckResult{
				Status: StatusUnhealthy,
				Error:  err.Error(),
			}
			continue
		}
		status.Checks[dep.name] = CheckResult{
			Status:    StatusHealthy,
			LatencyMs: time.Since(start).Milliseconds(),
		}
	}

	if c.backlog != nil {
		pending := c.backlog()
		result := CheckResult{Status: StatusHealthy}
		if pending > 0 {
			result = CheckResult{Status: StatusDegraded, Pending: pending}
			if status.Status == StatusHealthy {
				status.Status = StatusDegraded
			}
		}
		status.Checks["persistence"] = result
	}

	return status
}

// Handler returns the full report. Only an unhealthy dependency yields 503.
func (c *Checker) Handler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		status := c.Check(ctx.Request.Context())
		ctx.JSON(httpStatus(status), status)
	}
}

// LiveHandler returns a Gin handler for liveness probes.
func (c *Checker) LiveHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// ReadyHandler returns a Gin handler for readiness probes.
func (c *Checker) ReadyHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		status := c.Check(ctx.Request.Context())
		ctx.JSON(httpStatus(status), status)
	}
}

func httpStatus(status *HealthStatus) int {
	if status.Status == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
