package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

// Overall health values.
const (
	HealthHealthy   = "healthy"
	HealthDegraded  = "degraded"
	HealthUnhealthy = "unhealthy"
)

// Pinger is anything the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck is one dependency of the service. A failing required check
// makes the service unhealthy, an optional one only degrades it.
type HealthCheck struct {
	Name     string
	Pinger   Pinger
	Required bool
}

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	checks  []HealthCheck
	version string
}

func NewHealthController(version string, checks ...HealthCheck) *HealthController {
	return &HealthController{checks: checks, version: version}
}

func (h *HealthController) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:  HealthHealthy,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  make(map[string]string, len(h.checks)),
	}

	for _, check := range h.checks {
		result := probe(ctx, check.Pinger)
		resp.Checks[check.Name] = result
		if result == "ok" {
			continue
		}
		if check.Required {
			resp.Status = HealthUnhealthy
		} else if resp.Status == HealthHealthy {
			resp.Status = HealthDegraded
		}
	}

	code := http.StatusOK
	if resp.Status == HealthUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.IndentedJSON(code, resp)
}

func probe(ctx context.Context, p Pinger) string {
	if p == nil {
		return "not configured"
	}
	if err := p.Ping(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

func (h *HealthController) Ping(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}
