package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"webhook-dispatcher/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/sourcegraph/conc"
)

const healthCheckTimeout = 3 * time.Second

type depStatus struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// HealthCheck handles GET /health. Every dependency is pinged concurrently
// and any failure reports the service as degraded.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		var (
			mu   sync.Mutex
			wg   conc.WaitGroup
			deps = make(map[string]depStatus, len(checkers))
		)
		for _, checker := range checkers {
			wg.Go(func() {
				start := time.Now()
				err := checker.Ping(ctx)
				st := depStatus{Status: "healthy", LatencyMs: time.Since(start).Milliseconds()}
				if err != nil {
					st.Status = "unhealthy"
					st.Error = err.Error()
				}
				mu.Lock()
				deps[checker.Name()] = st
				mu.Unlock()
			})
		}
		wg.Wait()

		status := "healthy"
		httpCode := http.StatusOK
		for _, d := range deps {
			if d.Status != "healthy" {
				status = "degraded"
				httpCode = http.StatusServiceUnavailable
				break
			}
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
