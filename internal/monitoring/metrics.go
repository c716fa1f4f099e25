package monitoring

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type Metrics struct {
	mu              sync.RWMutex
	RequestCount    int64            `json:"request_count"`
	ActiveRequests  int64            `json:"active_requests"`
	ErrorCount      int64            `json:"error_count"`
	StatusCodes     map[string]int64 `json:"status_codes"`
	Endpoints       map[string]int64 `json:"endpoint_calls"`
	StartTime       time.Time        `json:"start_time"`
	LastRequest     time.Time        `json:"last_request"`
	totalDuration   time.Duration
}

type HealthCheckFunc func(ctx context.Context) error

type HealthCheck struct {
	Name    string    `json:"name"`
	Status  string    `json:"status"`
	Message string    `json:"message,omitempty"`
	LastRun time.Time `json:"last_run"`
}

type HealthChecker struct {
	mu     sync.RWMutex
	checks map[string]HealthCheckFunc
}

var globalMetrics = &Metrics{
	StatusCodes: make(map[string]int64),
	Endpoints:   make(map[string]int64),
	StartTime:   time.Now(),
}

var globalHealthChecker = &HealthChecker{
	checks: make(map[string]HealthCheckFunc),
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		globalMetrics.mu.Lock()
		globalMetrics.ActiveRequests++
		globalMetrics.mu.Unlock()

		c.Next()

		duration := time.Since(start)
		status := strconv.Itoa(c.Writer.Status())
		endpoint := c.Request.Method + " " + c.FullPath()

		globalMetrics.mu.Lock()
		globalMetrics.ActiveRequests--
		globalMetrics.RequestCount++
		globalMetrics.totalDuration += duration
		globalMetrics.StatusCodes[status]++
		globalMetrics.Endpoints[endpoint]++
		globalMetrics.LastRequest = time.Now()
		if c.Writer.Status() >= http.StatusInternalServerError {
			globalMetrics.ErrorCount++
		}
		globalMetrics.mu.Unlock()
	}
}

func RegisterHealthCheck(name string, check HealthCheckFunc) {
	globalHealthChecker.mu.Lock()
	globalHealthChecker.checks[name] = check
	globalHealthChecker.mu.Unlock()
}

func runHealthChecks(ctx context.Context) (bool, []HealthCheck) {
	globalHealthChecker.mu.RLock()
	checks := make(map[string]HealthCheckFunc, len(globalHealthChecker.checks))
	for name, check := range globalHealthChecker.checks {
		checks[name] = check
	}
	globalHealthChecker.mu.RUnlock()

	healthy := true
	results := make([]HealthCheck, 0, len(checks))
	for name, check := range checks {
		result := HealthCheck{Name: name, Status: "up", LastRun: time.Now()}
		if err := check(ctx); err != nil {
			healthy = false
			result.Status = "down"
			result.Message = err.Error()
		}
		results = append(results, result)
	}
	return healthy, results
}

func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		healthy, results := runHealthChecks(ctx)
		status := http.StatusOK
		overall := "healthy"
		if !healthy {
			status = http.StatusServiceUnavailable
			overall = "unhealthy"
		}

		c.JSON(status, gin.H{
			"status": overall,
			"checks": results,
			"uptime": time.Since(globalMetrics.StartTime).String(),
		})
	}
}

func MetricsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		globalMetrics.mu.RLock()
		avgDuration := time.Duration(0)
		if globalMetrics.RequestCount > 0 {
			avgDuration = globalMetrics.totalDuration / time.Duration(globalMetrics.RequestCount)
		}
		response := gin.H{
			"request_count":           globalMetrics.RequestCount,
			"active_requests":         globalMetrics.ActiveRequests,
			"error_count":             globalMetrics.ErrorCount,
			"avg_request_duration_ms": avgDuration.Milliseconds(),
			"status_codes":            globalMetrics.StatusCodes,
			"endpoint_calls":          globalMetrics.Endpoints,
			"start_time":              globalMetrics.StartTime,
			"last_request":            globalMetrics.LastRequest,
			"goroutines":              runtime.NumGoroutine(),
			"heap_alloc_bytes":        memStats.HeapAlloc,
		}
		globalMetrics.mu.RUnlock()

		c.JSON(http.StatusOK, response)
	}
}
