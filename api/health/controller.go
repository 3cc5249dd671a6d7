// Package health serves liveness and readiness endpoints.
package health

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"pantry/config"
)

const checkTimeout = 2 * time.Second

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Checker tests one dependency. A nil error means healthy.
type Checker func(ctx context.Context) error

type Controller struct {
	cfg      *config.Config
	checkers map[string]Checker
	started  time.Time
}

// NewController registers a "database" checker when db is non-nil. The mock
// driver passes nil and reports no dependencies.
func NewController(cfg *config.Config, db Pinger) *Controller {
	c := &Controller{cfg: cfg, checkers: map[string]Checker{}, started: time.Now()}
	if db != nil {
		c.AddChecker("database", db.PingContext)
	}
	return c
}

func (c *Controller) AddChecker(name string, fn Checker) {
	c.checkers[name] = fn
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/health", c.Health)
	router.GET("/health/live", c.Liveness)
	router.GET("/health/ready", c.Readiness)
}

type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency"`
}

type Runtime struct {
	GoVersion  string `json:"go_version"`
	CPUs       int    `json:"num_cpu"`
	Goroutines int    `json:"num_goroutine"`
	HeapAlloc  uint64 `json:"mem_alloc_bytes"`
}

type Report struct {
	Status    string           `json:"status"`
	Version   string           `json:"version"`
	Uptime    string           `json:"uptime"`
	Timestamp string           `json:"timestamp"`
	Checks    map[string]Check `json:"checks,omitempty"`
	Runtime   *Runtime         `json:"system,omitempty"`
}

// Health runs every checker and answers 503 if any fails. Runtime figures are
// included in development only.
func (c *Controller) Health(ctx *gin.Context) {
	checks, ok := c.run(ctx.Request.Context())
	report := Report{
		Status:    statusOf(ok),
		Version:   c.cfg.App.Version,
		Uptime:    time.Since(c.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
	if c.cfg.IsDevelopment() {
		report.Runtime = readRuntime()
	}
	ctx.JSON(httpStatus(ok), report)
}

func (c *Controller) Liveness(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (c *Controller) Readiness(ctx *gin.Context) {
	checks, ok := c.run(ctx.Request.Context())
	if ok {
		ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}
	failed := make([]string, 0, len(checks))
	for name, ch := range checks {
		if ch.Status != StatusHealthy {
			failed = append(failed, name)
		}
	}
	sort.Strings(failed)
	ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "failed": failed})
}

func (c *Controller) run(ctx context.Context) (map[string]Check, bool) {
	checks := make(map[string]Check, len(c.checkers))
	ok := true
	for name, fn := range c.checkers {
		ch := runCheck(ctx, fn)
		if ch.Status != StatusHealthy {
			ok = false
		}
		checks[name] = ch
	}
	return checks, ok
}

func runCheck(ctx context.Context, fn Checker) Check {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	ch := Check{Status: StatusHealthy, Latency: time.Since(start).String()}
	if err != nil {
		ch.Status = StatusUnhealthy
		ch.Message = err.Error()
	}
	return ch
}

func readRuntime() *Runtime {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return &Runtime{
		GoVersion:  runtime.Version(),
		CPUs:       runtime.NumCPU(),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  ms.Alloc,
	}
}

func statusOf(ok bool) string {
	if ok {
		return StatusHealthy
	}
	return StatusUnhealthy
}

func httpStatus(ok bool) int {
	if ok {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}
