package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pantry/api/catalog"
	"pantry/api/health"
	"pantry/api/ingredient"
	"pantry/api/middleware"
	"pantry/api/shopping"
	"pantry/config"
	"pantry/pkg/metrics"
)

// Router owns the gin engine and the controllers mounted on it.
type Router struct {
	engine               *gin.Engine
	config               *config.Config
	metricsHandler       http.Handler
	healthController     *health.Controller
	catalogController    *catalog.Controller
	ingredientController *ingredient.Controller
	shoppingController   *shopping.Controller
}

// Controllers groups the handlers NewRouter mounts.
type Controllers struct {
	Health     *health.Controller
	Catalog    *catalog.Controller
	Ingredient *ingredient.Controller
	Shopping   *shopping.Controller
}

// NewRouter builds the engine and its middleware chain. metricsHandler may be
// nil, in which case /metrics is not mounted.
func NewRouter(cfg *config.Config, controllers Controllers, recorder metrics.Recorder, metricsHandler http.Handler) *Router {
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	engine := gin.New()

	// order matters: the request id must exist before anything logs
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.RecoveryMiddleware())
	engine.Use(middleware.LoggingMiddleware())
	engine.Use(middleware.MetricsMiddleware(recorder))
	engine.Use(middleware.CORSMiddleware(&cfg.CORS))
	engine.Use(middleware.RateLimitMiddleware(&cfg.Server.RateLimit))

	return &Router{
		engine:               engine,
		config:               cfg,
		metricsHandler:       metricsHandler,
		healthController:     controllers.Health,
		catalogController:    controllers.Catalog,
		ingredientController: controllers.Ingredient,
		shoppingController:   controllers.Shopping,
	}
}

func (r *Router) SetupRoutes() {
	apiGroup := r.engine.Group("/api/v1")
	{
		r.healthController.RegisterRoutes(apiGroup)
		r.catalogController.RegisterRoutes(apiGroup)

		userGroup := apiGroup.Group("", middleware.RequireUser())
		r.ingredientController.RegisterRoutes(userGroup)
		r.shoppingController.RegisterRoutes(userGroup)
	}

	if r.metricsHandler != nil {
		r.engine.GET("/metrics", gin.WrapH(r.metricsHandler))
	}

	r.engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    r.config.App.Name,
			"version": r.config.App.Version,
			"env":     r.config.App.Env,
			"health":  "/api/v1/health",
		})
	})
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
