package middleware

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"pantry/config"
)

// CORSMiddleware configures gin-contrib/cors from config. No origins or a "*"
// entry allows every origin.
func CORSMiddleware(cfg *config.CORSConfig) gin.HandlerFunc {
	allowAll := len(cfg.AllowOrigins) == 0 || slices.Contains(cfg.AllowOrigins, "*")
	cc := cors.Config{
		AllowAllOrigins:  allowAll,
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		ExposeHeaders:    []string{RequestIDHeader},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           time.Duration(cfg.MaxAge) * time.Second,
	}
	if !allowAll {
		cc.AllowOrigins = cfg.AllowOrigins
	}
	return cors.New(cc)
}
