// Package ctxutil moves request scoped values between gin and handlers.
package ctxutil

import (
	"context"

	"github.com/gin-gonic/gin"

	"pantry/pkg/logger"
)

const userIDKey = "user_id"

// Context returns the request context; it already carries the request id.
func Context(c *gin.Context) context.Context {
	return c.Request.Context()
}

func RequestIDFromContext(ctx context.Context) string {
	return logger.RequestIDFromContext(ctx)
}

func SetUserID(c *gin.Context, userID string) {
	c.Set(userIDKey, userID)
}

// UserID is empty on routes without RequireUser.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
