package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"pantry/api/ctxutil"
	"pantry/api/response"
	"pantry/domain/shared"
	"pantry/pkg/errors"
)

const UserIDHeader = "X-User-ID"

// RequireUser stands in for authentication: the acting user arrives in
// X-User-ID and must be a valid user id.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if raw == "" {
			response.HandleAppError(c, errors.Unauthorized(UserIDHeader+" header is required"))
			return
		}
		id, err := shared.NewUserID(raw)
		if err != nil {
			response.HandleAppError(c, errors.Unauthorized(UserIDHeader+" header is not a valid user id"))
			return
		}
		ctxutil.SetUserID(c, id.Value())
		c.Next()
	}
}
