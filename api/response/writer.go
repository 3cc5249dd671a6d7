package response

import (
	stdErrors "errors"
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pantry/domain/shared"
	"pantry/pkg/errors"
	"pantry/pkg/logger"
)

const maxStackFrames = 5

func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

func ok(c *gin.Context, status int, data any, message string) {
	c.JSON(status, &Response{
		Success:   true,
		Data:      data,
		Message:   message,
		Code:      status,
		RequestID: GetRequestID(c),
	})
}

func HandleSuccess(c *gin.Context, data any, message string) { ok(c, http.StatusOK, data, message) }
func HandleCreated(c *gin.Context, data any, message string) { ok(c, http.StatusCreated, data, message) }

func HandleNoContent(c *gin.Context) { c.Status(http.StatusNoContent) }

// HandleList writes items (never null) with their count.
func HandleList[T any](c *gin.Context, items []T, message string) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, &ListResponse{
		Success:   true,
		Data:      items,
		Count:     len(items),
		Message:   message,
		Code:      http.StatusOK,
		RequestID: GetRequestID(c),
	})
}

func abort(c *gin.Context, status int, code errors.ErrorCode, field, message string) {
	c.AbortWithStatusJSON(status, &Response{
		Error:     string(code),
		Field:     field,
		Message:   message,
		Code:      status,
		RequestID: GetRequestID(c),
	})
}

func requestLogger(c *gin.Context) *zap.Logger {
	return logger.FromContext(c.Request.Context()).With(
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
	)
}

// HandleError answers malformed requests (binding, query parsing) with 400.
func HandleError(c *gin.Context, err error, message string) {
	requestLogger(c).Warn(message, zap.Error(err))
	abort(c, http.StatusBadRequest, errors.CodeBadRequest, "", message)
}

// HandleAppError maps err to its status and code. 5xx are logged at error
// with the stack of the place the error was raised; 4xx at info.
func HandleAppError(c *gin.Context, err error) {
	appErr := errors.MapDomainError(err)
	status := appErr.HTTPStatusCode()

	log := requestLogger(c).With(
		zap.String("error_code", string(appErr.Code)),
		zap.Int("http_status", status),
	)
	if appErr.Err != nil {
		log = log.With(zap.Error(appErr.Err))
	}

	message := appErr.Message
	switch {
	case status >= http.StatusInternalServerError:
		log.Error(appErr.Message, zap.Strings("stack", stackOf(err)))
		if appErr.Code == errors.CodeInternal {
			message = "internal server error"
		}
	default:
		log.Info(appErr.Message)
	}

	abort(c, status, appErr.Code, appErr.Field, message)
}

// stackOf prefers the frames recorded where a domain error was raised.
func stackOf(err error) []string {
	var s shared.Stacker
	if stdErrors.As(err, &s) && len(s.Stack()) > 0 {
		return s.Stack()
	}

	pcs := make([]uintptr, maxStackFrames)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	out := make([]string, 0, n)
	for {
		f, more := frames.Next()
		if f.Function != "" {
			out = append(out, f.Function)
		}
		if !more {
			break
		}
	}
	return out
}
