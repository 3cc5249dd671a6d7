package response

import (
	"encoding/json"
	stdErrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantry/domain/shared"
)

func serve(t *testing.T, h gin.HandlerFunc) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		c.Set(RequestIDKey, "req-1")
		h(c)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body Response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestHandleAppError_HidesInternalMessage(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) {
		HandleAppError(c, stdErrors.New("dial tcp 10.0.0.1: refused"))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "internal server error", body.Message)
	assert.Equal(t, "req-1", body.RequestID)
}

func TestHandleAppError_DomainNotFound(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) {
		HandleAppError(c, shared.NewNotFoundError("ingredient", "ing_1"))
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(shared.CodeNotFound), body.Error)
}

func TestHandleCreatedAndList(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) { HandleCreated(c, gin.H{"id": "x"}, "created") })
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, body.Success)
	assert.Equal(t, http.StatusCreated, body.Code)

	w, _ = serve(t, func(c *gin.Context) { HandleList[string](c, nil, "ok") })
	var list ListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 0, list.Count)
	assert.Equal(t, []any{}, list.Data)
}
