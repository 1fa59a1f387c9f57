package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

func checkHealth(t *testing.T, h *HealthHandler) (int, HealthResponse) {
	t.Helper()
	engine := gin.New()
	engine.GET("/health", h.Check)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestHealthHandler(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	t.Run("database only", func(t *testing.T) {
		status, resp := checkHealth(t, NewHealthHandler(stubPinger{}, nil))

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, map[string]string{"database": "ok"}, resp.Checks)
	})

	t.Run("database and redis", func(t *testing.T) {
		status, resp := checkHealth(t, NewHealthHandler(stubPinger{}, client))

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "ok", resp.Checks["redis"])
	})

	t.Run("database down", func(t *testing.T) {
		status, resp := checkHealth(t, NewHealthHandler(stubPinger{err: assert.AnError}, client))

		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.Equal(t, "unhealthy", resp.Status)
		assert.Equal(t, "error", resp.Checks["database"])
		assert.Equal(t, "ok", resp.Checks["redis"])
	})

	t.Run("redis down", func(t *testing.T) {
		mr.Close()
		status, resp := checkHealth(t, NewHealthHandler(stubPinger{}, client))

		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.Equal(t, "error", resp.Checks["redis"])
	})
}
