package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadiness(t *testing.T) {
	serve := func(h *Handler, path string) *httptest.ResponseRecorder {
		r := chi.NewRouter()
		h.Register(r)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	t.Run("ready when every check passes", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("store", func(context.Context) error { return nil })

		w := serve(h, "/health/ready")

		assert.Equal(t, http.StatusOK, w.Code)
		var res ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, "up", res.Checks["store"])
	})

	t.Run("not ready when a check fails", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("store", func(context.Context) error { return nil })
		h.RegisterCheck("redis", func(context.Context) error { return errors.New("connection refused") })

		w := serve(h, "/health/ready")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var res ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, "not_ready", res.Status)
		assert.Equal(t, "down: connection refused", res.Checks["redis"])
	})

	t.Run("checks receive a deadline", func(t *testing.T) {
		h := New("test")
		var hasDeadline bool
		h.RegisterCheck("kafka", func(ctx context.Context) error {
			_, hasDeadline = ctx.Deadline()
			return nil
		})

		serve(h, "/health/ready")

		assert.True(t, hasDeadline)
	})

	t.Run("status reports the environment", func(t *testing.T) {
		w := serve(New("staging"), "/health")

		var res StatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, "healthy", res.Status)
		assert.Equal(t, "staging", res.Environment)
	})
}
