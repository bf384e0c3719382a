package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]HealthCheck
		status int
		want   HealthResponse
	}{
		{
			name:   "no dependencies",
			status: http.StatusOK,
			want:   HealthResponse{Status: "healthy", Dependencies: map[string]string{}},
		},
		{
			name: "all dependencies up",
			checks: map[string]HealthCheck{
				"database": func(context.Context) error { return nil },
				"redis":    func(context.Context) error { return nil },
			},
			status: http.StatusOK,
			want:   HealthResponse{Status: "healthy", Dependencies: map[string]string{"database": "ok", "redis": "ok"}},
		},
		{
			name: "one dependency down",
			checks: map[string]HealthCheck{
				"database": func(context.Context) error { return nil },
				"redis":    func(context.Context) error { return errors.New("connection refused") },
			},
			status: http.StatusServiceUnavailable,
			want:   HealthResponse{Status: "unhealthy", Dependencies: map[string]string{"database": "ok", "redis": "error"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(0)
			for name, check := range tt.checks {
				h.AddCheck(name, check)
			}
			engine := newEngine()
			engine.GET("/health", h.Health)

			w := doRequest(engine, http.MethodGet, "/health", nil, nil)

			assert.Equal(t, tt.status, w.Code)
			var got HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.want.Status, got.Status)
			assert.Equal(t, tt.want.Dependencies, got.Dependencies)
			_, err := time.Parse(time.RFC3339, got.Time)
			assert.NoError(t, err)
		})
	}
}

func TestHealthHandler_CheckTimeout(t *testing.T) {
	h := NewHealthHandler(20 * time.Millisecond).AddCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	engine := newEngine()
	engine.GET("/health", h.Health)

	start := time.Now()
	w := doRequest(engine, http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Less(t, time.Since(start), time.Second)
}
