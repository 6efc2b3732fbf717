package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestHealthAndReady(t *testing.T) {
	mongoUp := true
	g := gin.New()
	RegisterHealth(g, time.Now(), map[string]Check{
		"mongodb": func(context.Context) error {
			if mongoUp {
				return nil
			}
			return errors.New("down")
		},
		"redis": func(context.Context) error { return nil },
	})

	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "healthy", w.Body.String())

	w = httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest("GET", "/ready", nil))
	require.Equal(t, http.StatusOK, w.Code)

	mongoUp = false
	w = httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest("GET", "/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body struct {
		Status string          `json:"status"`
		Deps   map[string]bool `json:"deps"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "not_ready", body.Status)
	require.Equal(t, map[string]bool{"mongodb": false, "redis": true}, body.Deps)
}
