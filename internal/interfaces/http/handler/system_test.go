package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slnkoenergy/epc-backend/internal/interfaces/http/dto"
)

func newSystemRouter(db Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewSystemHandler(db)
	r := gin.New()
	r.GET("/system/health", h.Health)
	r.GET("/system/ready", h.Ready)
	return r
}

func TestSystemHealth(t *testing.T) {
	router := newSystemRouter(PingerFunc(func(context.Context) error { return nil }))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/system/health", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
	assert.NotEmpty(t, data["go_version"])
	assert.NotEmpty(t, data["uptime"])
}

func TestSystemReady(t *testing.T) {
	router := newSystemRouter(PingerFunc(func(context.Context) error { return nil }))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/system/ready", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "ready", data["status"])
}

func TestSystemReady_DatabaseDown(t *testing.T) {
	router := newSystemRouter(PingerFunc(func(context.Context) error {
		return errors.New("connection refused")
	}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/system/ready", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
}
