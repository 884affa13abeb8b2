package dashboardhttp_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/LubyRuffy/gptlb/dashboardapi"
	"github.com/LubyRuffy/gptlb/dashboardhttp"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T, token string) (*gin.Engine, *dashboardhttp.SettingsStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := dashboardhttp.NewSettingsStore(dashboardhttp.DefaultSettings())
	r := gin.New()
	require.NoError(t, dashboardhttp.RegisterGinRoutes(r, dashboardhttp.Config{AdminToken: token, Store: store}))
	r.NoRoute(dashboardhttp.NoRouteHandler(nil))
	return r, store
}

func do(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) dashboardapi.ErrorEnvelope {
	t.Helper()
	var env dashboardapi.ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestRegisterGinRoutes_RequiresStore(t *testing.T) {
	require.Error(t, dashboardhttp.RegisterGinRoutes(gin.New(), dashboardhttp.Config{}))
}

func TestSettings_GetDefaults(t *testing.T) {
	r, _ := newRouter(t, "")

	w := do(r, http.MethodGet, "/api/settings", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got dashboardhttp.Settings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, dashboardhttp.DefaultSettings(), got)
}

func TestSettings_Unauthorized(t *testing.T) {
	r, _ := newRouter(t, "secret")

	for _, token := range []string{"", "wrong"} {
		w := do(r, http.MethodGet, "/api/settings", token, "")
		require.Equal(t, http.StatusUnauthorized, w.Code)

		var raw map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
		require.NotContains(t, raw, "validation_errors")
		require.Equal(t, "unauthorized", decodeEnvelope(t, w).Error.Code)
	}

	w := do(r, http.MethodGet, "/api/settings", "secret", "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestSettings_PartialUpdate(t *testing.T) {
	r, store := newRouter(t, "")

	w := do(r, http.MethodPut, "/api/settings", "", `{"routing_strategy":"round_robin","default_reasoning_effort":"high"}`)
	require.Equal(t, http.StatusOK, w.Code)

	want := dashboardhttp.DefaultSettings()
	want.RoutingStrategy = dashboardhttp.RoutingRoundRobin
	want.DefaultReasoningEffort = "high"
	require.Equal(t, want, store.Get())

	w = do(r, http.MethodPut, "/api/settings", "", `{"sticky_threads_enabled":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	want.StickyThreadsEnabled = false
	require.Equal(t, want, store.Get())
}

func TestSettings_ClearReasoningEffort(t *testing.T) {
	r, store := newRouter(t, "")

	w := do(r, http.MethodPut, "/api/settings", "", `{"default_reasoning_effort":"high"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "high", store.Get().DefaultReasoningEffort)

	w = do(r, http.MethodPut, "/api/settings", "", `{"default_reasoning_effort":""}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "", store.Get().DefaultReasoningEffort)

	var got dashboardhttp.Settings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, dashboardhttp.DefaultSettings(), got)
}

func TestSettings_ValidationErrorsInFieldOrder(t *testing.T) {
	r, store := newRouter(t, "")

	w := do(r, http.MethodPut, "/api/settings", "", `{"default_reasoning_effort":"extreme","routing_strategy":"random"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	env := decodeEnvelope(t, w)
	require.Equal(t, "validation_error", env.Error.Code)
	require.Equal(t, []dashboardapi.FieldValidationError{
		{Field: "routing_strategy", Message: "must be one of: usage_weighted, round_robin", Type: "oneof"},
		{Field: "default_reasoning_effort", Message: `must be one of: "", low, medium, high`, Type: "oneof"},
	}, env.ValidationErrors)

	// 校验失败不应修改设置。
	require.Equal(t, dashboardhttp.DefaultSettings(), store.Get())
}

func TestSettings_InvalidJSON(t *testing.T) {
	r, _ := newRouter(t, "")

	w := do(r, http.MethodPut, "/api/settings", "", `{"routing_strategy":`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	require.Equal(t, map[string]any{
		"error": map[string]any{"code": "invalid_json", "message": "request body must be a valid JSON object"},
	}, raw)
}

func TestNoRoute_DashboardNotFound(t *testing.T) {
	r, _ := newRouter(t, "")

	w := do(r, http.MethodGet, "/api/accounts", "", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "not_found", decodeEnvelope(t, w).Error.Code)

	w = do(r, http.MethodGet, "/other", "", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "404 page not found", w.Body.String())
}
