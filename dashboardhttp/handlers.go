package dashboardhttp

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/LubyRuffy/gptlb/dashboardapi"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const apiPrefix = "/api"

type Config struct {
	// AdminToken 非空时要求请求携带 Authorization: Bearer <AdminToken>。
	AdminToken string
	// Store 必填。
	Store *SettingsStore
	// Logger 可选，nil 时使用 slog.Default()。
	Logger *slog.Logger
}

type handler struct {
	store    *SettingsStore
	validate *validator.Validate
	logger   *slog.Logger
}

func RegisterGinRoutes(r gin.IRouter, cfg Config) error {
	if r == nil {
		return fmt.Errorf("router is nil")
	}
	if cfg.Store == nil {
		return fmt.Errorf("Store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &handler{
		store:    cfg.Store,
		validate: newValidator(),
		logger:   logger.With("component", "dashboardhttp"),
	}

	g := r.Group(apiPrefix, requireAdmin(cfg.AdminToken))
	g.GET("/settings", h.getSettings)
	g.PUT("/settings", h.putSettings)
	return nil
}

// NoRouteHandler 对 /api 之下未注册的路径返回面板风格的 404，其它路径交给 next（可为 nil）。
func NoRouteHandler(next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if p == apiPrefix || strings.HasPrefix(p, apiPrefix+"/") {
			c.AbortWithStatusJSON(http.StatusNotFound, dashboardapi.Error("not_found", fmt.Sprintf("unknown path: %s", p)))
			return
		}
		if next != nil {
			next(c)
		}
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 校验错误使用 JSON 字段名，与前端提交的字段一致。
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func requireAdmin(token string) gin.HandlerFunc {
	token = strings.TrimSpace(token)
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dashboardapi.Error("unauthorized", "admin token is missing or invalid"))
			return
		}
		c.Next()
	}
}

func (h *handler) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Get())
}

func (h *handler) putSettings(c *gin.Context) {
	var req settingsUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dashboardapi.Error("invalid_json", "request body must be a valid JSON object"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		fieldErrs := dashboardapi.FieldErrorsFromValidator(err)
		if len(fieldErrs) == 0 {
			h.logger.Error("validate settings failed", "error", err)
			c.JSON(http.StatusInternalServerError, dashboardapi.Error("internal_error", "failed to validate settings"))
			return
		}
		c.JSON(http.StatusBadRequest, dashboardapi.Error("validation_error", "invalid settings", fieldErrs...))
		return
	}

	updated := h.store.update(req)
	h.logger.Info("settings updated",
		"routing_strategy", updated.RoutingStrategy,
		"sticky_threads_enabled", updated.StickyThreadsEnabled,
		"prefer_earlier_reset_accounts", updated.PreferEarlierResetAccounts,
		"default_reasoning_effort", updated.DefaultReasoningEffort,
	)
	c.JSON(http.StatusOK, updated)
}
