package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/LubyRuffy/gptlb/auth"
	"github.com/LubyRuffy/gptlb/dashboardhttp"
	"github.com/LubyRuffy/gptlb/openaihttp"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	slogGin "github.com/samber/slog-gin"
)

func main() {
	// .env 不存在时忽略；已存在的环境变量优先。
	_ = godotenv.Load()

	var (
		listen          = flag.String("listen", envOr("GPTLB_LISTEN", "127.0.0.1:8080"), "listen address")
		basePath        = flag.String("base-path", envOr("GPTLB_BASE_PATH", "/v1"), "base path prefix")
		backendURL      = flag.String("backend-url", envOr("GPTLB_BACKEND_URL", ""), "chatgpt backend responses url (default: https://chatgpt.com/backend-api/codex/responses)")
		authSource      = flag.String("auth-source", envOr("GPTLB_AUTH_SOURCE", "codex"), "auth source: codex|opencode|env|auto")
		originator      = flag.String("originator", envOr("GPTLB_ORIGINATOR", ""), "Originator/User-Agent header (default: codex_cli_rs)")
		reasoningEffort = flag.String("reasoning-effort", envOr("GPTLB_REASONING_EFFORT", ""), "default reasoning effort: low|medium|high")
		adminToken      = flag.String("admin-token", envOr("GPTLB_ADMIN_TOKEN", ""), "bearer token required by /api/* (empty: no auth)")
		debug           = flag.Bool("debug", os.Getenv("GPTLB_DEBUG") != "", "enable debug logging")
	)
	flag.Parse()

	logger := newLogger(*debug)
	slog.SetDefault(logger)

	if err := run(logger, serverOptions{
		Listen:          *listen,
		BasePath:        *basePath,
		BackendURL:      *backendURL,
		AuthSource:      *authSource,
		Originator:      *originator,
		ReasoningEffort: *reasoningEffort,
		AdminToken:      *adminToken,
	}); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

type serverOptions struct {
	Listen          string
	BasePath        string
	BackendURL      string
	AuthSource      string
	Originator      string
	ReasoningEffort string
	AdminToken      string

	// HTTPClient 可选，用于访问后端。
	HTTPClient *http.Client
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	}))
}

func newRouter(logger *slog.Logger, opts serverOptions, provider auth.Provider) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(slogGin.NewWithConfig(logger.WithGroup("http"), slogGin.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
		WithRequestID:    true,
	}), gin.Recovery())

	effort, err := openaihttp.ParseReasoningEffort(opts.ReasoningEffort)
	if err != nil {
		return nil, fmt.Errorf("invalid reasoning-effort: %w", err)
	}
	settings := dashboardhttp.DefaultSettings()
	settings.DefaultReasoningEffort = effort
	store := dashboardhttp.NewSettingsStore(settings)

	// 默认 reasoning effort 以面板设置为准，启动参数只作为初始值。
	if err := openaihttp.RegisterGinRoutes(r, openaihttp.Config{
		BasePath:     opts.BasePath,
		BackendURL:   opts.BackendURL,
		HTTPClient:   opts.HTTPClient,
		Originator:   opts.Originator,
		Logger:       logger,
		AuthProvider: provider.Auth,
		DefaultReasoningEffort: func() string {
			return store.Get().DefaultReasoningEffort
		},
	}); err != nil {
		return nil, fmt.Errorf("register openai routes: %w", err)
	}

	if err := dashboardhttp.RegisterGinRoutes(r, dashboardhttp.Config{
		AdminToken: opts.AdminToken,
		Store:      store,
		Logger:     logger,
	}); err != nil {
		return nil, fmt.Errorf("register dashboard routes: %w", err)
	}

	r.NoRoute(openaihttp.NoRouteHandler(opts.BasePath, dashboardhttp.NoRouteHandler(nil)))
	return r, nil
}

func run(logger *slog.Logger, opts serverOptions) error {
	provider, err := auth.NewProvider(opts.AuthSource)
	if err != nil {
		return fmt.Errorf("invalid auth-source: %w", err)
	}

	r, err := newRouter(logger, opts, provider)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              opts.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	clientAddr := addrForLocalClient(opts.Listen)
	logger.Info("gptlb server listening", "url", fmt.Sprintf("http://%s%s", opts.Listen, opts.BasePath))
	logger.Info("try", "cmd", fmt.Sprintf("curl http://%s%s/models", clientAddr, opts.BasePath))
	logger.Info("OpenAI SDK", "base_url", fmt.Sprintf("http://%s%s", clientAddr, opts.BasePath))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// addrForLocalClient 把监听地址转换为本机客户端可以直接访问的地址（用于日志提示）。
func addrForLocalClient(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
