package openaihttp

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/LubyRuffy/gptlb"
	"github.com/LubyRuffy/gptlb/openaiapi"
)

// Handlers 返回 /models 与 /responses 的 net/http handler。
func Handlers(cfg Config) (modelsHandler http.HandlerFunc, responsesHandler http.HandlerFunc, err error) {
	resolved, err := resolveConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	return newModelsHandler(resolved), newResponsesHandler(resolved), nil
}

func newModelsHandler(cfg resolvedConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeOpenAIError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		presetModels := gptlb.PresetModels()
		modelsList := make([]openaiapi.OpenAIModel, 0, len(presetModels))
		now := cfg.Now().Unix()
		for _, m := range presetModels {
			modelsList = append(modelsList, openaiapi.OpenAIModel{
				ID:      m.ID,
				Object:  "model",
				Created: now,
				OwnedBy: "chatgpt-backend",
			})
		}

		writeJSON(w, openaiapi.OpenAIModelList{
			Object: "list",
			Data:   modelsList,
		})
	}
}

type resolvedConfig struct {
	BasePath               string
	BackendURL             string
	HTTPClient             *http.Client
	AuthProvider           AuthProvider
	Originator             string
	DefaultReasoningEffort func() string
	Now                    func() time.Time
	Logger                 *slog.Logger
}

func resolveConfig(cfg Config) (resolvedConfig, error) {
	if cfg.AuthProvider == nil {
		return resolvedConfig{}, fmt.Errorf("AuthProvider is required")
	}

	backendURL := strings.TrimSpace(cfg.BackendURL)
	if backendURL == "" {
		backendURL = gptlb.DefaultBackendURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	originator := strings.TrimSpace(cfg.Originator)
	if originator == "" {
		originator = gptlb.DefaultOriginator
	}

	staticEffort, err := ParseReasoningEffort(cfg.ReasoningEffort)
	if err != nil {
		return resolvedConfig{}, fmt.Errorf("invalid ReasoningEffort: %w", err)
	}
	defaultEffort := cfg.DefaultReasoningEffort
	if defaultEffort == nil {
		defaultEffort = func() string { return staticEffort }
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return resolvedConfig{
		BasePath:               normalizeBasePath(cfg.BasePath),
		BackendURL:             backendURL,
		HTTPClient:             client,
		AuthProvider:           cfg.AuthProvider,
		Originator:             originator,
		DefaultReasoningEffort: defaultEffort,
		Now:                    now,
		Logger:                 logger.With("component", "openaihttp"),
	}, nil
}
