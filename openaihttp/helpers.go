package openaihttp

import (
	"encoding/json"
	"net/http"
	"path"
	"strings"

	"github.com/LubyRuffy/gptlb/openaiapi"
)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

// errorTypeAndCode 返回 HTTP 状态码对应的默认 OpenAI error type 与 code。
func errorTypeAndCode(statusCode int) (errType, code string) {
	switch statusCode {
	case http.StatusBadRequest:
		return "invalid_request_error", "invalid_request"
	case http.StatusUnauthorized:
		return "authentication_error", "invalid_api_key"
	case http.StatusNotFound:
		return "not_found_error", "not_found"
	case http.StatusMethodNotAllowed:
		return "invalid_request_error", "method_not_allowed"
	case http.StatusTooManyRequests:
		return "rate_limit_error", "rate_limit_exceeded"
	case http.StatusServiceUnavailable:
		return "service_unavailable_error", "service_unavailable"
	default:
		return openaiapi.DefaultErrorType, "server_error"
	}
}

func writeOpenAIError(w http.ResponseWriter, statusCode int, message string, opts ...openaiapi.ErrorOption) {
	errType, code := errorTypeAndCode(statusCode)
	opts = append([]openaiapi.ErrorOption{openaiapi.WithErrorType(errType)}, opts...)
	writeErrorEnvelope(w, statusCode, openaiapi.OpenAIError(code, message, opts...))
}

func writeErrorEnvelope(w http.ResponseWriter, statusCode int, env openaiapi.OpenAIErrorEnvelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(env)
}

func normalizeBasePath(basePath string) string {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	basePath = strings.TrimRight(basePath, "/")
	if basePath == "" {
		return "/"
	}
	return basePath
}

func joinPath(basePath, suffix string) string {
	basePath = normalizeBasePath(basePath)
	if suffix == "" {
		return basePath
	}
	if !strings.HasPrefix(suffix, "/") {
		suffix = "/" + suffix
	}
	// path.Join 会清理重复的 /，并保证结果以 / 开头
	return path.Join(basePath, suffix)
}
