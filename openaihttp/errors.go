package openaihttp

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/LubyRuffy/gptlb/openaiapi"
)

// requestError 表示客户端请求中某个字段非法，写出时带上 param。
type requestError struct {
	param   string
	message string
}

func (e *requestError) Error() string { return e.message }

func newRequestError(param, message string) error {
	return &requestError{param: param, message: message}
}

// upstreamError 后端返回的错误，保留其 code/type 以及限流相关字段。
type upstreamError struct {
	status          int
	code            string
	errType         string
	message         string
	param           string
	planType        string
	resetsAt        *float64
	resetsInSeconds *float64
}

func (e *upstreamError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.message) != "" {
		return e.message
	}
	return "backend request failed"
}

// codeAndType 补齐缺省的 code/type：优先使用后端给出的值，其次按状态码取默认值。
func (e *upstreamError) codeAndType() (code, errType string) {
	defType, defCode := errorTypeAndCode(e.status)
	code = strings.TrimSpace(e.code)
	if code == "" {
		// Codex 的额度错误只给 type（例如 usage_limit_reached），此时用它作为 code。
		code = strings.TrimSpace(e.errType)
	}
	if code == "" {
		code = defCode
	}
	errType = strings.TrimSpace(e.errType)
	if errType == "" {
		errType = defType
	}
	return code, errType
}

func (e *upstreamError) envelope() openaiapi.OpenAIErrorEnvelope {
	code, errType := e.codeAndType()
	opts := []openaiapi.ErrorOption{
		openaiapi.WithErrorType(errType),
		openaiapi.WithParam(e.param),
		openaiapi.WithPlanType(e.planType),
	}
	if e.resetsAt != nil {
		opts = append(opts, openaiapi.WithResetsAt(*e.resetsAt))
	}
	if e.resetsInSeconds != nil {
		opts = append(opts, openaiapi.WithResetsInSeconds(*e.resetsInSeconds))
	}
	return openaiapi.OpenAIError(code, e.Error(), opts...)
}

type wireErrorFields struct {
	Message         string          `json:"message"`
	Type            string          `json:"type"`
	Code            json.RawMessage `json:"code"`
	Param           json.RawMessage `json:"param"`
	PlanType        string          `json:"plan_type"`
	ResetsAt        *float64        `json:"resets_at"`
	ResetsInSeconds *float64        `json:"resets_in_seconds"`
}

// parseUpstreamErrorBody 解析后端非 2xx 响应体。
// 支持 {"error": {...}}、{"detail": "..."} 以及纯文本。
func parseUpstreamErrorBody(status int, body []byte) *upstreamError {
	if status >= http.StatusInternalServerError {
		status = http.StatusBadGateway
	}
	e := &upstreamError{status: status}

	trimmed := bytes.TrimSpace(body)
	var envelope struct {
		Error  *wireErrorFields `json:"error"`
		Detail json.RawMessage  `json:"detail"`
	}
	if len(trimmed) == 0 || json.Unmarshal(trimmed, &envelope) != nil {
		e.message = string(trimmed)
		return e
	}

	switch {
	case envelope.Error != nil:
		e.fill(envelope.Error)
	case len(envelope.Detail) > 0:
		var detail string
		if json.Unmarshal(envelope.Detail, &detail) == nil {
			e.message = detail
		} else {
			e.message = string(bytes.TrimSpace(envelope.Detail))
		}
	default:
		e.message = string(trimmed)
	}
	return e
}

// parseEventError 从 response.failed / error 流事件中取出错误详情。
func parseEventError(payload []byte) *upstreamError {
	e := &upstreamError{status: http.StatusBadGateway}

	var event struct {
		wireErrorFields
		Error    *wireErrorFields `json:"error"`
		Response *struct {
			Error *wireErrorFields `json:"error"`
		} `json:"response"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return e
	}

	switch {
	case event.Response != nil && event.Response.Error != nil:
		e.fill(event.Response.Error)
	case event.Error != nil:
		e.fill(event.Error)
	default:
		e.fill(&event.wireErrorFields)
	}
	// 顶层 type 是事件类型，不是错误类型。
	if e.errType == "error" || strings.HasPrefix(e.errType, "response.") {
		e.errType = ""
	}
	return e
}

func (e *upstreamError) fill(f *wireErrorFields) {
	e.message = strings.TrimSpace(f.Message)
	e.errType = strings.TrimSpace(f.Type)
	e.code = rawString(f.Code)
	e.param = rawString(f.Param)
	e.planType = strings.TrimSpace(f.PlanType)
	e.resetsAt = f.ResetsAt
	e.resetsInSeconds = f.ResetsInSeconds
}

// rawString 读取可能为字符串、数字或 null 的字段。
func rawString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(trimmed)
}
