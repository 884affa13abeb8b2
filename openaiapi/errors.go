package openaiapi

import "time"

const (
	// DefaultErrorType 未显式指定 type 时使用。
	DefaultErrorType = "server_error"

	// ResponseFailedEventType 是流式终止失败事件的 type。
	ResponseFailedEventType = "response.failed"
)

// OpenAIErrorDetail OpenAI 错误详情。
// 可选字段只在显式提供时才出现在 JSON 中，不会输出 null 或空字符串占位。
type OpenAIErrorDetail struct {
	Message         string   `json:"message"`
	Type            string   `json:"type"`
	Code            string   `json:"code"`
	Param           string   `json:"param,omitempty"`
	PlanType        string   `json:"plan_type,omitempty"`
	ResetsAt        *float64 `json:"resets_at,omitempty"`
	ResetsInSeconds *float64 `json:"resets_in_seconds,omitempty"`
}

// OpenAIErrorEnvelope OpenAI 错误响应：{"error": {...}}。
type OpenAIErrorEnvelope struct {
	Error OpenAIErrorDetail `json:"error"`
}

// ErrorOption 用于在一次构建中补充 OpenAIErrorDetail 的字段。
type ErrorOption func(*OpenAIErrorDetail)

// WithErrorType 覆盖默认的 "server_error"。空字符串保持默认值。
func WithErrorType(errorType string) ErrorOption {
	return func(d *OpenAIErrorDetail) {
		if errorType != "" {
			d.Type = errorType
		}
	}
}

// WithParam 设置 param；空字符串等同于未提供。
func WithParam(param string) ErrorOption {
	return func(d *OpenAIErrorDetail) {
		d.Param = param
	}
}

// WithPlanType 设置 plan_type；空字符串等同于未提供。
func WithPlanType(planType string) ErrorOption {
	return func(d *OpenAIErrorDetail) {
		d.PlanType = planType
	}
}

// WithResetsAt 设置额度重置时间（epoch 秒）。
func WithResetsAt(resetsAt float64) ErrorOption {
	return func(d *OpenAIErrorDetail) {
		d.ResetsAt = &resetsAt
	}
}

// WithResetsInSeconds 设置距离额度重置的秒数。
func WithResetsInSeconds(seconds float64) ErrorOption {
	return func(d *OpenAIErrorDetail) {
		d.ResetsInSeconds = &seconds
	}
}

// OpenAIError 构建 OpenAI 兼容错误信封。
// 不传 opts 时只包含 message/type/code，type 默认为 "server_error"。
func OpenAIError(code, message string, opts ...ErrorOption) OpenAIErrorEnvelope {
	return OpenAIErrorEnvelope{Error: newErrorDetail(code, message, opts...)}
}

func newErrorDetail(code, message string, opts ...ErrorOption) OpenAIErrorDetail {
	detail := OpenAIErrorDetail{
		Message: message,
		Type:    DefaultErrorType,
		Code:    code,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&detail)
		}
	}
	return detail
}

// ResponseFailedResponse 是 response.failed 事件中的 response 对象。
//
// 注意 incomplete_details 没有 omitempty：未提供时输出 null，
// 这与其它可选字段（id/created_at）缺省即省略的规则不同。
type ResponseFailedResponse struct {
	Object            string            `json:"object"`
	Status            string            `json:"status"`
	Error             OpenAIErrorDetail `json:"error"`
	ID                string            `json:"id,omitempty"`
	CreatedAt         *int64            `json:"created_at,omitempty"`
	IncompleteDetails map[string]string `json:"incomplete_details"`
}

// ResponseFailedEvent 流式 response.failed 事件。
type ResponseFailedEvent struct {
	Type     string                 `json:"type"`
	Response ResponseFailedResponse `json:"response"`
}

// ResponseFailedParams response.failed 事件的输入。
// 除 Code/Message 外均可选：
//   - ErrorType 为空时使用 "server_error"
//   - ResponseID / ErrorParam 为空时对应字段被省略
//   - CreatedAt 为 nil 时取构建时刻
//   - IncompleteDetails 按引用保存，调用方传入后不应再修改
type ResponseFailedParams struct {
	Code              string
	Message           string
	ErrorType         string
	ResponseID        string
	CreatedAt         *int64
	ErrorParam        string
	IncompleteDetails map[string]string
}

// ErrorBuilder 构建需要时间戳的错误事件。
// Now 为 nil 时使用 time.Now；测试中可注入固定时钟。
type ErrorBuilder struct {
	Now func() time.Time
}

func (b ErrorBuilder) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}

// ResponseFailed 构建 response.failed 事件。
func (b ErrorBuilder) ResponseFailed(p ResponseFailedParams) ResponseFailedEvent {
	detail := newErrorDetail(p.Code, p.Message, WithErrorType(p.ErrorType), WithParam(p.ErrorParam))

	createdAt := p.CreatedAt
	if createdAt == nil {
		ts := b.now().Unix()
		createdAt = &ts
	}

	resp := ResponseFailedResponse{
		Object:            "response",
		Status:            "failed",
		Error:             detail,
		IncompleteDetails: p.IncompleteDetails,
	}
	if p.ResponseID != "" {
		resp.ID = p.ResponseID
	}
	if createdAt != nil {
		v := *createdAt
		resp.CreatedAt = &v
	}
	return ResponseFailedEvent{Type: ResponseFailedEventType, Response: resp}
}

// ResponseFailed 使用系统时钟构建 response.failed 事件。
func ResponseFailed(p ResponseFailedParams) ResponseFailedEvent {
	return ErrorBuilder{}.ResponseFailed(p)
}
