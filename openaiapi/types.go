package openaiapi

import (
	"strings"

	"github.com/google/uuid"
)

// OpenAIModel OpenAI 模型信息。
type OpenAIModel struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// OpenAIModelList OpenAI 模型列表响应。
type OpenAIModelList struct {
	Object string        `json:"object"`
	Data   []OpenAIModel `json:"data"`
}

// NewRequestID 生成转发到后端的请求 ID。
func NewRequestID() string {
	return "req_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}
