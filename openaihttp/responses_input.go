package openaihttp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

const defaultCodexInstructions = "You are a helpful assistant."

type responseInputMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type backendInputItem struct {
	Type    string `json:"type"`
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

func mergeInstructions(a, b string) string {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + "\n\n" + b
}

func normalizeUndefinedString(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ""
	}
	switch strings.ToLower(trimmed) {
	case "[undefined]", "undefined", "[null]", "null":
		return ""
	default:
		return trimmed
	}
}

var reasoningEfforts = []string{"low", "medium", "high"}

// ParseReasoningEffort 归一化 reasoning.effort。空值与 "[undefined]" 等占位符返回 ""，
// 其它取值必须是 low/medium/high 之一。
func ParseReasoningEffort(s string) (string, error) {
	effort := strings.ToLower(normalizeUndefinedString(s))
	if effort == "" || slices.Contains(reasoningEfforts, effort) {
		return effort, nil
	}
	return "", fmt.Errorf("unsupported reasoning effort %q, must be one of: %s", strings.TrimSpace(s), strings.Join(reasoningEfforts, ", "))
}

// parseResponsesInput 把 input（字符串或消息数组）转换为后端 input 列表，
// system/developer 消息合并为 instructions 返回。出错时返回 param 为 "input" 的 requestError。
func parseResponsesInput(raw json.RawMessage) ([]backendInputItem, string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, "", newRequestError("input", "input is required")
	}

	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return nil, "", newRequestError("input", "invalid input")
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, "", newRequestError("input", "input is required")
		}
		return []backendInputItem{{Type: "message", Role: "user", Content: text}}, "", nil
	case '[':
		var messages []responseInputMessage
		if err := json.Unmarshal(trimmed, &messages); err != nil {
			return nil, "", newRequestError("input", "invalid input")
		}
		if len(messages) == 0 {
			return nil, "", newRequestError("input", "input is required")
		}

		var (
			items        []backendInputItem
			instructions string
		)
		for i, msg := range messages {
			role := strings.TrimSpace(msg.Role)
			if role == "" {
				return nil, "", newRequestError(fmt.Sprintf("input[%d].role", i), "message role is required")
			}
			content, err := contentToText(msg.Content)
			if err != nil {
				return nil, "", newRequestError(fmt.Sprintf("input[%d].content", i), err.Error())
			}
			content = strings.TrimSpace(content)
			if content == "" {
				continue
			}

			switch role {
			case "system", "developer":
				instructions = mergeInstructions(instructions, content)
			default:
				items = append(items, backendInputItem{Type: "message", Role: role, Content: content})
			}
		}

		if len(items) == 0 {
			return nil, "", newRequestError("input", "no valid input messages to send")
		}
		return items, instructions, nil
	default:
		return nil, "", newRequestError("input", "unsupported input type")
	}
}

func contentToText(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}

	var text string
	if err := json.Unmarshal(trimmed, &text); err == nil {
		return text, nil
	}

	var parts []any
	if err := json.Unmarshal(trimmed, &parts); err != nil {
		return "", fmt.Errorf("unsupported message content")
	}

	var builder strings.Builder
	for _, p := range parts {
		part, ok := p.(map[string]any)
		if !ok {
			continue
		}
		partType, _ := part["type"].(string)
		if partType != "text" && partType != "input_text" && partType != "output_text" {
			continue
		}
		if textValue, ok := part["text"].(string); ok {
			builder.WriteString(textValue)
			continue
		}
		if textObj, ok := part["text"].(map[string]any); ok {
			if value, ok := textObj["value"].(string); ok {
				builder.WriteString(value)
			}
		}
	}
	return builder.String(), nil
}
