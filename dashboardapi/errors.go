package dashboardapi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorDetail 面板错误详情。
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FieldValidationError 描述单个非法输入字段。
type FieldValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ErrorEnvelope 面板错误响应。
type ErrorEnvelope struct {
	Error            ErrorDetail            `json:"error"`
	ValidationErrors []FieldValidationError `json:"validation_errors,omitempty"`
}

// Error 构建面板错误信封。
// validationErrors 为空时不输出 validation_errors 字段；非空时按调用方顺序原样保存（不复制）。
func Error(code, message string, validationErrors ...FieldValidationError) ErrorEnvelope {
	env := ErrorEnvelope{Error: ErrorDetail{Code: code, Message: message}}
	if len(validationErrors) > 0 {
		env.ValidationErrors = validationErrors
	}
	return env
}

// FieldErrorsFromValidator 将 validator.ValidationErrors 转换为面板字段错误，保持校验器报告的顺序。
// err 不是校验错误时返回 nil。
func FieldErrorsFromValidator(err error) []FieldValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return nil
	}

	out := make([]FieldValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldValidationError{
			Field:   fe.Field(),
			Message: fieldErrorMessage(fe),
			Type:    fe.Tag(),
		})
	}
	return out
}

func fieldErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.Join(oneOfValues(fe.Param()), ", "))
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// oneOfValues 拆分 oneof 参数；单引号包裹的值原样保留，空值显示为 "".
func oneOfValues(param string) []string {
	var values []string
	for len(param) > 0 {
		param = strings.TrimLeft(param, " ")
		if param == "" {
			break
		}
		var v string
		if param[0] == '\'' {
			end := strings.IndexByte(param[1:], '\'')
			if end < 0 {
				v, param = param[1:], ""
			} else {
				v, param = param[1:end+1], param[end+2:]
			}
			if v == "" {
				v = `""`
			}
		} else {
			v, param, _ = strings.Cut(param, " ")
		}
		values = append(values, v)
	}
	return values
}
