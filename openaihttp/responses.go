package openaihttp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/LubyRuffy/gptlb"
	"github.com/LubyRuffy/gptlb/auth"
	"github.com/LubyRuffy/gptlb/openaiapi"
)

const (
	maxBackendErrBytes  = 8 << 10
	sseContentTypeValue = "text/event-stream"

	// codeStreamDisconnected 后端流在终止事件之前结束时，合成的 response.failed 使用该 code。
	codeStreamDisconnected = "stream_disconnected"
)

type responsesRequest struct {
	Model        string             `json:"model"`
	Input        json.RawMessage    `json:"input"`
	Stream       bool               `json:"stream"`
	Tools        []json.RawMessage  `json:"tools,omitempty"`
	Instructions string             `json:"instructions,omitempty"`
	Reasoning    responsesReasoning `json:"reasoning,omitempty"`
}

type responsesReasoning struct {
	Effort string `json:"effort,omitempty"`
}

type backendResponsesPayload struct {
	Model        string              `json:"model"`
	Input        []backendInputItem  `json:"input"`
	Instructions string              `json:"instructions,omitempty"`
	Reasoning    *responsesReasoning `json:"reasoning,omitempty"`
	Tools        []json.RawMessage   `json:"tools,omitempty"`
	Store        bool                `json:"store"`
	Stream       bool                `json:"stream"`
}

type responsesEndpoint struct {
	cfg     resolvedConfig
	builder openaiapi.ErrorBuilder
}

func newResponsesHandler(cfg resolvedConfig) http.HandlerFunc {
	h := &responsesEndpoint{cfg: cfg, builder: openaiapi.ErrorBuilder{Now: cfg.Now}}
	return h.serveHTTP
}

func (h *responsesEndpoint) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeOpenAIError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req responsesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOpenAIError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Model = strings.TrimSpace(req.Model)
	if req.Model == "" {
		writeOpenAIError(w, http.StatusBadRequest, "model is required", openaiapi.WithParam("model"))
		return
	}
	if !gptlb.IsSupportedModelID(req.Model) {
		writeOpenAIError(w, http.StatusBadRequest, "unsupported model", openaiapi.WithParam("model"))
		return
	}

	inputItems, systemInstructions, err := parseResponsesInput(req.Input)
	if err != nil {
		var reqErr *requestError
		if errors.As(err, &reqErr) {
			writeOpenAIError(w, http.StatusBadRequest, reqErr.message, openaiapi.WithParam(reqErr.param))
			return
		}
		writeOpenAIError(w, http.StatusBadRequest, err.Error())
		return
	}

	instructions := mergeInstructions(normalizeUndefinedString(req.Instructions), normalizeUndefinedString(systemInstructions))
	if instructions == "" {
		// ChatGPT backend `/backend-api/codex/responses` 在某些情况下会要求 instructions 字段存在且为有效值，
		// 即使调用方没有显式提供（例如 CLI curl 直接请求）。
		// 同时部分客户端会把未定义字段序列化为 "[undefined]"，这里统一清洗并补默认值。
		instructions = defaultCodexInstructions
	}
	effort, err := ParseReasoningEffort(req.Reasoning.Effort)
	if err != nil {
		writeOpenAIError(w, http.StatusBadRequest, err.Error(), openaiapi.WithParam("reasoning.effort"))
		return
	}
	if effort == "" {
		effort = h.defaultReasoningEffort()
	}

	creds, err := h.cfg.AuthProvider(r.Context())
	if err != nil {
		h.cfg.Logger.Warn("auth provider failed", "error", err)
		writeOpenAIError(w, http.StatusServiceUnavailable, "auth not available")
		return
	}

	requestID := openaiapi.NewRequestID()
	w.Header().Set("X-Request-Id", requestID)
	logger := h.cfg.Logger.With("request_id", requestID, "model", req.Model, "stream", req.Stream)

	payload := backendResponsesPayload{
		Model:        gptlb.NormalizeModelID(req.Model),
		Input:        inputItems,
		Instructions: instructions,
		Reasoning:    reasoningOrNil(effort),
		Tools:        req.Tools,
		Store:        false,
		Stream:       true,
	}

	resp, err := h.doBackendRequest(r.Context(), creds, requestID, payload)
	if err != nil {
		var upErr *upstreamError
		if errors.As(err, &upErr) {
			if upErr.status == http.StatusTooManyRequests && upErr.planType == "" {
				upErr.planType = creds.PlanType
			}
			logger.Warn("backend returned error", "status", upErr.status, "message", upErr.Error())
			writeErrorEnvelope(w, upErr.status, upErr.envelope())
			return
		}
		logger.Error("backend request failed", "error", err)
		writeOpenAIError(w, http.StatusBadGateway, err.Error())
		return
	}
	defer resp.Body.Close()

	if req.Stream {
		if err := h.writeResponsesStream(r.Context(), w, resp.Body, logger); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("responses stream ended with error", "error", err)
		}
		return
	}

	completedResp, err := readCompletedResponse(r.Context(), resp.Body)
	if err != nil {
		var upErr *upstreamError
		if errors.As(err, &upErr) {
			logger.Warn("backend response failed", "message", upErr.Error())
			writeErrorEnvelope(w, upErr.status, upErr.envelope())
			return
		}
		logger.Error("read backend response failed", "error", err)
		writeOpenAIError(w, http.StatusBadGateway, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(completedResp)
}

func (h *responsesEndpoint) doBackendRequest(
	ctx context.Context,
	creds auth.Credentials,
	requestID string,
	payload backendResponsesPayload,
) (*http.Response, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode backend request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.cfg.BackendURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to build backend request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", creds.AccessToken))
	if strings.TrimSpace(creds.AccountID) != "" {
		req.Header.Set("ChatGPT-Account-Id", creds.AccountID)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Originator", h.cfg.Originator)
	req.Header.Set("User-Agent", h.cfg.Originator)
	req.Header.Set("Accept", sseContentTypeValue)
	req.Header.Set("X-Request-Id", requestID)

	resp, err := h.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBackendErrBytes))
		return nil, parseUpstreamErrorBody(resp.StatusCode, body)
	}
	return resp, nil
}

// defaultReasoningEffort 读取当前的默认 effort；取值非法时忽略并记录日志。
func (h *responsesEndpoint) defaultReasoningEffort() string {
	effort, err := ParseReasoningEffort(h.cfg.DefaultReasoningEffort())
	if err != nil {
		h.cfg.Logger.Warn("ignoring default reasoning effort", "error", err)
		return ""
	}
	return effort
}

func reasoningOrNil(effort string) *responsesReasoning {
	if effort == "" {
		return nil
	}
	return &responsesReasoning{Effort: effort}
}

// streamRelay 转发后端 SSE 事件，并保证客户端最终收到一个终止事件。
type streamRelay struct {
	w       io.Writer
	flusher http.Flusher
	builder openaiapi.ErrorBuilder
	logger  *slog.Logger

	responseID string
	createdAt  *int64
	terminal   bool
}

func (h *responsesEndpoint) writeResponsesStream(ctx context.Context, w http.ResponseWriter, body io.Reader, logger *slog.Logger) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeOpenAIError(w, http.StatusInternalServerError, "streaming not supported")
		return fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", sseContentTypeValue)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	relay := &streamRelay{w: w, flusher: flusher, builder: h.builder, logger: logger}
	reader := bufio.NewReader(body)
	var dataLines []string

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				if data, ok := sseData(strings.TrimRight(line, "\r\n")); ok && data != "[DONE]" {
					dataLines = append(dataLines, data)
				}
				relay.dispatch(dataLines)
				return relay.finish(nil)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			relay.dispatch(dataLines)
			return relay.finish(err)
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if len(dataLines) == 0 {
				continue
			}
			relay.dispatch(dataLines)
			if relay.terminal {
				// 终止事件之后的内容不再转发。
				return nil
			}
			dataLines = dataLines[:0]
			continue
		}

		if data, ok := sseData(line); ok {
			if data == "[DONE]" {
				relay.dispatch(dataLines)
				return relay.finish(nil)
			}
			dataLines = append(dataLines, data)
		}
	}
}

func sseData(line string) (string, bool) {
	if !strings.HasPrefix(line, "data:") {
		return "", false
	}
	data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
	return data, data != ""
}

// dispatch 处理一个完整的 SSE 事件（可能由多行 data 组成）。
func (s *streamRelay) dispatch(dataLines []string) {
	if len(dataLines) == 0 || s.terminal {
		return
	}

	payload := strings.Join(dataLines, "\n")
	var envelope struct {
		Type     string `json:"type"`
		Response *struct {
			ID        string   `json:"id"`
			CreatedAt *float64 `json:"created_at"`
		} `json:"response"`
	}
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		return
	}
	eventType := strings.TrimSpace(envelope.Type)
	if eventType == "" {
		return
	}

	if envelope.Response != nil {
		if id := strings.TrimSpace(envelope.Response.ID); id != "" {
			s.responseID = id
		}
		if envelope.Response.CreatedAt != nil {
			ts := int64(*envelope.Response.CreatedAt)
			s.createdAt = &ts
		}
	}

	switch eventType {
	case "error":
		// 后端的 error 事件统一转换为 response.failed，客户端只需处理一种终止失败事件。
		upErr := parseEventError([]byte(payload))
		if strings.TrimSpace(upErr.message) == "" {
			upErr.message = "backend response error"
		}
		code, errType := upErr.codeAndType()
		s.writeFailed(openaiapi.ResponseFailedParams{
			Code:       code,
			Message:    upErr.Error(),
			ErrorType:  errType,
			ErrorParam: upErr.param,
		})
		return
	case "response.completed", "response.incomplete", openaiapi.ResponseFailedEventType:
		s.terminal = true
	}

	s.writeLines(eventType, dataLines)
}

// finish 在流结束时调用；若尚未出现终止事件，补发一个 response.failed。
func (s *streamRelay) finish(readErr error) error {
	if s.terminal {
		return readErr
	}

	message := "upstream stream ended before the response completed"
	if readErr != nil {
		message = fmt.Sprintf("upstream stream read failed: %v", readErr)
	}
	s.logger.Warn("synthesizing response.failed", "response_id", s.responseID, "reason", message)
	s.writeFailed(openaiapi.ResponseFailedParams{
		Code:    codeStreamDisconnected,
		Message: message,
	})
	return readErr
}

func (s *streamRelay) writeFailed(p openaiapi.ResponseFailedParams) {
	p.ResponseID = s.responseID
	p.CreatedAt = s.createdAt
	ev := s.builder.ResponseFailed(p)

	data, err := json.Marshal(ev)
	if err != nil {
		s.logger.Error("encode response.failed failed", "error", err)
		return
	}
	s.terminal = true
	s.writeLines(ev.Type, []string{string(data)})
}

func (s *streamRelay) writeLines(eventType string, dataLines []string) {
	_, _ = fmt.Fprintf(s.w, "event: %s\n", eventType)
	for _, line := range dataLines {
		_, _ = fmt.Fprintf(s.w, "data: %s\n", line)
	}
	_, _ = fmt.Fprint(s.w, "\n")
	s.flusher.Flush()
}

func readCompletedResponse(ctx context.Context, body io.Reader) ([]byte, error) {
	reader := bufio.NewReader(body)
	var dataLines []string
	var completed json.RawMessage

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(dataLines) > 0 {
					if err := captureCompletedEvent(dataLines, &completed); err != nil {
						return nil, err
					}
				}
				break
			}
			return nil, err
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if len(dataLines) == 0 {
				continue
			}
			if err := captureCompletedEvent(dataLines, &completed); err != nil {
				return nil, err
			}
			if len(completed) > 0 {
				return completed, nil
			}
			dataLines = dataLines[:0]
			continue
		}

		if data, ok := sseData(line); ok {
			if data == "[DONE]" {
				break
			}
			dataLines = append(dataLines, data)
		}
	}

	if len(completed) == 0 {
		return nil, fmt.Errorf("missing response.completed.response from backend stream")
	}
	return completed, nil
}

func captureCompletedEvent(dataLines []string, completed *json.RawMessage) error {
	if len(dataLines) == 0 || completed == nil || len(*completed) > 0 {
		return nil
	}
	payload := strings.Join(dataLines, "\n")

	var envelope struct {
		Type     string          `json:"type"`
		Response json.RawMessage `json:"response"`
	}
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		return nil
	}

	switch strings.TrimSpace(envelope.Type) {
	case "response.completed", "response.incomplete":
		if len(envelope.Response) == 0 || bytes.Equal(bytes.TrimSpace(envelope.Response), []byte("null")) {
			return fmt.Errorf("%s without response field", envelope.Type)
		}
		*completed = envelope.Response
	case openaiapi.ResponseFailedEventType, "error":
		upErr := parseEventError([]byte(payload))
		if strings.TrimSpace(upErr.message) == "" {
			upErr.message = "backend response error"
		}
		return upErr
	}
	return nil
}
