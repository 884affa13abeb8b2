package openaihttp_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LubyRuffy/gptlb"
	"github.com/LubyRuffy/gptlb/openaihttp"
	"github.com/stretchr/testify/require"
)

type sseEvent struct {
	Event string
	Data  string
}

func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var (
		events []sseEvent
		cur    sseEvent
	)
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if cur.Event != "" || cur.Data != "" {
				events = append(events, cur)
			}
			cur = sseEvent{}
		case strings.HasPrefix(line, "event: "):
			cur.Event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.Data += strings.TrimPrefix(line, "data: ")
		}
	}
	require.NoError(t, scanner.Err())
	return events
}

func streamFrom(t *testing.T, backendBody string, now time.Time) string {
	t.Helper()
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, backendBody)
	}))
	t.Cleanup(backend.Close)

	_, responsesHandler, err := openaihttp.Handlers(openaihttp.Config{
		BackendURL:   backend.URL,
		HTTPClient:   backend.Client(),
		AuthProvider: staticAuth(testCreds),
		Now:          func() time.Time { return now },
	})
	require.NoError(t, err)

	reqBody := []byte(fmt.Sprintf(`{"model":%q,"input":"hi","stream":true}`, gptlb.DefaultModelFullID))
	w := httptest.NewRecorder()
	responsesHandler(w, httptest.NewRequest(http.MethodPost, "/v1/responses", bytes.NewReader(reqBody)))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	return w.Body.String()
}

func lastEvent(t *testing.T, events []sseEvent) (sseEvent, map[string]any) {
	t.Helper()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(last.Data), &payload))
	return last, payload
}

func TestResponses_StreamTrue_OfficialSSE_NoDONE(t *testing.T) {
	out := streamFrom(t,
		"data: {\"type\":\"response.output_text.delta\",\"delta\":\"hello\"}\n\n"+
			"data: {\"type\":\"response.completed\",\"response\":{\"id\":\"resp_1\",\"object\":\"response\",\"model\":\"gpt-5.1\"}}\n\n"+
			"data: [DONE]\n\n",
		time.Now())

	require.Contains(t, out, "event: response.output_text.delta\n")
	require.Contains(t, out, "data: {\"type\":\"response.output_text.delta\",\"delta\":\"hello\"}\n")
	require.Contains(t, out, "event: response.completed\n")
	require.NotContains(t, out, "data: [DONE]\n")
	require.NotContains(t, out, "response.failed")
}

func TestResponses_StreamTrue_ErrorEventConvertedToResponseFailed(t *testing.T) {
	out := streamFrom(t,
		"data: {\"type\":\"response.created\",\"response\":{\"id\":\"resp_42\",\"created_at\":1700000000}}\n\n"+
			"data: {\"type\":\"error\",\"code\":\"invalid_prompt\",\"message\":\"bad prompt\",\"param\":\"input\"}\n\n",
		time.Unix(1800000000, 0))

	events := parseSSE(t, out)
	require.Len(t, events, 2)
	require.Equal(t, "response.created", events[0].Event)

	last, payload := lastEvent(t, events)
	require.Equal(t, "response.failed", last.Event)
	require.Equal(t, map[string]any{
		"type": "response.failed",
		"response": map[string]any{
			"object": "response",
			"status": "failed",
			"error": map[string]any{
				"message": "bad prompt",
				"type":    "server_error",
				"code":    "invalid_prompt",
				"param":   "input",
			},
			"id":                 "resp_42",
			"created_at":         float64(1700000000),
			"incomplete_details": nil,
		},
	}, payload)
}

func TestResponses_StreamTrue_TruncatedStreamSynthesizesFailure(t *testing.T) {
	out := streamFrom(t,
		"data: {\"type\":\"response.created\",\"response\":{\"id\":\"resp_7\"}}\n\n"+
			"data: {\"type\":\"response.output_text.delta\",\"delta\":\"partial\"}\n\n",
		time.Unix(1800000000, 0))

	events := parseSSE(t, out)
	require.Len(t, events, 3)

	last, payload := lastEvent(t, events)
	require.Equal(t, "response.failed", last.Event)

	resp := payload["response"].(map[string]any)
	require.Equal(t, "resp_7", resp["id"])
	// 后端未给出 created_at 时使用注入的时钟。
	require.Equal(t, float64(1800000000), resp["created_at"])
	require.Contains(t, resp, "incomplete_details")
	require.Nil(t, resp["incomplete_details"])

	errDetail := resp["error"].(map[string]any)
	require.Equal(t, "stream_disconnected", errDetail["code"])
	require.Equal(t, "server_error", errDetail["type"])
	require.NotContains(t, errDetail, "param")
}

func TestResponses_StreamTrue_DoneWithoutTerminalEvent(t *testing.T) {
	out := streamFrom(t, "data: [DONE]\n\n", time.Unix(1800000000, 0))

	events := parseSSE(t, out)
	require.Len(t, events, 1)
	_, payload := lastEvent(t, events)

	resp := payload["response"].(map[string]any)
	// 没有 response.created 时不输出 id。
	require.NotContains(t, resp, "id")
	require.Equal(t, float64(1800000000), resp["created_at"])
}

func TestResponses_StreamTrue_UpstreamFailedRelayedVerbatim(t *testing.T) {
	failed := `{"type":"response.failed","response":{"id":"resp_3","status":"failed","error":{"code":"server_error","message":"oops"}}}`
	out := streamFrom(t, "data: "+failed+"\n\n", time.Now())

	events := parseSSE(t, out)
	require.Len(t, events, 1)
	require.Equal(t, "response.failed", events[0].Event)
	require.Equal(t, failed, events[0].Data)
}

func TestResponses_StreamTrue_NothingForwardedAfterConvertedError(t *testing.T) {
	out := streamFrom(t,
		"data: {\"type\":\"error\",\"code\":\"server_error\",\"message\":\"boom\"}\n\n"+
			"data: {\"type\":\"response.output_text.delta\",\"delta\":\"late\"}\n\n"+
			"data: {\"type\":\"response.completed\",\"response\":{\"id\":\"resp_9\"}}\n\n",
		time.Unix(1800000000, 0))

	events := parseSSE(t, out)
	require.Len(t, events, 1)
	require.Equal(t, "response.failed", events[0].Event)
	require.NotContains(t, out, "late")
}

func TestResponses_StreamTrue_SingleTerminalEvent(t *testing.T) {
	cases := map[string]string{
		"completed-then-failed": "data: {\"type\":\"response.completed\",\"response\":{\"id\":\"resp_1\"}}\n\n" +
			"data: {\"type\":\"response.failed\",\"response\":{\"id\":\"resp_1\"}}\n\n",
		"failed-then-completed": "data: {\"type\":\"response.failed\",\"response\":{\"id\":\"resp_1\"}}\n\n" +
			"data: {\"type\":\"response.completed\",\"response\":{\"id\":\"resp_1\"}}\n\n",
		// 末尾没有空行结束的事件也不再转发。
		"incomplete-then-error": "data: {\"type\":\"response.incomplete\",\"response\":{\"id\":\"resp_1\"}}\n\n" +
			"data: {\"type\":\"error\",\"message\":\"late\"}",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			events := parseSSE(t, streamFrom(t, body, time.Now()))
			require.Len(t, events, 1)

			terminal := 0
			for _, ev := range events {
				switch ev.Event {
				case "response.completed", "response.incomplete", "response.failed":
					terminal++
				}
			}
			require.Equal(t, 1, terminal)
		})
	}
}
