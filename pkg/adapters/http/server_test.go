package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/observability"
	"github.com/aretw0/quill/pkg/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	last domain.CommandRequest
	resp func(domain.CommandRequest) domain.CommandResponse
}

func (f *fakeExecutor) Execute(ctx context.Context, req domain.CommandRequest) domain.CommandResponse {
	f.last = req
	return f.resp(req)
}

func newServer(t *testing.T, exec Executor, opts ...Option) *Server {
	t.Helper()
	s, err := NewServer(exec, opts...)
	require.NoError(t, err)
	return s
}

func post(s http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/commands", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func TestLoadSpec(t *testing.T) {
	doc, err := LoadSpec()
	require.NoError(t, err)
	assert.Contains(t, doc.Components.Schemas, "CommandRequest")
}

func TestHealthAndInfo(t *testing.T) {
	s := newServer(t, &fakeExecutor{})

	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/info", nil))
	var info map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "1.0.0", info["api_version"])
	assert.Equal(t, "quill-host", info["app"])
}

func TestCommand_Success(t *testing.T) {
	exec := &fakeExecutor{resp: func(req domain.CommandRequest) domain.CommandResponse {
		return domain.CommandResponse{ID: req.ID, Result: json.RawMessage(`{"ok":true}`)}
	}}
	s := newServer(t, exec)

	w := post(s, `{"command":"get_node_info","params":{"nodeId":"1:2"}}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, exec.last.ID, "a missing id is generated")
	assert.Equal(t, "1:2", exec.last.Params["nodeId"])

	var resp domain.CommandResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, exec.last.ID, resp.ID)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Result))
}

func TestCommand_SchemaValidation(t *testing.T) {
	exec := &fakeExecutor{resp: func(req domain.CommandRequest) domain.CommandResponse {
		t.Fatal("executor must not run for invalid envelopes")
		return domain.CommandResponse{}
	}}
	s := newServer(t, exec)

	for _, body := range []string{
		`not json`,
		`{"params":{}}`,
		`{"command":""}`,
		`{"command":"x","params":"nope"}`,
		`{"command":"x","extra":1}`,
	} {
		w := post(s, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestCommand_ErrorKindSetsStatus(t *testing.T) {
	cases := map[domain.Kind]int{
		domain.KindValidation:     http.StatusBadRequest,
		domain.KindNotFound:       http.StatusNotFound,
		domain.KindUnknownCommand: http.StatusNotFound,
		domain.KindUnsupported:    http.StatusUnprocessableEntity,
		domain.KindInternal:       http.StatusInternalServerError,
	}
	for kind, status := range cases {
		exec := &fakeExecutor{resp: func(req domain.CommandRequest) domain.CommandResponse {
			return domain.CommandResponse{ID: req.ID, Error: "boom", ErrorKind: kind}
		}}
		w := post(newServer(t, exec), `{"id":"1","command":"x"}`)
		assert.Equal(t, status, w.Code, kind)

		var resp domain.CommandResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, kind, resp.ErrorKind)
	}
}

func TestCommandNamesAndMetrics(t *testing.T) {
	m := observability.NewMetrics()
	s := newServer(t, &fakeExecutor{},
		WithMetrics(m),
		WithCommands(func() []string { return []string{"a", "b"} }))

	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/commands/names", nil))
	assert.JSONEq(t, `{"commands":["a","b"]}`, w.Body.String())

	m.PendingRequests.Set(3)
	w = httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "quill_")
}

func TestEvents_StreamsUntilTerminal(t *testing.T) {
	hub := progress.NewHub(16)
	srv := httptest.NewServer(newServer(t, &fakeExecutor{}, WithEvents(hub)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/events?commandId=c1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)

	hub.Publish(domain.ProgressEvent{CommandID: "other", Status: domain.ProgressStarted})
	hub.Publish(domain.ProgressEvent{CommandID: "c1", Status: domain.ProgressInProgress, Progress: 50})
	hub.Publish(domain.ProgressEvent{CommandID: "c1", Status: domain.ProgressCompleted, Progress: 100})

	done := make(chan []domain.ProgressEvent, 1)
	go func() {
		var got []domain.ProgressEvent
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				done <- got
				return
			}
			if data, ok := strings.CutPrefix(strings.TrimSpace(line), "data: "); ok && data != "connected" {
				var ev domain.ProgressEvent
				if json.Unmarshal([]byte(data), &ev) == nil {
					got = append(got, ev)
				}
			}
		}
	}()

	select {
	case got := <-done:
		require.Len(t, got, 2)
		assert.Equal(t, 50, got[0].Progress)
		assert.Equal(t, domain.ProgressCompleted, got[1].Status)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after the terminal event")
	}
}
