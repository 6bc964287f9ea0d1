package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/rachitsh/studybuddy/internal/config"
	"github.com/rachitsh/studybuddy/internal/engine"
	"github.com/rachitsh/studybuddy/internal/history"
	"github.com/rachitsh/studybuddy/internal/observability"
	"github.com/rachitsh/studybuddy/internal/tutor"
)

func newTestServer(t *testing.T) (*httptest.Server, *engine.Manager, history.Store) {
	t.Helper()
	cfg := config.Config{
		SessionInactivityTimeout: 2 * time.Minute,
		ClearOnLogout:            true,
	}
	metrics := observability.NewMetrics(fmt.Sprintf("test_httpapi_%d", time.Now().UnixNano()))
	store := history.NewInMemoryStore()
	sessions := engine.NewManager(engine.ManagerConfig{
		Tutor:             tutor.NewMockClient(),
		History:           store,
		Metrics:           metrics,
		Logger:            zerolog.Nop(),
		InactivityTimeout: cfg.SessionInactivityTimeout,
		ClearOnLogout:     cfg.ClearOnLogout,
	})
	srv := New(cfg, sessions, store, metrics, zerolog.Nop())

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, sessions, store
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}
	res, err := http.Post(url, "application/json", &body)
	if err != nil {
		t.Fatalf("POST %s error = %v", url, err)
	}
	return res
}

func decodeBody(t *testing.T, res *http.Response, out any) {
	t.Helper()
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	res := postJSON(t, ts.URL+"/v1/chat/session", nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want %d", res.StatusCode, http.StatusCreated)
	}
	var created map[string]any
	decodeBody(t, res, &created)
	id, _ := created["session_id"].(string)
	if id == "" {
		t.Fatalf("missing session_id in create response: %+v", created)
	}
	return id
}

func TestCreateAndEndSession(t *testing.T) {
	ts, _, _ := newTestServer(t)

	id := createSession(t, ts)
	endRes := postJSON(t, ts.URL+"/v1/chat/session/"+id+"/end", nil)
	defer endRes.Body.Close()
	if endRes.StatusCode != http.StatusOK {
		t.Fatalf("end status = %d, want %d", endRes.StatusCode, http.StatusOK)
	}

	timelineRes, err := http.Get(ts.URL + "/v1/chat/session/" + id + "/timeline")
	if err != nil {
		t.Fatalf("GET timeline error = %v", err)
	}
	defer timelineRes.Body.Close()
	if timelineRes.StatusCode != http.StatusNotFound {
		t.Fatalf("timeline after end status = %d, want %d", timelineRes.StatusCode, http.StatusNotFound)
	}
}

func TestSubmitMessageReturnsPair(t *testing.T) {
	ts, _, _ := newTestServer(t)
	id := createSession(t, ts)

	res := postJSON(t, ts.URL+"/v1/chat/session/"+id+"/message", map[string]string{"text": "2+2=?"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("submit status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	var payload struct {
		Status   string           `json:"status"`
		Messages []map[string]any `json:"messages"`
	}
	decodeBody(t, res, &payload)
	if payload.Status != "success" {
		t.Fatalf("status = %q, want success", payload.Status)
	}
	if len(payload.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(payload.Messages))
	}
	if payload.Messages[0]["role"] != "user" || payload.Messages[1]["role"] != "assistant" {
		t.Fatalf("unexpected roles: %+v", payload.Messages)
	}
	// The assistant message carries the canonical difficulty styling value.
	if got := payload.Messages[1]["difficulty_style"]; got != "Easy" {
		t.Fatalf("difficulty_style = %v, want Easy", got)
	}
	if _, ok := payload.Messages[0]["difficulty_style"]; ok {
		t.Fatalf("user message should not carry difficulty_style: %+v", payload.Messages[0])
	}
}

func TestPerfLatencyEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t)
	id := createSession(t, ts)

	msgRes := postJSON(t, ts.URL+"/v1/chat/session/"+id+"/message", map[string]string{"text": "2+2=?"})
	msgRes.Body.Close()
	if msgRes.StatusCode != http.StatusOK {
		t.Fatalf("submit status = %d", msgRes.StatusCode)
	}

	res, err := http.Get(ts.URL + "/v1/perf/latency")
	if err != nil {
		t.Fatalf("GET /v1/perf/latency error = %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("perf status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	var snap struct {
		WindowSize int `json:"window_size"`
		Stages     []struct {
			Stage   string `json:"stage"`
			Samples int    `json:"samples"`
		} `json:"stages"`
	}
	decodeBody(t, res, &snap)
	if snap.WindowSize <= 0 {
		t.Fatalf("window_size = %d, want > 0", snap.WindowSize)
	}
	if len(snap.Stages) == 0 {
		t.Fatalf("perf snapshot has no stages after a completed turn")
	}
	found := false
	for _, st := range snap.Stages {
		if st.Stage == "boundary_call" && st.Samples > 0 {
			found = true
		}
	}
	if !found {
		t.Fatalf("boundary_call stage missing from snapshot: %+v", snap.Stages)
	}
}

func TestSubmitMultipartWithFile(t *testing.T) {
	ts, _, _ := newTestServer(t)
	id := createSession(t, ts)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("text", "what is in this picture?"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	part, err := form.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="file"; filename="problem.png"`},
		"Content-Type":        {"image/png"},
	})
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte{0x89, 0x50, 0x4e, 0x47}); err != nil {
		t.Fatalf("write part: %v", err)
	}
	form.Close()

	res, err := http.Post(ts.URL+"/v1/chat/session/"+id+"/message", form.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST multipart error = %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("submit status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	var payload struct {
		Messages []struct {
			Role       string `json:"role"`
			Attachment *struct {
				MimeType string `json:"mime_type"`
				Name     string `json:"name"`
			} `json:"attachment"`
		} `json:"messages"`
	}
	decodeBody(t, res, &payload)
	if len(payload.Messages) != 2 || payload.Messages[0].Attachment == nil {
		t.Fatalf("user message lost its attachment: %+v", payload.Messages)
	}
	if payload.Messages[0].Attachment.MimeType != "image/png" || payload.Messages[0].Attachment.Name != "problem.png" {
		t.Fatalf("attachment = %+v", payload.Messages[0].Attachment)
	}
}

func TestSubmitEmptyMessageRejected(t *testing.T) {
	ts, _, _ := newTestServer(t)
	id := createSession(t, ts)

	res := postJSON(t, ts.URL+"/v1/chat/session/"+id+"/message", map[string]string{"text": "   "})
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("submit status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestSetConfigValidation(t *testing.T) {
	ts, _, _ := newTestServer(t)
	id := createSession(t, ts)

	res := postJSON(t, ts.URL+"/v1/chat/session/"+id+"/config", map[string]string{
		"language":   "Tamil",
		"study_mode": "EXAM",
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("config status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	var cfg map[string]string
	decodeBody(t, res, &cfg)
	if cfg["language"] != "Tamil" || cfg["study_mode"] != "EXAM" {
		t.Fatalf("config = %+v", cfg)
	}

	bad := postJSON(t, ts.URL+"/v1/chat/session/"+id+"/config", map[string]string{"language": "Klingon"})
	defer bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid language status = %d, want %d", bad.StatusCode, http.StatusBadRequest)
	}
}

func TestHistoryRequiresIdentity(t *testing.T) {
	ts, _, _ := newTestServer(t)
	id := createSession(t, ts)

	res, err := http.Get(ts.URL + "/v1/chat/session/" + id + "/history")
	if err != nil {
		t.Fatalf("GET history error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("history status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	ts, _, _ := newTestServer(t)
	id := createSession(t, ts)

	identRes := postJSON(t, ts.URL+"/v1/chat/session/"+id+"/identity", map[string]any{
		"identity": map[string]string{"id": "user-1", "display_name": "Ravi"},
	})
	identRes.Body.Close()
	if identRes.StatusCode != http.StatusOK {
		t.Fatalf("identity status = %d, want %d", identRes.StatusCode, http.StatusOK)
	}

	msgRes := postJSON(t, ts.URL+"/v1/chat/session/"+id+"/message", map[string]string{"text": "what is osmosis?"})
	msgRes.Body.Close()
	if msgRes.StatusCode != http.StatusOK {
		t.Fatalf("submit status = %d", msgRes.StatusCode)
	}

	// The save runs on its own goroutine; poll until it lands.
	var records []map[string]any
	deadline := time.Now().Add(2 * time.Second)
	for {
		listRes, err := http.Get(ts.URL + "/v1/chat/session/" + id + "/history")
		if err != nil {
			t.Fatalf("GET history error = %v", err)
		}
		var payload struct {
			Records []map[string]any `json:"records"`
		}
		decodeBody(t, listRes, &payload)
		records = payload.Records
		if len(records) > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	recordID, _ := records[0]["id"].(string)
	if recordID == "" {
		t.Fatalf("record missing id: %+v", records[0])
	}

	loadRes := postJSON(t, ts.URL+"/v1/chat/session/"+id+"/history/"+recordID+"/load", nil)
	if loadRes.StatusCode != http.StatusOK {
		t.Fatalf("load status = %d, want %d", loadRes.StatusCode, http.StatusOK)
	}
	var loaded struct {
		Messages []map[string]any `json:"messages"`
	}
	decodeBody(t, loadRes, &loaded)
	if len(loaded.Messages) != 2 {
		t.Fatalf("loaded messages = %d, want 2", len(loaded.Messages))
	}
}

func TestLoadUnknownRecord(t *testing.T) {
	ts, _, _ := newTestServer(t)
	id := createSession(t, ts)

	identRes := postJSON(t, ts.URL+"/v1/chat/session/"+id+"/identity", map[string]any{
		"identity": map[string]string{"id": "user-1"},
	})
	identRes.Body.Close()

	res := postJSON(t, ts.URL+"/v1/chat/session/"+id+"/history/nope/load", nil)
	defer res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("load status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}

func TestSuggestionsEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t)

	res, err := http.Get(ts.URL + "/v1/suggestions")
	if err != nil {
		t.Fatalf("GET /v1/suggestions error = %v", err)
	}
	var payload struct {
		Suggestions []map[string]string `json:"suggestions"`
	}
	decodeBody(t, res, &payload)
	if len(payload.Suggestions) != 5 {
		t.Fatalf("suggestions = %d, want 5", len(payload.Suggestions))
	}
	if payload.Suggestions[0]["id"] != "maths" {
		t.Fatalf("first suggestion = %+v", payload.Suggestions[0])
	}
}

func TestEventsSocketDeliversSnapshotFirst(t *testing.T) {
	ts, _, _ := newTestServer(t)
	id := createSession(t, ts)

	msgRes := postJSON(t, ts.URL+"/v1/chat/session/"+id+"/message", map[string]string{"text": "2+2=?"})
	msgRes.Body.Close()
	if msgRes.StatusCode != http.StatusOK {
		t.Fatalf("submit status = %d", msgRes.StatusCode)
	}

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/chat/session/" + id + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial error = %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first struct {
		Type     string           `json:"type"`
		Messages []map[string]any `json:"messages"`
	}
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read first frame error = %v", err)
	}
	if first.Type != "timeline_replaced" {
		t.Fatalf("first frame type = %q, want timeline_replaced", first.Type)
	}
	if len(first.Messages) != 2 {
		t.Fatalf("snapshot messages = %d, want 2", len(first.Messages))
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts, _, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		res, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status = %d, want %d", path, res.StatusCode, http.StatusOK)
		}
	}
}
