package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/guidoenr/habitateq/internal/app"
	"github.com/guidoenr/habitateq/internal/mode"
	"github.com/guidoenr/habitateq/internal/params"
	"github.com/guidoenr/habitateq/internal/visualizer"
)

type fakeController struct {
	mu       sync.Mutex
	triggers []TriggerRequest
	params   params.Parameters
	busy     bool
	saved    int
}

func (f *fakeController) Status() app.Status {
	return app.Status{Status: visualizer.Status{Frame: 42, Preset: "VERTICAL FLOW"}, FPS: 30, Source: "synthetic"}
}

func (f *fakeController) Trigger(name string, arg int) error {
	if _, err := mode.ParseTrigger(name); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return app.ErrBusy
	}
	f.triggers = append(f.triggers, TriggerRequest{Name: name, Arg: arg})
	return nil
}

func (f *fakeController) received() []TriggerRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]TriggerRequest(nil), f.triggers...)
}

func (f *fakeController) Params() params.Parameters {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.params
}

func (f *fakeController) UpdateParams(patch []byte) (params.Parameters, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	next, err := f.params.Merge(patch)
	if err != nil {
		return f.params, err
	}
	f.params = next
	return next, nil
}

func (f *fakeController) SaveParams() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved++
	return "/tmp/habitateq-params.json", nil
}

func newTestServer(t *testing.T) (*Server, *fakeController, *httptest.Server) {
	t.Helper()
	ctrl := &fakeController{params: params.Defaults()}
	s := NewServer(ctrl, log.New(io.Discard, "", 0))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ctrl, ts
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func TestTriggerEndpoint(t *testing.T) {
	_, ctrl, ts := newTestServer(t)

	res, _ := do(t, http.MethodPost, ts.URL+"/api/trigger", `{"name":"adjust-segment-count","arg":1}`)
	if res.StatusCode != http.StatusAccepted {
		t.Fatalf("status=%d", res.StatusCode)
	}
	got := ctrl.received()
	if len(got) != 1 || got[0].Name != "adjust-segment-count" || got[0].Arg != 1 {
		t.Fatalf("received=%+v", got)
	}

	res, body := do(t, http.MethodPost, ts.URL+"/api/trigger", `{"name":"warp-drive"}`)
	if res.StatusCode != http.StatusBadRequest || !strings.Contains(string(body), "unknown trigger") {
		t.Fatalf("unknown trigger: status=%d body=%s", res.StatusCode, body)
	}
	res, _ = do(t, http.MethodPost, ts.URL+"/api/trigger", `{not json`)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad json status=%d", res.StatusCode)
	}

	ctrl.mu.Lock()
	ctrl.busy = true
	ctrl.mu.Unlock()
	res, _ = do(t, http.MethodPost, ts.URL+"/api/trigger", `{"name":"toggle-neon"}`)
	if res.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("busy status=%d", res.StatusCode)
	}

	res, _ = do(t, http.MethodGet, ts.URL+"/api/trigger", "")
	if res.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("GET trigger status=%d", res.StatusCode)
	}
}

func TestStatusAndCatalog(t *testing.T) {
	_, _, ts := newTestServer(t)

	res, body := do(t, http.MethodGet, ts.URL+"/api/status", "")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", res.StatusCode)
	}
	var st app.Status
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Frame != 42 || st.Source != "synthetic" || st.Preset != "VERTICAL FLOW" {
		t.Fatalf("status=%+v", st)
	}

	_, body = do(t, http.MethodGet, ts.URL+"/api/triggers", "")
	var cat Catalog
	if err := json.Unmarshal(body, &cat); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	if len(cat.Triggers) != len(mode.TriggerNames()) || len(cat.Presets) == 0 || len(cat.Particles) != 6 || len(cat.Palettes) == 0 {
		t.Fatalf("catalog=%+v", cat)
	}

	res, body = do(t, http.MethodGet, ts.URL+"/", "")
	if res.StatusCode != http.StatusOK || !strings.Contains(string(body), "habitateq") {
		t.Fatalf("index status=%d", res.StatusCode)
	}
}

func TestParamsEndpoints(t *testing.T) {
	_, ctrl, ts := newTestServer(t)

	res, body := do(t, http.MethodPatch, ts.URL+"/api/params", `{"floors": 12}`)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("patch status=%d body=%s", res.StatusCode, body)
	}
	var p params.Parameters
	if err := json.Unmarshal(body, &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Floors != 12 || ctrl.Params().Floors != 12 {
		t.Fatalf("floors=%d", p.Floors)
	}

	res, _ = do(t, http.MethodPatch, ts.URL+"/api/params", `{"floors": 0}`)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid patch status=%d", res.StatusCode)
	}

	_, body = do(t, http.MethodGet, ts.URL+"/api/params", "")
	if err := json.Unmarshal(body, &p); err != nil || p.Floors != 12 {
		t.Fatalf("get params floors=%d err=%v", p.Floors, err)
	}

	res, body = do(t, http.MethodPost, ts.URL+"/api/save", "")
	ctrl.mu.Lock()
	saved := ctrl.saved
	ctrl.mu.Unlock()
	if res.StatusCode != http.StatusOK || saved != 1 || !strings.Contains(string(body), "saved") {
		t.Fatalf("save status=%d body=%s", res.StatusCode, body)
	}
}

func TestWebSocketPushesStatusAndAcceptsTriggers(t *testing.T) {
	s, ctrl, ts := newTestServer(t)
	s.interval = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.broadcastLoop(ctx)
	go s.statusLoop(ctx)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var st app.Status
	if err := conn.ReadJSON(&st); err != nil {
		t.Fatalf("read status: %v", err)
	}
	if st.Frame != 42 {
		t.Fatalf("pushed status=%+v", st)
	}

	if err := conn.WriteJSON(TriggerRequest{Name: "toggle-tunnel"}); err != nil {
		t.Fatalf("write trigger: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for len(ctrl.received()) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("trigger over websocket never arrived")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := ctrl.received()[0]; got.Name != "toggle-tunnel" {
		t.Fatalf("received=%+v", got)
	}
}

func TestErrorCode(t *testing.T) {
	if errorCode(app.ErrBusy) != http.StatusServiceUnavailable {
		t.Fatalf("busy not mapped to 503")
	}
	if errorCode(errors.New("boom")) != http.StatusBadRequest {
		t.Fatalf("generic error not mapped to 400")
	}
}
