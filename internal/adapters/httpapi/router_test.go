package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/verent/callsig/internal/config"
	"github.com/verent/callsig/internal/core"
	"github.com/verent/callsig/internal/domain"
	"github.com/verent/callsig/internal/protocol"
)

type fakeCall struct {
	id           uuid.UUID
	state        domain.CallState
	direction    domain.Direction
	callerName   string
	callerNumber string
	destination  string
	answered     bool
	hungup       bool
	held         bool
}

func (c *fakeCall) ID() uuid.UUID               { return c.id }
func (c *fakeCall) SessionID() string           { return "S1" }
func (c *fakeCall) State() domain.CallState     { return c.state }
func (c *fakeCall) Direction() domain.Direction { return c.direction }
func (c *fakeCall) CallerName() string          { return c.callerName }
func (c *fakeCall) SetCallerName(name string)   { c.callerName = name }
func (c *fakeCall) CallerNumber() string        { return c.callerNumber }
func (c *fakeCall) SetCallerNumber(n string)    { c.callerNumber = n }
func (c *fakeCall) DestinationNumber() string   { return c.destination }

func (c *fakeCall) Start(context.Context) error  { return nil }
func (c *fakeCall) Answer(context.Context) error { c.answered = true; return nil }
func (c *fakeCall) Hangup() error                { c.hungup = true; return nil }
func (c *fakeCall) Hold() error                  { c.held = true; return nil }
func (c *fakeCall) Unhold() error                { c.held = false; return nil }

func (c *fakeCall) HandleInboundMessage(*protocol.Envelope) {}

type fakeController struct {
	connected  bool
	sessionID  string
	calls      map[uuid.UUID]core.Call
	newCallErr error
}

func (f *fakeController) IsConnected() bool { return f.connected }
func (f *fakeController) SessionID() string { return f.sessionID }

func (f *fakeController) NewCall(callerName, callerNumber, destination string, callID uuid.UUID) (core.Call, error) {
	if f.newCallErr != nil {
		return nil, f.newCallErr
	}
	c := &fakeCall{
		id:           callID,
		direction:    domain.DirectionOutbound,
		callerName:   callerName,
		callerNumber: callerNumber,
		destination:  destination,
	}
	f.calls[callID] = c
	return c, nil
}

func (f *fakeController) Call(id uuid.UUID) (core.Call, bool) {
	c, ok := f.calls[id]
	return c, ok
}

func (f *fakeController) Calls() []core.Call {
	out := make([]core.Call, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c)
	}
	return out
}

func newTestRouter(ctrl *fakeController, apiToken string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return SetupRouter(&config.Config{Mode: "test", APIToken: apiToken}, ctrl)
}

func newController() *fakeController {
	return &fakeController{connected: true, sessionID: "S1", calls: make(map[uuid.UUID]core.Call)}
}

func doRequest(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStatus(t *testing.T) {
	r := newTestRouter(newController(), "")

	w := doRequest(r, http.MethodGet, "/api/status", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["connected"] != true || body["session_id"] != "S1" {
		t.Fatalf("body = %v", body)
	}
}

func TestAuthMiddleware(t *testing.T) {
	r := newTestRouter(newController(), "secret")

	if w := doRequest(r, http.MethodGet, "/api/status", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d", w.Code)
	}
	if w := doRequest(r, http.MethodGet, "/api/status", "wrong", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: status = %d", w.Code)
	}
	if w := doRequest(r, http.MethodGet, "/api/status", "secret", ""); w.Code != http.StatusOK {
		t.Fatalf("good token: status = %d", w.Code)
	}
}

func TestDial(t *testing.T) {
	ctrl := newController()
	r := newTestRouter(ctrl, "")

	w := doRequest(r, http.MethodPost, "/api/calls", "", `{"destination":"200","caller_name":"Alice"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var dto callDTO
	if err := json.Unmarshal(w.Body.Bytes(), &dto); err != nil {
		t.Fatalf("body: %v", err)
	}
	if dto.Destination != "200" || dto.CallerName != "Alice" {
		t.Fatalf("dto = %+v", dto)
	}
	if len(ctrl.calls) != 1 {
		t.Fatalf("controller saw %d calls", len(ctrl.calls))
	}
}

func TestDial_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrDestinationRequired, http.StatusUnprocessableEntity},
		{domain.ErrSessionRequired, http.StatusConflict},
		{domain.ErrSocketNotConnected, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		ctrl := newController()
		ctrl.newCallErr = tt.err
		r := newTestRouter(ctrl, "")

		w := doRequest(r, http.MethodPost, "/api/calls", "", `{"destination":"200"}`)
		if w.Code != tt.want {
			t.Fatalf("%v: status = %d, want %d", tt.err, w.Code, tt.want)
		}
	}
}

func TestHangup(t *testing.T) {
	ctrl := newController()
	id := uuid.New()
	fc := &fakeCall{id: id, direction: domain.DirectionInbound}
	ctrl.calls[id] = fc
	r := newTestRouter(ctrl, "")

	w := doRequest(r, http.MethodDelete, "/api/calls/"+id.String(), "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !fc.hungup {
		t.Fatalf("call not hung up")
	}
}

func TestCallLookupErrors(t *testing.T) {
	r := newTestRouter(newController(), "")

	if w := doRequest(r, http.MethodDelete, "/api/calls/not-a-uuid", "", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("malformed id: status = %d", w.Code)
	}
	if w := doRequest(r, http.MethodDelete, "/api/calls/"+uuid.NewString(), "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("unknown id: status = %d", w.Code)
	}
}

func TestAnswerAndHold(t *testing.T) {
	ctrl := newController()
	id := uuid.New()
	fc := &fakeCall{id: id, direction: domain.DirectionInbound}
	ctrl.calls[id] = fc
	r := newTestRouter(ctrl, "")

	if w := doRequest(r, http.MethodPost, "/api/calls/"+id.String()+"/answer", "", ""); w.Code != http.StatusOK {
		t.Fatalf("answer: status = %d", w.Code)
	}
	if !fc.answered {
		t.Fatalf("call not answered")
	}

	if w := doRequest(r, http.MethodPost, "/api/calls/"+id.String()+"/hold", "", ""); w.Code != http.StatusOK {
		t.Fatalf("hold: status = %d", w.Code)
	}
	if !fc.held {
		t.Fatalf("call not held")
	}

	if w := doRequest(r, http.MethodPost, "/api/calls/"+id.String()+"/unhold", "", ""); w.Code != http.StatusOK {
		t.Fatalf("unhold: status = %d", w.Code)
	}
	if fc.held {
		t.Fatalf("call still held")
	}
}
