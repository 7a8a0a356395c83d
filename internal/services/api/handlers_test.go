package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pulsecheck/controlplane/internal/domain/agent"
	"github.com/pulsecheck/controlplane/internal/domain/event"
	"github.com/pulsecheck/controlplane/internal/domain/monitor"
	"github.com/pulsecheck/controlplane/internal/services/aggregator"
)

type fakeMonitorRepo struct {
	byID map[int64]*monitor.Monitor
	byU  map[int64][]*monitor.Monitor
}

func (f *fakeMonitorRepo) Create(ctx context.Context, m *monitor.Monitor) error {
	m.ID = int64(len(f.byID) + 1)
	if f.byID == nil {
		f.byID = map[int64]*monitor.Monitor{}
	}
	f.byID[m.ID] = m
	return nil
}
func (f *fakeMonitorRepo) GetByID(ctx context.Context, id int64) (*monitor.Monitor, error) {
	m, ok := f.byID[id]
	if !ok {
		return nil, context.DeadlineExceeded
	}
	return m, nil
}
func (f *fakeMonitorRepo) ListByUser(ctx context.Context, userID int64) ([]*monitor.Monitor, error) {
	return f.byU[userID], nil
}
func (f *fakeMonitorRepo) Delete(ctx context.Context, id int64) error { return nil }
func (f *fakeMonitorRepo) FetchDue(ctx context.Context, frequencyMin int, window time.Duration, limit int) ([]*monitor.Monitor, error) {
	return nil, nil
}
func (f *fakeMonitorRepo) Touch(ctx context.Context, id int64, now time.Time) error { return nil }
func (f *fakeMonitorRepo) SetLastAlertSentAt(ctx context.Context, id int64, at time.Time) error {
	return nil
}

type fakeEventRepo struct {
	latest map[int64]*event.Event
}

func (f *fakeEventRepo) Latest(ctx context.Context, monitorID int64) (*event.Event, error) {
	return f.latest[monitorID], nil
}
func (f *fakeEventRepo) Append(ctx context.Context, e *event.Event, prevID int64, prevEndTime time.Time) error {
	return nil
}
func (f *fakeEventRepo) Since(ctx context.Context, monitorID int64, from time.Time) ([]*event.Event, error) {
	return nil, nil
}
func (f *fakeEventRepo) Page(ctx context.Context, monitorID int64, beforeID int64, limit int) ([]*event.Event, error) {
	return nil, nil
}
func (f *fakeEventRepo) LatestAdverse(ctx context.Context, userID int64) (*event.Event, error) {
	return nil, nil
}

type fakeAgentRepo struct {
	created []*agent.MonitorAgent
}

func (f *fakeAgentRepo) ListByType(ctx context.Context, t agent.Type) ([]*agent.MonitorAgent, error) {
	return nil, nil
}
func (f *fakeAgentRepo) Create(ctx context.Context, a *agent.MonitorAgent) error {
	a.ID = int64(len(f.created) + 1)
	f.created = append(f.created, a)
	return nil
}

func newTestHandlers() *Handlers {
	mons := &fakeMonitorRepo{byID: map[int64]*monitor.Monitor{
		1: {ID: 1, Kind: monitor.KindWeb, URL: "https://example.com", FrequencyMin: 5},
	}}
	events := &fakeEventRepo{latest: map[int64]*event.Event{
		1: {ID: 1, MonitorID: 1, Availability: event.AvailabilityUp, Timestamp: time.Now()},
	}}
	return &Handlers{
		Agg:      aggregator.New(mons, events),
		Monitors: mons,
		Events:   events,
		Agents:   &fakeAgentRepo{},
		Log:      zap.NewNop(),
	}
}

func TestMonitorStatus_ReturnsAuthoritativeState(t *testing.T) {
	h := newTestHandlers()
	router := NewRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/v1/monitors/1/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["state"] != "Up" {
		t.Fatalf("expected state Up, got %v", body["state"])
	}
}

func TestMonitorStatus_UnknownMonitorIs404(t *testing.T) {
	h := newTestHandlers()
	router := NewRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/v1/monitors/99/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCreateMonitor_RejectsInvalidFrequency(t *testing.T) {
	h := newTestHandlers()
	router := NewRouter(h)

	body := `{"name":"x","url":"https://x.com","kind":"web","frequency_min":7}`
	req := httptest.NewRequest(http.MethodPost, "/v1/monitors", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateMonitor_Succeeds(t *testing.T) {
	h := newTestHandlers()
	router := NewRouter(h)

	body := `{"name":"x","url":"https://x.com","kind":"web","frequency_min":5}`
	req := httptest.NewRequest(http.MethodPost, "/v1/monitors", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateAgent_RejectsInvalidType(t *testing.T) {
	h := newTestHandlers()
	router := NewRouter(h)

	body := `{"type":"bogus","url":"http://agent.local"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/agents", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
