package alertnotifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pulsecheck/controlplane/internal/domain/alert"
	"github.com/pulsecheck/controlplane/internal/domain/monitor"
	"github.com/pulsecheck/controlplane/internal/domain/user"
	kafkax "github.com/pulsecheck/controlplane/internal/repository/kafka"
)

type fakeMonitors struct {
	m *monitor.Monitor
}

func (f *fakeMonitors) Create(ctx context.Context, m *monitor.Monitor) error { return nil }
func (f *fakeMonitors) GetByID(ctx context.Context, id int64) (*monitor.Monitor, error) {
	if f.m == nil {
		return nil, errors.New("not found")
	}
	return f.m, nil
}
func (f *fakeMonitors) ListByUser(ctx context.Context, userID int64) ([]*monitor.Monitor, error) {
	return nil, nil
}
func (f *fakeMonitors) Delete(ctx context.Context, id int64) error { return nil }
func (f *fakeMonitors) FetchDue(ctx context.Context, frequencyMin int, window time.Duration, limit int) ([]*monitor.Monitor, error) {
	return nil, nil
}
func (f *fakeMonitors) Touch(ctx context.Context, id int64, now time.Time) error { return nil }
func (f *fakeMonitors) SetLastAlertSentAt(ctx context.Context, id int64, at time.Time) error {
	return nil
}

type fakeUsers struct {
	u   *user.User
	err error
}

func (f *fakeUsers) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return f.u, f.err
}

type fakeAlerts struct {
	incCalls int
	incErr   error
	tries    int
}

func (f *fakeAlerts) Create(ctx context.Context, a *alert.Alert) error { return nil }
func (f *fakeAlerts) IncrementTries(ctx context.Context, id int64) (int, error) {
	f.incCalls++
	f.tries++
	return f.tries, f.incErr
}

type fakeSender struct {
	calls int
	err   error
}

func (f *fakeSender) Send(ctx context.Context, to, subject, body string) error {
	f.calls++
	return f.err
}

func TestHandleAlertCreated_SendsAndIncrementsTries(t *testing.T) {
	mons := &fakeMonitors{m: &monitor.Monitor{ID: 1, URL: "https://example.com"}}
	users := &fakeUsers{u: &user.User{ID: 1, Email: "a@b.com"}}
	sender := &fakeSender{}
	alerts := &fakeAlerts{}

	h := &Handler{Monitors: mons, Users: users, Alerts: alerts, Out: sender, Clock: time.Now}

	ev := kafkax.AlertCreated{AlertID: 5, UserID: 1, MonitorID: 1, URL: "https://example.com", CreatedAt: time.Now()}
	if err := h.HandleAlertCreated(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.calls != 1 {
		t.Fatalf("expected 1 send, got %d", sender.calls)
	}
	if alerts.incCalls != 1 {
		t.Fatalf("expected 1 increment, got %d", alerts.incCalls)
	}
}

func TestHandleAlertCreated_SendFailureStillIncrements(t *testing.T) {
	mons := &fakeMonitors{m: &monitor.Monitor{ID: 1, URL: "https://example.com"}}
	users := &fakeUsers{u: &user.User{ID: 1, Email: "a@b.com"}}
	sender := &fakeSender{err: errors.New("smtp down")}
	alerts := &fakeAlerts{}

	h := &Handler{Monitors: mons, Users: users, Alerts: alerts, Out: sender, Clock: time.Now}

	ev := kafkax.AlertCreated{AlertID: 5, UserID: 1, MonitorID: 1, URL: "https://example.com", CreatedAt: time.Now()}
	if err := h.HandleAlertCreated(context.Background(), ev); err == nil {
		t.Fatal("expected error")
	}
	if alerts.incCalls != 1 {
		t.Fatalf("expected increment even on send failure, got %d calls", alerts.incCalls)
	}
}

func TestHandleAlertCreated_UnknownMonitorErrors(t *testing.T) {
	mons := &fakeMonitors{}
	users := &fakeUsers{u: &user.User{ID: 1, Email: "a@b.com"}}
	sender := &fakeSender{}
	alerts := &fakeAlerts{}

	h := &Handler{Monitors: mons, Users: users, Alerts: alerts, Out: sender, Clock: time.Now}

	ev := kafkax.AlertCreated{AlertID: 5, UserID: 1, MonitorID: 99, CreatedAt: time.Now()}
	if err := h.HandleAlertCreated(context.Background(), ev); err == nil {
		t.Fatal("expected error for unknown monitor")
	}
	if sender.calls != 0 {
		t.Fatalf("expected no send attempt, got %d", sender.calls)
	}
}
