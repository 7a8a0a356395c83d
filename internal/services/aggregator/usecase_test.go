package aggregator

import (
	"context"
	"testing"
	"time"

	"github.com/pulsecheck/controlplane/internal/domain/event"
	"github.com/pulsecheck/controlplane/internal/domain/monitor"
)

type fakeMonitorRepo struct {
	byUser map[int64][]*monitor.Monitor
}

func (f *fakeMonitorRepo) Create(ctx context.Context, m *monitor.Monitor) error { return nil }
func (f *fakeMonitorRepo) GetByID(ctx context.Context, id int64) (*monitor.Monitor, error) { return nil, nil }
func (f *fakeMonitorRepo) ListByUser(ctx context.Context, userID int64) ([]*monitor.Monitor, error) {
	return f.byUser[userID], nil
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
	latestByMonitor map[int64]*event.Event
	sinceByMonitor  map[int64][]*event.Event
	adverse         *event.Event
}

func (f *fakeEventRepo) Latest(ctx context.Context, monitorID int64) (*event.Event, error) {
	return f.latestByMonitor[monitorID], nil
}
func (f *fakeEventRepo) Append(ctx context.Context, e *event.Event, prevID int64, prevEndTime time.Time) error {
	return nil
}
func (f *fakeEventRepo) Since(ctx context.Context, monitorID int64, from time.Time) ([]*event.Event, error) {
	return f.sinceByMonitor[monitorID], nil
}
func (f *fakeEventRepo) Page(ctx context.Context, monitorID int64, beforeID int64, limit int) ([]*event.Event, error) {
	return nil, nil
}
func (f *fakeEventRepo) LatestAdverse(ctx context.Context, userID int64) (*event.Event, error) {
	return f.adverse, nil
}

func TestMonitoringStats_ClassifiesCorrectly(t *testing.T) {
	mons := &fakeMonitorRepo{byUser: map[int64][]*monitor.Monitor{
		1: {
			{ID: 1, Kind: monitor.KindWeb},
			{ID: 2, Kind: monitor.KindWeb},
			{ID: 3, Kind: monitor.KindWeb, IsPaused: true},
			{ID: 4, Kind: monitor.KindWeb},
		},
	}}
	events := &fakeEventRepo{latestByMonitor: map[int64]*event.Event{
		1: {Availability: event.AvailabilityUp},
		2: {Availability: event.AvailabilityDown},
		// 4 has no event at all -> Down
	}}
	u := New(mons, events)

	s, err := u.MonitoringStats(context.Background(), 1)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if s.Up != 1 || s.Down != 2 || s.Paused != 1 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}

func TestRollingUptimePercent_NoEventsIs100(t *testing.T) {
	mons := &fakeMonitorRepo{}
	events := &fakeEventRepo{sinceByMonitor: map[int64][]*event.Event{}}
	u := New(mons, events)

	pct, err := u.RollingUptimePercent(context.Background(), &monitor.Monitor{ID: 1, Kind: monitor.KindWeb}, 1)
	if err != nil {
		t.Fatalf("uptime: %v", err)
	}
	if pct != 100 {
		t.Fatalf("want 100, got %v", pct)
	}
}

func TestRollingUptimePercent_PreservesSourceAttributionBug(t *testing.T) {
	now := time.Now()
	u := New(&fakeMonitorRepo{}, &fakeEventRepo{sinceByMonitor: map[int64][]*event.Event{
		1: {{Timestamp: now.Add(-12 * time.Hour), Availability: event.AvailabilityDown}},
	}})
	u.Clock = func() time.Time { return now }

	pct, err := u.RollingUptimePercent(context.Background(), &monitor.Monitor{ID: 1, Kind: monitor.KindWeb}, 1)
	if err != nil {
		t.Fatalf("uptime: %v", err)
	}
	// the 12h preceding the Down event is attributed to Down (the bug),
	// and the 12h after is Down too (last event is adverse), so uptime is 0.
	if pct != 0 {
		t.Fatalf("want 0 (bug-preserving attribution), got %v", pct)
	}
}

func TestLatestDowntime_UsesEndTimeWhenSet(t *testing.T) {
	now := time.Now()
	start := now.Add(-2 * time.Hour)
	end := now.Add(-1 * time.Hour)
	events := &fakeEventRepo{adverse: &event.Event{Timestamp: start, EndTime: &end}}
	u := New(&fakeMonitorRepo{}, events)
	u.Clock = func() time.Time { return now }

	d, err := u.LatestDowntime(context.Background(), 0)
	if err != nil {
		t.Fatalf("downtime: %v", err)
	}
	if d.Duration != time.Hour {
		t.Fatalf("want 1h, got %v", d.Duration)
	}
}
