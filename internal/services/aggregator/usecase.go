package aggregator

import (
	"context"
	"math"
	"time"

	"github.com/pulsecheck/controlplane/internal/domain/event"
	"github.com/pulsecheck/controlplane/internal/domain/monitor"
)

type Usecase struct {
	Monitors monitor.Repo
	Events   event.Repo
	Clock    func() time.Time
}

func New(monitors monitor.Repo, events event.Repo) *Usecase {
	return &Usecase{Monitors: monitors, Events: events, Clock: time.Now}
}

// Stats is the outcome of classifying every monitor a user owns.
type Stats struct {
	Up     int
	Down   int
	Paused int
}

// MonitoringStats classifies each of the user's monitors as Up, Down,
// or Paused using its latest event. A monitor with no event yet and
// not paused counts as Down.
func (u *Usecase) MonitoringStats(ctx context.Context, userID int64) (Stats, error) {
	mons, err := u.Monitors.ListByUser(ctx, userID)
	if err != nil {
		return Stats{}, err
	}

	var s Stats
	for _, m := range mons {
		if m.IsPaused {
			s.Paused++
			continue
		}
		last, err := u.Events.Latest(ctx, m.ID)
		if err != nil {
			return Stats{}, err
		}
		if last != nil && last.IsPositive(m.Kind) {
			s.Up++
		} else {
			s.Down++
		}
	}
	return s, nil
}

// RollingUptimePercent implements the source algorithm verbatim,
// including its known attribution bug: an interval is credited to the
// state of the event that *ends* it, not the state that held during
// it. See the design notes for why this is preserved rather than
// fixed.
func (u *Usecase) RollingUptimePercent(ctx context.Context, m *monitor.Monitor, days float64) (float64, error) {
	now := u.Clock()
	t0 := now.Add(-time.Duration(days * 24 * float64(time.Hour)))

	events, err := u.Events.Since(ctx, m.ID, t0)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 100, nil
	}

	var upTime time.Duration
	cursor := t0
	var last *event.Event
	for _, e := range events {
		if e.IsPositive(m.Kind) {
			upTime += e.Timestamp.Sub(cursor)
		}
		cursor = e.Timestamp
		last = e
	}
	if last != nil && last.IsPositive(m.Kind) {
		upTime += now.Sub(cursor)
	}

	total := days * 24 * 60 * 60 * 1000
	pct := float64(upTime.Milliseconds()) / total * 100
	pct = math.Max(0, math.Min(100, pct))
	return math.Round(pct*100) / 100, nil
}

// Downtime describes the most recent adverse event, with its observed
// duration.
type Downtime struct {
	Event    *event.Event
	Duration time.Duration
}

// LatestDowntime returns the most recent adverse event, optionally
// scoped to a user (userID <= 0 means all users), or nil if none exists.
func (u *Usecase) LatestDowntime(ctx context.Context, userID int64) (*Downtime, error) {
	e, err := u.Events.LatestAdverse(ctx, userID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, nil
	}
	now := u.Clock()
	end := now
	if e.EndTime != nil {
		end = *e.EndTime
	}
	return &Downtime{Event: e, Duration: end.Sub(e.Timestamp)}, nil
}

const historyPageSize = 10

// EventHistory returns one page of a monitor's events, newest first.
func (u *Usecase) EventHistory(ctx context.Context, monitorID int64, beforeID int64) ([]*event.Event, error) {
	return u.Events.Page(ctx, monitorID, beforeID, historyPageSize)
}
