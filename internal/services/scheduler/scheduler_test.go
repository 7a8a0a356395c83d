package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pulsecheck/controlplane/internal/domain/monitor"
)

type fakeMonitorRepo struct {
	mu      sync.Mutex
	pages   [][]*monitor.Monitor
	calls   int
}

func (f *fakeMonitorRepo) Create(ctx context.Context, m *monitor.Monitor) error { return nil }
func (f *fakeMonitorRepo) GetByID(ctx context.Context, id int64) (*monitor.Monitor, error) { return nil, nil }
func (f *fakeMonitorRepo) ListByUser(ctx context.Context, userID int64) ([]*monitor.Monitor, error) {
	return nil, nil
}
func (f *fakeMonitorRepo) Delete(ctx context.Context, id int64) error { return nil }
func (f *fakeMonitorRepo) FetchDue(ctx context.Context, frequencyMin int, window time.Duration, limit int) ([]*monitor.Monitor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls >= len(f.pages) {
		return nil, nil
	}
	p := f.pages[f.calls]
	f.calls++
	return p, nil
}
func (f *fakeMonitorRepo) Touch(ctx context.Context, id int64, now time.Time) error { return nil }
func (f *fakeMonitorRepo) SetLastAlertSentAt(ctx context.Context, id int64, at time.Time) error {
	return nil
}

type countingWorker struct {
	n atomic.Int64
}

func (w *countingWorker) Run(ctx context.Context, m *monitor.Monitor) error {
	w.n.Add(1)
	return nil
}

func TestTick_DrainsAllPagesBeforeReturning(t *testing.T) {
	page1 := []*monitor.Monitor{{ID: 1}, {ID: 2}}
	repo := &fakeMonitorRepo{pages: [][]*monitor.Monitor{page1, {}}}
	w := &countingWorker{}
	s := New(zap.NewNop(), repo, w)

	s.tick(context.Background(), 1, "1m")

	if w.n.Load() != 2 {
		t.Fatalf("expected 2 monitor runs, got %d", w.n.Load())
	}
}

func TestTick_StopsOnEmptyPage(t *testing.T) {
	repo := &fakeMonitorRepo{pages: [][]*monitor.Monitor{{}}}
	w := &countingWorker{}
	s := New(zap.NewNop(), repo, w)

	s.tick(context.Background(), 5, "5m")

	if w.n.Load() != 0 {
		t.Fatalf("expected no runs on empty due set, got %d", w.n.Load())
	}
}

func TestJitter_AlwaysBelowBucket(t *testing.T) {
	for _, b := range monitor.Frequencies {
		w := jitter(b)
		bucket := time.Duration(b) * time.Minute
		if w >= bucket {
			t.Fatalf("window for bucket %d must be < bucket, got %v >= %v", b, w, bucket)
		}
		if w <= 0 {
			t.Fatalf("window for bucket %d must be positive, got %v", b, w)
		}
	}
}
