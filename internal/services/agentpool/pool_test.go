package agentpool

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/pulsecheck/controlplane/internal/domain/agent"
)

type fakeAgentRepo struct {
	agents []*agent.MonitorAgent
}

func (f *fakeAgentRepo) ListByType(ctx context.Context, t agent.Type) ([]*agent.MonitorAgent, error) {
	return f.agents, nil
}

func (f *fakeAgentRepo) Create(ctx context.Context, a *agent.MonitorAgent) error {
	f.agents = append(f.agents, a)
	return nil
}

func newTestPool(t *testing.T, urls ...string) *Pool {
	t.Helper()
	agents := make([]*agent.MonitorAgent, 0, len(urls))
	for i, u := range urls {
		agents = append(agents, &agent.MonitorAgent{ID: int64(i + 1), Type: agent.TypeMonitor, URL: u})
	}
	p := New(zap.NewNop(), &fakeAgentRepo{agents: agents}, agent.TypeMonitor)
	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	return p
}

func TestNext_EmptyPool(t *testing.T) {
	p := newTestPool(t)
	if _, err := p.Next(); err != NoAgents {
		t.Fatalf("want NoAgents, got %v", err)
	}
}

func TestNext_Rotates(t *testing.T) {
	p := newTestPool(t, "a1", "a2", "a3")
	seen := map[string]int{}
	for i := 0; i < 9; i++ {
		u, err := p.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		seen[u]++
	}
	for _, u := range []string{"a1", "a2", "a3"} {
		if seen[u] != 3 {
			t.Fatalf("expected 3 hits for %s, got %d (seen=%v)", u, seen[u], seen)
		}
	}
}

func TestOther_SkipsExcept(t *testing.T) {
	p := newTestPool(t, "a1", "a2", "a3")
	for i := 0; i < 10; i++ {
		u, err := p.Other("a1")
		if err != nil {
			t.Fatalf("other: %v", err)
		}
		if u == "a1" {
			t.Fatalf("Other returned the excepted URL")
		}
	}
}

func TestOther_EmptyPool(t *testing.T) {
	p := newTestPool(t)
	if _, err := p.Other("a1"); err != NoAgents {
		t.Fatalf("want NoAgents, got %v", err)
	}
}

func TestOther_SingleAgentNoAlternate(t *testing.T) {
	p := newTestPool(t, "a1")
	if _, err := p.Other("a1"); err != NoAgents {
		t.Fatalf("want NoAgents when only the excepted agent exists, got %v", err)
	}
}
