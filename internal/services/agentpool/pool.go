package agentpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/pulsecheck/controlplane/internal/domain/agent"
)

// NoAgents is returned by Next when the pool has no active agents of the
// configured type, and by Other when no agent other than except exists.
var NoAgents = errors.New("agentpool: no agents registered")

// Pool holds the active agents of one type and rotates through them.
// The rotation index is process-wide shared state: every caller across
// every goroutine advances the same counter, so successive Next calls
// from unrelated monitor workers interleave fairly.
type Pool struct {
	log  *zap.Logger
	repo agent.Repo
	typ  agent.Type

	mu      sync.RWMutex
	agents  []*agent.MonitorAgent
	idx     atomic.Uint64
	mRefresh prometheus.Counter
	mEmpty   prometheus.Counter
}

func New(log *zap.Logger, repo agent.Repo, typ agent.Type) *Pool {
	return &Pool{
		log:  log,
		repo: repo,
		typ:  typ,
		mRefresh: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "agentpool_refresh_total",
			Help:        "Agent pool refreshes from the repository.",
			ConstLabels: prometheus.Labels{"pool": string(typ)},
		}),
		mEmpty: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "agentpool_empty_total",
			Help:        "Next/Other calls that found an empty pool.",
			ConstLabels: prometheus.Labels{"pool": string(typ)},
		}),
	}
}

// Refresh reloads the agent list from the repository. Call it once at
// startup and periodically thereafter; it never removes an in-flight
// rotation index, so a shrinking pool simply wraps sooner.
func (p *Pool) Refresh(ctx context.Context) error {
	list, err := p.repo.ListByType(ctx, p.typ)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.agents = list
	p.mu.Unlock()
	p.mRefresh.Inc()
	return nil
}

// Run periodically calls Refresh until ctx is cancelled.
func (p *Pool) Run(ctx context.Context, interval time.Duration) error {
	if err := p.Refresh(ctx); err != nil {
		p.log.Warn("agentpool initial refresh", zap.Error(err))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.Refresh(ctx); err != nil {
				p.log.Warn("agentpool refresh", zap.Error(err))
			}
		}
	}
}

// Next returns the next agent URL in round-robin order.
func (p *Pool) Next() (string, error) {
	p.mu.RLock()
	n := len(p.agents)
	if n == 0 {
		p.mu.RUnlock()
		p.mEmpty.Inc()
		return "", NoAgents
	}
	i := p.idx.Add(1) - 1
	url := p.agents[int(i%uint64(n))].URL
	p.mu.RUnlock()
	return url, nil
}

// Other returns any agent URL not equal to except. It does not advance
// the rotation index; callers use it for failover/verification, not
// scheduling fairness.
func (p *Pool) Other(except string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, a := range p.agents {
		if a.URL != except {
			return a.URL, nil
		}
	}
	if len(p.agents) == 0 {
		p.mEmpty.Inc()
		return "", NoAgents
	}
	return "", NoAgents
}
