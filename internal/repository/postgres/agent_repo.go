package postgres

import (
	"context"
	"fmt"

	"github.com/pulsecheck/controlplane/internal/domain/agent"
)

var _ agent.Repo = (*AgentRepo)(nil)

type AgentRepo struct{ db *DB }

func NewAgentRepo(db *DB) *AgentRepo { return &AgentRepo{db: db} }

const qAgentListByType = `
SELECT id, type, region, url FROM monitor_agents WHERE type = $1 ORDER BY id ASC;`

const qAgentInsert = `
INSERT INTO monitor_agents (type, region, url) VALUES ($1, $2, $3) RETURNING id;`

func (r *AgentRepo) Create(ctx context.Context, a *agent.MonitorAgent) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if err := r.db.Pool.QueryRow(ctx, qAgentInsert, a.Type, a.Region, a.URL).Scan(&a.ID); err != nil {
		return fmt.Errorf("insert agent: %w", err)
	}
	return nil
}

func (r *AgentRepo) ListByType(ctx context.Context, t agent.Type) ([]*agent.MonitorAgent, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qAgentListByType, t)
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	defer rows.Close()

	var out []*agent.MonitorAgent
	for rows.Next() {
		var a agent.MonitorAgent
		if err := rows.Scan(&a.ID, &a.Type, &a.Region, &a.URL); err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
