package agent

import "context"

type Repo interface {
	// ListByType returns all agents of the given type, ordered by ID, the
	// order the pool rotates through.
	ListByType(ctx context.Context, t Type) ([]*MonitorAgent, error)

	// Create registers a new agent endpoint.
	Create(ctx context.Context, a *MonitorAgent) error
}
