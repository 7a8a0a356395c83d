package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/pulsecheck/controlplane/internal/domain/agent"
	"github.com/pulsecheck/controlplane/internal/domain/event"
	"github.com/pulsecheck/controlplane/internal/domain/monitor"
	"github.com/pulsecheck/controlplane/internal/services/aggregator"
)

// Handlers serves the read-oriented JSON API described in the read
// aggregator component, plus thin unauthenticated write endpoints used
// to seed data for local runs and tests.
type Handlers struct {
	Agg      *aggregator.Usecase
	Monitors monitor.Repo
	Events   event.Repo
	Agents   agent.Repo
	Log      *zap.Logger
}

func NewRouter(h *Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/monitors/{id}/status", h.monitorStatus)
	mux.HandleFunc("GET /v1/monitors/{id}/uptime", h.monitorUptime)
	mux.HandleFunc("GET /v1/monitors/{id}/events", h.monitorEvents)
	mux.HandleFunc("GET /v1/users/{id}/stats", h.userStats)
	mux.HandleFunc("GET /v1/downtime/latest", h.latestDowntime)

	mux.HandleFunc("POST /v1/monitors", h.createMonitor)
	mux.HandleFunc("POST /v1/agents", h.createAgent)

	return cors([]string{"*"})(mux)
}

// cors wraps handler with permissive CORS for local/test use. The real
// origin allowlist is the out-of-scope REST collaborator's concern.
func cors(origins []string) func(http.Handler) http.Handler {
	allowAll := len(origins) == 1 && origins[0] == "*"
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if allowAll {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else if allowed[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
