package agent

type Type string

const (
	TypeMonitor Type = "monitorAgents"
	TypeAlert   Type = "alertAgents"
)

// MonitorAgent is a remote prober or alert-dispatcher endpoint.
type MonitorAgent struct {
	ID     int64
	Type   Type
	Region string
	URL    string
}
