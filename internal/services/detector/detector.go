package detector

import (
	"github.com/pulsecheck/controlplane/internal/domain/event"
	"github.com/pulsecheck/controlplane/internal/domain/monitor"
)

const unknown = "Unknown"

// ShouldAppend compares the authoritative field of fresh against the
// authoritative field of last (nil meaning no prior event) and reports
// whether a new event should be appended.
func ShouldAppend(kind monitor.Kind, fresh *event.Event, last *event.Event) bool {
	freshAuth := fresh.Authoritative(kind)
	lastAuth := unknown
	if last != nil {
		lastAuth = last.Authoritative(kind)
	}
	return freshAuth != lastAuth
}
