package detector

import (
	"testing"

	"github.com/pulsecheck/controlplane/internal/domain/event"
	"github.com/pulsecheck/controlplane/internal/domain/monitor"
)

func TestShouldAppend_NoPriorEventAlwaysAppends(t *testing.T) {
	fresh := &event.Event{Availability: event.AvailabilityUp}
	if !ShouldAppend(monitor.KindWeb, fresh, nil) {
		t.Fatal("expected append on first event")
	}
}

func TestShouldAppend_SameAuthoritativeNoAppend(t *testing.T) {
	fresh := &event.Event{Availability: event.AvailabilityUp}
	last := &event.Event{Availability: event.AvailabilityUp}
	if ShouldAppend(monitor.KindWeb, fresh, last) {
		t.Fatal("expected no append when authoritative field unchanged")
	}
}

func TestShouldAppend_DifferentAuthoritativeAppends(t *testing.T) {
	fresh := &event.Event{Availability: event.AvailabilityDown}
	last := &event.Event{Availability: event.AvailabilityUp}
	if !ShouldAppend(monitor.KindWeb, fresh, last) {
		t.Fatal("expected append on transition")
	}
}

func TestShouldAppend_UsesKindAuthoritativeField(t *testing.T) {
	// availability differs but kind is ping, so the ping field governs.
	fresh := &event.Event{Availability: event.AvailabilityDown, Ping: event.PingReachable}
	last := &event.Event{Availability: event.AvailabilityUp, Ping: event.PingReachable}
	if ShouldAppend(monitor.KindPing, fresh, last) {
		t.Fatal("expected no append: ping field unchanged even though availability differs")
	}
}
