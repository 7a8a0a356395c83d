package event

import (
	"time"

	"github.com/pulsecheck/controlplane/internal/domain/monitor"
)

type Availability string

const (
	AvailabilityUp      Availability = "Up"
	AvailabilityDown    Availability = "Down"
	AvailabilityUnknown Availability = "Unknown"
)

type Ping string

const (
	PingReachable   Ping = "Reachable"
	PingUnreachable Ping = "Unreachable"
	PingUnknown     Ping = "Unknown"
)

type Port string

const (
	PortOpen    Port = "Open"
	PortClosed  Port = "Closed"
	PortUnknown Port = "Unknown"
)

// Event is one append-only record of an observed state transition.
type Event struct {
	ID               int64
	MonitorID        int64
	UserID           int64
	Kind             monitor.Kind
	Timestamp        time.Time
	EndTime          *time.Time
	Availability     Availability
	Ping             Ping
	Port             Port
	ResponseTimeMS   int64
	ConfirmedByAgent string
	Reason           string
}

// Authoritative returns the field corresponding to k, as a comparable string.
func (e *Event) Authoritative(k monitor.Kind) string {
	switch k {
	case monitor.KindWeb:
		return string(e.Availability)
	case monitor.KindPing:
		return string(e.Ping)
	case monitor.KindPort:
		return string(e.Port)
	default:
		return "Unknown"
	}
}

// IsAdverse reports whether the authoritative field for k is the negative value.
func (e *Event) IsAdverse(k monitor.Kind) bool {
	switch k {
	case monitor.KindWeb:
		return e.Availability == AvailabilityDown
	case monitor.KindPing:
		return e.Ping == PingUnreachable
	case monitor.KindPort:
		return e.Port == PortClosed
	default:
		return true
	}
}

// IsPositive reports whether the authoritative field for k is the positive value.
func (e *Event) IsPositive(k monitor.Kind) bool {
	switch k {
	case monitor.KindWeb:
		return e.Availability == AvailabilityUp
	case monitor.KindPing:
		return e.Ping == PingReachable
	case monitor.KindPort:
		return e.Port == PortOpen
	default:
		return false
	}
}
