package alert

import "time"

type Alert struct {
	ID        int64
	UserID    int64
	MonitorID int64
	URL       string
	Tries     int
	MaxTries  int
	CreatedAt time.Time
}

const DefaultMaxTries = 3
