package monitor

import "time"

type Kind string

const (
	KindWeb  Kind = "web"
	KindPing Kind = "ping"
	KindPort Kind = "port"
)

// Frequencies enumerates the allowed check cadences, in minutes.
var Frequencies = []int{1, 5, 10, 30, 60}

// AlertFrequencies enumerates the allowed minimum gaps between alerts, in minutes.
var AlertFrequencies = []int{1, 5, 10, 20, 30, 60, 1440}

type Monitor struct {
	ID              int64      `json:"id"`
	UserID          *int64     `json:"user_id"`
	Name            string     `json:"name"`
	Kind            Kind       `json:"kind"`
	URL             string     `json:"url"`
	Port            int        `json:"port"`
	FrequencyMin    int        `json:"frequency_min"`
	AlertFreqMin    int        `json:"alert_frequency_min"`
	IsPaused        bool       `json:"is_paused"`
	LastAlertSentAt *time.Time `json:"last_alert_sent_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (m *Monitor) EffectivePort() int {
	if m.Port <= 0 {
		return 443
	}
	return m.Port
}

func IsValidFrequency(min int) bool {
	for _, f := range Frequencies {
		if f == min {
			return true
		}
	}
	return false
}

func IsValidAlertFrequency(min int) bool {
	for _, f := range AlertFrequencies {
		if f == min {
			return true
		}
	}
	return false
}
