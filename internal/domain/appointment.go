package domain

import "time"

// Location is one MVC office to monitor. Loaded from configuration once per
// process and never mutated during a scan.
type Location struct {
	Name string `json:"name" koanf:"name"`
	ID   int    `json:"id" koanf:"id"`
	Skip bool   `json:"skip,omitempty" koanf:"skip"`
}

// Appointment is one (location, date) pair with at least one open time slot.
// Dates use MM/DD/YYYY, matching the wizard's own display format.
type Appointment struct {
	Location   string   `json:"location"`
	LocationID int      `json:"locationId"`
	Date       string   `json:"date"`
	DayOfWeek  string   `json:"dayOfWeek"`
	Times      []string `json:"times"`
	URL        string   `json:"url"`
}

// NotificationRecord is stored under the appointment-set fingerprint and
// suppresses duplicate emails until it expires.
type NotificationRecord struct {
	AppointmentKey string    `json:"appointmentKey"`
	SentAt         time.Time `json:"sentAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

// CheckResult summarizes one full run across all locations.
type CheckResult struct {
	Success          bool          `json:"success"`
	Appointments     []Appointment `json:"appointments"`
	Timestamp        time.Time     `json:"timestamp"`
	LocationsChecked int           `json:"locationsChecked"`
	Error            string        `json:"error,omitempty"`
	Duration         string        `json:"duration,omitempty"`
}

// HistoryEntry is one row of the rolling check log.
type HistoryEntry struct {
	Timestamp         time.Time `json:"timestamp"`
	AppointmentsFound int       `json:"appointmentsFound"`
	LocationsChecked  int       `json:"locationsChecked"`
	DurationMS        int64     `json:"durationMs"`
}

// ErrorEntry is one row of the rolling error log.
type ErrorEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Error      string    `json:"error"`
	DurationMS int64     `json:"durationMs"`
}
