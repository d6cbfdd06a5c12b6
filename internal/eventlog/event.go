// Package eventlog turns an issue's raw change log into the chronological
// stream of status changes that metrics are computed from.
package eventlog

import "time"

// StatusField is the change-log field name that carries workflow transitions.
const StatusField = "status"

// RawChange is a single field change as reported by the issue tracker.
type RawChange struct {
	// Timestamp is the tracker's textual timestamp of the history entry.
	Timestamp string `json:"timestamp"`
	Author    string `json:"author,omitempty"`
	Field     string `json:"field"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
}

// StatusChangeEvent is a status-field change replayed from the change log.
type StatusChangeEvent struct {
	// Timestamp is zero when RawTimestamp could not be parsed.
	Timestamp    time.Time `json:"timestamp"`
	RawTimestamp string    `json:"raw_timestamp,omitempty"`
	FromStatus   string    `json:"from_status"`
	ToStatus     string    `json:"to_status"`
	Author       string    `json:"author,omitempty"`
}

// Malformed reports whether the event's timestamp could not be parsed.
func (e StatusChangeEvent) Malformed() bool {
	return e.Timestamp.IsZero()
}
