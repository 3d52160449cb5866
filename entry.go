package activitylog

import "time"

// Event names the lifecycle point an entry was produced for.
type Event string

const (
	EventCreated       Event = "created"
	EventUpdated       Event = "updated"
	EventDeleted       Event = "deleted"
	EventPivotAttached Event = "pivotAttached"
	EventPivotDetached Event = "pivotDetached"
	EventPivotUpdated  Event = "pivotUpdated"
)

// UpdateFamily reports whether e carries old values: direct updates and pivot changes.
func (e Event) UpdateFamily() bool {
	switch e {
	case EventUpdated, EventPivotAttached, EventPivotDetached, EventPivotUpdated:
		return true
	default:
		return false
	}
}

// DefaultEvents are recorded when Options.Events is empty.
var DefaultEvents = []Event{EventCreated, EventUpdated, EventDeleted}

// Entry is a single activity record handed to the Sink.
type Entry struct {
	ID          string    `json:"id"`
	LogName     string    `json:"log_name"`
	Event       Event     `json:"event"`
	SubjectType string    `json:"subject_type"`
	SubjectID   any       `json:"subject_id"`
	Causer      string    `json:"causer,omitempty"`
	TraceID     string    `json:"trace_id,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Properties  Payload   `json:"properties"`
	CreatedAt   time.Time `json:"created_at"`
}

// meta carries operational context for audit trails.
type meta struct {
	causer  string
	traceID string
	reason  string
}
