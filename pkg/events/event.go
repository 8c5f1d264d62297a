package events

import "time"

// Event type codes published on the bus.
const (
	TypeSessionEnded = "SESSION_ENDED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "SESSION_ENDED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the generic implementation used by publishers and the
// subscriber when reconstructing events off the wire.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewSessionEnded signals that a conversation hit a hard limit or was closed
// by the user. The save pipeline consumes it to persist the session's
// ephemeral context.
func NewSessionEnded(sessionId string, profileId *int64, reasons []string) Event {
	data := map[string]interface{}{
		"session_id":  sessionId,
		"end_reasons": reasons,
	}
	if profileId != nil {
		data["profile_id"] = *profileId
	}
	return BaseEvent{
		Type:       TypeSessionEnded,
		Data:       data,
		OccurredAt: time.Now(),
	}
}
