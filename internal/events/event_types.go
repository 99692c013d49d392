package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventMemberCreated EventType = "member_created"
	EventMemberUpdated EventType = "member_updated"
	EventMemberDeleted EventType = "member_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	MemberID  int64       `json:"member_id"`
	ActorID   *int64      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewMemberEvent stamps a fresh id and timestamp onto an event.
func NewMemberEvent(eventType EventType, memberID int64, actorID *int64, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		MemberID:  memberID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// MemberSnapshotPayload carries the identifying fields of the member written.
type MemberSnapshotPayload struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	MembershipType string `json:"membership_type"`
	Status         string `json:"status"`
}

// MemberUpdatedPayload lists the attributes that changed.
type MemberUpdatedPayload struct {
	MemberSnapshotPayload
	Changed []string `json:"changed"`
}
