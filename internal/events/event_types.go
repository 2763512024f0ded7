package events

import (
	"time"

	"github.com/chatloom/chat-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventMessageSent        EventType = "message_sent"
	EventMessageDeleted     EventType = "message_deleted"
	EventParticipantAdded   EventType = "participant_added"
	EventParticipantRemoved EventType = "participant_removed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string `json:"user_id"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ThreadID  string      `json:"thread_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// MessageSentPayload payload.
type MessageSentPayload struct {
	MessageID   string             `json:"message_id"`
	ThreadType  domain.ThreadType  `json:"thread_type"`
	MessageType domain.MessageType `json:"message_type"`
	SenderID    string             `json:"sender_id"`
	BodyPreview string             `json:"body_preview"`
}

// MessageDeletedPayload payload.
type MessageDeletedPayload struct {
	MessageID  string            `json:"message_id"`
	SenderID   string            `json:"sender_id"`
	DeleterID  string            `json:"deleter_id"`
	ThreadType domain.ThreadType `json:"thread_type"`
}

// ParticipantChangedPayload payload for add/remove events.
type ParticipantChangedPayload struct {
	UserID               string `json:"user_id"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
}
