package domain

import "time"

// MessageType classifies the payload a message carries.
type MessageType string

const (
	MessageTypeText    MessageType = "text"
	MessageTypeDraftJS MessageType = "draftjs"
	MessageTypeMedia   MessageType = "media"
)

// Known reports whether the message type is one the service handles.
func (t MessageType) Known() bool {
	switch t {
	case MessageTypeText, MessageTypeDraftJS, MessageTypeMedia:
		return true
	}
	return false
}

// MessageContent is the type-dependent payload of a message. For text messages
// Body is the plain string, for draftjs it is the serialized document, and for
// media it is the durable URL returned by the uploader.
type MessageContent struct {
	Body string `json:"body"`
}

// FileMetadata describes the original upload of a media message.
type FileMetadata struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// Message is a single message inside a thread.
type Message struct {
	ID          string
	ThreadID    string
	ThreadType  ThreadType
	SenderID    string
	MessageType MessageType
	Content     MessageContent
	File        *FileMetadata
	CreatedAt   time.Time
}

// ContextPermissions is a per-response projection of the sender's standing in
// the community owning the thread. It is computed at read time and never stored.
type ContextPermissions struct {
	Reputation  int     `json:"reputation"`
	IsModerator bool    `json:"isModerator"`
	IsOwner     bool    `json:"isOwner"`
	CommunityID *string `json:"communityId,omitempty"`
}

// EnrichedMessage is a stored message together with the viewer-facing
// permission projection. Direct-message threads never carry the projection.
type EnrichedMessage struct {
	Message
	ContextPermissions *ContextPermissions
}
