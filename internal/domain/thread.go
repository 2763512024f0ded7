package domain

import "time"

// ThreadType distinguishes conversation containers.
type ThreadType string

const (
	ThreadTypeDirectMessage ThreadType = "directMessageThread"
	ThreadTypeStory         ThreadType = "story"
)

// Thread is a conversation container. Community and channel ids are absent for
// direct-message threads. The registry treats threads as read-only.
type Thread struct {
	ID           string
	Type         ThreadType
	CommunityID  *string
	ChannelID    *string
	Watercooler  bool
	LastActiveAt time.Time
	CreatedAt    time.Time
}

// IsDirectMessage reports whether the thread is a 1:1 conversation.
func (t *Thread) IsDirectMessage() bool {
	return t != nil && t.Type == ThreadTypeDirectMessage
}
