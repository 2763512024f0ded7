package dto

import (
	"time"

	"github.com/chatloom/chat-service/internal/domain"
)

// SendMessageRequest payload. Body carries plain text or a serialized draftjs
// document; File carries a base64-encoded media upload.
type SendMessageRequest struct {
	ThreadID    string             `json:"thread_id"`
	ThreadType  domain.ThreadType  `json:"thread_type"`
	MessageType domain.MessageType `json:"message_type"`
	Body        string             `json:"body"`
	File        *FileUploadRequest `json:"file,omitempty"`
}

// FileUploadRequest describes a raw media upload.
type FileUploadRequest struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
	Data []byte `json:"data"`
}

// MessageResponse represents a stored message with its enrichment.
type MessageResponse struct {
	ID                 string                      `json:"id"`
	ThreadID           string                      `json:"thread_id"`
	ThreadType         domain.ThreadType           `json:"thread_type"`
	SenderID           string                      `json:"sender_id"`
	MessageType        domain.MessageType          `json:"message_type"`
	Content            MessageContentResponse      `json:"content"`
	File               *FileMetadataResponse       `json:"file,omitempty"`
	CreatedAt          time.Time                   `json:"created_at"`
	ContextPermissions *ContextPermissionsResponse `json:"context_permissions,omitempty"`
}

// MessageContentResponse payload body.
type MessageContentResponse struct {
	Body string `json:"body"`
}

// FileMetadataResponse media file descriptor.
type FileMetadataResponse struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// ContextPermissionsResponse viewer-facing permission projection.
type ContextPermissionsResponse struct {
	Reputation  int     `json:"reputation"`
	IsModerator bool    `json:"isModerator"`
	IsOwner     bool    `json:"isOwner"`
	CommunityID *string `json:"communityId,omitempty"`
}

// DeleteMessageResponse confirms a deletion.
type DeleteMessageResponse struct {
	Deleted bool `json:"deleted"`
}
