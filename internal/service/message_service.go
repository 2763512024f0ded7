package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chatloom/chat-service/internal/content"
	"github.com/chatloom/chat-service/internal/domain"
	"github.com/chatloom/chat-service/internal/events"
	"github.com/chatloom/chat-service/internal/media"
	"github.com/chatloom/chat-service/internal/repository"
	apperrors "github.com/chatloom/chat-service/pkg/util/errorutil"
)

const uploadNamespace = "threads"

// MessageService coordinates the message lifecycle: submission with
// thread-kind side effects and content classification, and deletion with
// moderation authorization and participant retraction.
type MessageService struct {
	messages     repository.MessageRepository
	threads      repository.ThreadRepository
	participants repository.ParticipantRepository
	permissions  repository.PermissionRepository
	resolver     *PermissionResolver
	classifier   *content.Classifier
	uploader     media.ImageUploader
	dispatcher   events.Dispatcher
	logger       *zap.Logger
}

// MessageDependencies bundles collaborators for the message service.
type MessageDependencies struct {
	MessageRepo     repository.MessageRepository
	ThreadRepo      repository.ThreadRepository
	ParticipantRepo repository.ParticipantRepository
	PermissionRepo  repository.PermissionRepository
	Resolver        *PermissionResolver
	Classifier      *content.Classifier
	Uploader        media.ImageUploader
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
}

// MessageInput describes a message submission payload. Body carries the plain
// text or serialized draftjs document; File carries the raw media upload.
type MessageInput struct {
	ThreadID    string
	ThreadType  domain.ThreadType
	MessageType domain.MessageType
	Body        string
	File        *media.FileUpload
}

// NewMessageService constructs the service.
func NewMessageService(deps MessageDependencies) *MessageService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{
		messages:     deps.MessageRepo,
		threads:      deps.ThreadRepo,
		participants: deps.ParticipantRepo,
		permissions:  deps.PermissionRepo,
		resolver:     deps.Resolver,
		classifier:   deps.Classifier,
		uploader:     deps.Uploader,
		dispatcher:   deps.Dispatcher,
		logger:       logger,
	}
}

// AddMessage validates and persists a submission, then returns the stored
// message enriched with the sender's community standing.
func (s *MessageService) AddMessage(ctx context.Context, currentUser *domain.User, input MessageInput) (*domain.EnrichedMessage, error) {
	if currentUser == nil {
		return nil, apperrors.NewUnauthenticated("must be signed in to send messages")
	}

	thread, err := s.threads.GetByID(ctx, input.ThreadID)
	if err != nil {
		return nil, apperrors.NewUpstreamFailure(err)
	}

	// A missing thread means no side effects apply; persistence still proceeds.
	s.applyThreadSideEffects(ctx, thread, currentUser.ID)

	msg := &domain.Message{
		ThreadID:    input.ThreadID,
		ThreadType:  input.ThreadType,
		SenderID:    currentUser.ID,
		MessageType: input.MessageType,
		Content:     domain.MessageContent{Body: input.Body},
	}

	switch input.MessageType {
	case domain.MessageTypeText:
		// persisted as-is
	case domain.MessageTypeDraftJS:
		msg.Content.Body = s.classifier.PrepareDraftBody(input.Body)
	case domain.MessageTypeMedia:
		if input.File == nil {
			return nil, apperrors.NewValidationError("media message requires a file", nil)
		}
		url, err := s.uploader.Upload(ctx, *input.File, uploadNamespace, input.ThreadID)
		if err != nil {
			return nil, apperrors.NewUpstreamFailure(err)
		}
		msg.Content = domain.MessageContent{Body: url}
		msg.File = &domain.FileMetadata{
			Name: input.File.Name,
			Size: input.File.Size,
			Type: input.File.Type,
		}
	default:
		return nil, apperrors.NewUnknownMessageType(string(input.MessageType))
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperrors.NewUpstreamFailure(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventMessageSent,
		ThreadID: msg.ThreadID,
		Actor:    events.Actor{UserID: currentUser.ID},
		Payload: events.MessageSentPayload{
			MessageID:   msg.ID,
			ThreadType:  msg.ThreadType,
			MessageType: msg.MessageType,
			SenderID:    msg.SenderID,
			BodyPreview: bodyPreview(msg, 120),
		},
	})

	return s.enrich(ctx, msg, thread)
}

// DeleteMessage removes a message after authorization and retracts the
// sender's thread participation when their last message is gone.
func (s *MessageService) DeleteMessage(ctx context.Context, currentUser *domain.User, messageID string) (bool, error) {
	if currentUser == nil {
		return false, apperrors.NewUnauthenticated("must be signed in to delete messages")
	}

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return false, apperrors.NewUpstreamFailure(err)
	}
	if msg == nil {
		return false, apperrors.NewNotFound("message", map[string]any{"id": messageID})
	}

	if currentUser.ID != msg.SenderID {
		if err := s.authorizeModeratorDelete(ctx, currentUser, msg); err != nil {
			return false, err
		}
	}

	if err := s.messages.Delete(ctx, currentUser.ID, msg.ID); err != nil {
		return false, apperrors.NewUpstreamFailure(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventMessageDeleted,
		ThreadID: msg.ThreadID,
		Actor:    events.Actor{UserID: currentUser.ID},
		Payload: events.MessageDeletedPayload{
			MessageID:  msg.ID,
			SenderID:   msg.SenderID,
			DeleterID:  currentUser.ID,
			ThreadType: msg.ThreadType,
		},
	})

	// Direct-message threads have no participant registry to retract from.
	if msg.ThreadType == domain.ThreadTypeDirectMessage {
		return true, nil
	}

	remaining, err := s.messages.SenderHasMessagesInThread(ctx, msg.ThreadID, msg.SenderID)
	if err != nil {
		return false, apperrors.NewUpstreamFailure(err)
	}
	if remaining {
		return true, nil
	}

	if err := s.participants.Delete(ctx, msg.ThreadID, msg.SenderID); err != nil {
		return false, apperrors.NewUpstreamFailure(err)
	}
	s.publish(ctx, events.Event{
		Type:     events.EventParticipantRemoved,
		ThreadID: msg.ThreadID,
		Actor:    events.Actor{UserID: currentUser.ID},
		Payload:  events.ParticipantChangedPayload{UserID: msg.SenderID},
	})
	return true, nil
}

// applyThreadSideEffects performs the per-thread-kind state updates of a
// submission. They are not gating checks: failures are logged and the
// submission continues.
func (s *MessageService) applyThreadSideEffects(ctx context.Context, thread *domain.Thread, senderID string) {
	if thread == nil {
		return
	}

	if thread.IsDirectMessage() {
		if err := s.threads.SetLastActive(ctx, thread.ID); err != nil {
			s.logger.Warn("failed to bump thread last active", zap.String("thread_id", thread.ID), zap.Error(err))
		}
		if err := s.participants.SetLastSeen(ctx, thread.ID, senderID); err != nil {
			s.logger.Warn("failed to bump sender last seen", zap.String("thread_id", thread.ID), zap.Error(err))
		}
		return
	}

	// Watercooler always wins: membership is recorded without notifications
	// even when the thread classifies as a story.
	if thread.Watercooler {
		if err := s.participants.CreateWithoutNotifications(ctx, thread.ID, senderID); err != nil {
			s.logger.Warn("failed to register watercooler participant", zap.String("thread_id", thread.ID), zap.Error(err))
			return
		}
		s.publish(ctx, events.Event{
			Type:     events.EventParticipantAdded,
			ThreadID: thread.ID,
			Actor:    events.Actor{UserID: senderID},
			Payload:  events.ParticipantChangedPayload{UserID: senderID},
		})
		return
	}

	if thread.Type == domain.ThreadTypeStory {
		if err := s.participants.Create(ctx, thread.ID, senderID); err != nil {
			s.logger.Warn("failed to register participant", zap.String("thread_id", thread.ID), zap.Error(err))
			return
		}
		s.publish(ctx, events.Event{
			Type:     events.EventParticipantAdded,
			ThreadID: thread.ID,
			Actor:    events.Actor{UserID: senderID},
			Payload:  events.ParticipantChangedPayload{UserID: senderID, NotificationsEnabled: true},
		})
	}
}

// authorizeModeratorDelete decides whether a non-sender may delete a message.
// Direct messages have no moderation override at all.
func (s *MessageService) authorizeModeratorDelete(ctx context.Context, currentUser *domain.User, msg *domain.Message) error {
	if msg.ThreadType == domain.ThreadTypeDirectMessage {
		return apperrors.NewForbidden("direct messages can only be deleted by their sender")
	}

	thread, err := s.threads.GetByID(ctx, msg.ThreadID)
	if err != nil {
		return apperrors.NewUpstreamFailure(err)
	}
	if thread == nil {
		return apperrors.NewNotFound("thread", map[string]any{"id": msg.ThreadID})
	}

	var channelPerms, communityPerms *domain.Permissions
	if thread.ChannelID != nil {
		channelPerms, err = s.permissions.GetUserPermissionsInChannel(ctx, *thread.ChannelID, currentUser.ID)
		if err != nil {
			return apperrors.NewUpstreamFailure(err)
		}
	}
	if thread.CommunityID != nil {
		communityPerms, err = s.permissions.GetUserPermissionsInCommunity(ctx, *thread.CommunityID, currentUser.ID)
		if err != nil {
			return apperrors.NewUpstreamFailure(err)
		}
	}

	if channelPerms.CanModerate() || communityPerms.CanModerate() {
		return nil
	}
	return apperrors.NewForbidden("must be a channel or community moderator to delete other members' messages")
}

// enrich projects the stored message into its response shape. Direct-message
// threads are returned unmodified; everything else gains ContextPermissions.
func (s *MessageService) enrich(ctx context.Context, msg *domain.Message, thread *domain.Thread) (*domain.EnrichedMessage, error) {
	enriched := &domain.EnrichedMessage{Message: *msg}
	if msg.ThreadType == domain.ThreadTypeDirectMessage {
		return enriched, nil
	}

	var communityID *string
	if thread != nil {
		communityID = thread.CommunityID
	}

	ctxPerms := &domain.ContextPermissions{}
	if communityID != nil {
		perms, err := s.resolver.ForRequest().InCommunity(ctx, *communityID, msg.SenderID)
		if err != nil {
			return nil, apperrors.NewUpstreamFailure(err)
		}
		if perms != nil {
			ctxPerms.Reputation = perms.Reputation
			ctxPerms.IsModerator = perms.IsModerator
			ctxPerms.IsOwner = perms.IsOwner
		}
	}
	if msg.MessageType == domain.MessageTypeMedia {
		ctxPerms.CommunityID = communityID
	}
	enriched.ContextPermissions = ctxPerms
	return enriched, nil
}

func (s *MessageService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func bodyPreview(msg *domain.Message, max int) string {
	if msg.MessageType != domain.MessageTypeText {
		return ""
	}
	body := strings.TrimSpace(msg.Content.Body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
