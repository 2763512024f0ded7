package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/chatloom/chat-service/internal/config"
	"github.com/chatloom/chat-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventMessageSent, n.handleMessageSent)
	n.dispatcher.Subscribe(events.EventMessageDeleted, n.handleMessageDeleted)
	n.dispatcher.Subscribe(events.EventParticipantAdded, n.handleParticipantAdded)
	n.dispatcher.Subscribe(events.EventParticipantRemoved, n.handleParticipantRemoved)
}

func (n *NotificationService) handleMessageSent(ctx context.Context, event events.Event) error {
	n.logger.Info("MessageSent", zap.String("thread_id", event.ThreadID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleMessageDeleted(ctx context.Context, event events.Event) error {
	n.logger.Info("MessageDeleted", zap.String("thread_id", event.ThreadID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleParticipantAdded(ctx context.Context, event events.Event) error {
	n.logger.Info("ParticipantAdded", zap.String("thread_id", event.ThreadID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleParticipantRemoved(ctx context.Context, event events.Event) error {
	n.logger.Info("ParticipantRemoved", zap.String("thread_id", event.ThreadID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("thread_id", event.ThreadID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("thread_id", event.ThreadID),
		zap.String("event_type", string(event.Type)))
}
