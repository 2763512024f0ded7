package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/chatloom/chat-service/internal/api/dto"
	"github.com/chatloom/chat-service/internal/auth"
	"github.com/chatloom/chat-service/internal/domain"
	"github.com/chatloom/chat-service/internal/media"
	"github.com/chatloom/chat-service/internal/service"
	apperrors "github.com/chatloom/chat-service/pkg/util/errorutil"
)

// MessagesHandler exposes the message lifecycle endpoints.
type MessagesHandler struct {
	service *service.MessageService
}

// NewMessagesHandler constructs handler.
func NewMessagesHandler(messageService *service.MessageService) *MessagesHandler {
	return &MessagesHandler{service: messageService}
}

// SendMessage POST /messages.
func (h *MessagesHandler) SendMessage(c *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ThreadID == "" {
		return apperrors.NewValidationError("thread_id required", nil)
	}

	input := service.MessageInput{
		ThreadID:    req.ThreadID,
		ThreadType:  req.ThreadType,
		MessageType: req.MessageType,
		Body:        req.Body,
	}
	if req.File != nil {
		input.File = &media.FileUpload{
			Name: req.File.Name,
			Size: req.File.Size,
			Type: req.File.Type,
			Data: req.File.Data,
		}
	}

	msg, err := h.service.AddMessage(c.Context(), auth.CurrentUser(c), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": messageResponse(msg)})
}

// DeleteMessage DELETE /messages/:id.
func (h *MessagesHandler) DeleteMessage(c *fiber.Ctx) error {
	deleted, err := h.service.DeleteMessage(c.Context(), auth.CurrentUser(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DeleteMessageResponse{Deleted: deleted}})
}

func messageResponse(msg *domain.EnrichedMessage) dto.MessageResponse {
	resp := dto.MessageResponse{
		ID:          msg.ID,
		ThreadID:    msg.ThreadID,
		ThreadType:  msg.ThreadType,
		SenderID:    msg.SenderID,
		MessageType: msg.MessageType,
		Content:     dto.MessageContentResponse{Body: msg.Content.Body},
		CreatedAt:   msg.CreatedAt,
	}
	if msg.File != nil {
		resp.File = &dto.FileMetadataResponse{
			Name: msg.File.Name,
			Size: msg.File.Size,
			Type: msg.File.Type,
		}
	}
	if msg.ContextPermissions != nil {
		resp.ContextPermissions = &dto.ContextPermissionsResponse{
			Reputation:  msg.ContextPermissions.Reputation,
			IsModerator: msg.ContextPermissions.IsModerator,
			IsOwner:     msg.ContextPermissions.IsOwner,
			CommunityID: msg.ContextPermissions.CommunityID,
		}
	}
	return resp
}
