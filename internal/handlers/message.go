package handlers

import (
	"github.com/gofiber/fiber/v2"

	"skillshare/internal/apperr"
	"skillshare/internal/services"
)

// MessageHandler handles chat history endpoints
type MessageHandler struct {
	messages *services.MessageService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// History handles GET /messages/history/:otherUserId
func (h *MessageHandler) History(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	history, err := h.messages.History(c.Context(), userID, c.Params("otherUserId"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(history)
}

// Contacts handles GET /messages/contacts
func (h *MessageHandler) Contacts(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	contacts, err := h.messages.Contacts(c.Context(), userID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(contacts)
}
