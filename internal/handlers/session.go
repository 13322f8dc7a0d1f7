package handlers

import (
	"github.com/gofiber/fiber/v2"

	"skillshare/internal/apperr"
	"skillshare/internal/services"
)

// SessionHandler handles session lifecycle endpoints
type SessionHandler struct {
	sessions *services.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Create handles POST /sessions/
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var input services.CreateSessionInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	session, err := h.sessions.Create(c.Context(), userID, input)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

// List handles GET /sessions/
func (h *SessionHandler) List(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	views, err := h.sessions.List(c.Context(), userID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(views)
}

// Update handles PUT /sessions/:id
func (h *SessionHandler) Update(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var updates map[string]interface{}
	if err := c.BodyParser(&updates); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	session, err := h.sessions.Update(c.Context(), userID, c.Params("id"), updates)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(session)
}
