package handlers

import (
	"github.com/gofiber/fiber/v2"

	"skillshare/internal/apperr"
	"skillshare/internal/services"
)

// ProjectHandler handles project endpoints
type ProjectHandler struct {
	projects *services.ProjectService
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projects *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// List handles GET /projects
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	projects, err := h.projects.List(c.Context())
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(projects)
}

// Create handles POST /projects
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var input services.CreateProjectInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	project, err := h.projects.Create(c.Context(), userID, input)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

// Delete handles DELETE /projects/:id
func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	if err := h.projects.Delete(c.Context(), userID, c.Params("id")); err != nil {
		return apperr.Respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Join handles POST /projects/:id/join
func (h *ProjectHandler) Join(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	project, err := h.projects.Join(c.Context(), userID, c.Params("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(project)
}

// AcceptInvite handles POST /projects/:id/accept-invite
func (h *ProjectHandler) AcceptInvite(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	project, err := h.projects.AcceptInvite(c.Context(), userID, c.Params("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(project)
}
