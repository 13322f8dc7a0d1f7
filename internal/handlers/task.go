package handlers

import (
	"github.com/gofiber/fiber/v2"

	"skillshare/internal/apperr"
	"skillshare/internal/services"
)

// TaskHandler handles task endpoints
type TaskHandler struct {
	tasks *services.TaskService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(tasks *services.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// Create handles POST /tasks/
func (h *TaskHandler) Create(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var input services.CreateTaskInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	task, err := h.tasks.Create(c.Context(), userID, input)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

// List handles GET /tasks/
func (h *TaskHandler) List(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	tasks, err := h.tasks.List(c.Context(), userID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(tasks)
}
