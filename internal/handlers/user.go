package handlers

import (
	"github.com/gofiber/fiber/v2"

	"skillshare/internal/apperr"
	"skillshare/internal/models"
	"skillshare/internal/services"
)

// UserHandler handles user profile endpoints
type UserHandler struct {
	users           *services.UserService
	stats           *services.StatsService
	dailyGoalTarget int
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *services.UserService, stats *services.StatsService, dailyGoalTarget int) *UserHandler {
	return &UserHandler{users: users, stats: stats, dailyGoalTarget: dailyGoalTarget}
}

// Create handles POST /users/
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var input services.CreateUserInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if input.ID == "" {
		input.ID = c.Locals("user_id").(string)
	}

	user, err := h.users.Create(c.Context(), input)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Me handles GET /users/me with the staleness-gated recompute. The configured
// daily goal target rides along so clients can render progress as n/target.
func (h *UserHandler) Me(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	user, err := h.stats.EnsureFresh(c.Context(), userID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(struct {
		*models.User
		DailyGoalTarget int `json:"dailyGoalTarget"`
	}{user, h.dailyGoalTarget})
}

// UpdateMe handles PUT /users/me
func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var updates map[string]interface{}
	if err := c.BodyParser(&updates); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	user, err := h.users.UpdateProfile(c.Context(), userID, updates)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(user)
}

// Get handles GET /users/:id
func (h *UserHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.Get(c.Context(), c.Params("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(user)
}

// List handles GET /users/
func (h *UserHandler) List(c *fiber.Ctx) error {
	profiles, err := h.users.List(c.Context())
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(profiles)
}

// CheckIn handles POST /users/check-in
func (h *UserHandler) CheckIn(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	result, err := h.stats.CheckIn(c.Context(), userID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(result)
}

// Trust handles POST /users/:id/trust?score=
func (h *UserHandler) Trust(c *fiber.Ctx) error {
	raterID := c.Locals("user_id").(string)
	targetID := c.Params("id")

	score := c.QueryFloat("score", -1)
	if score < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "score query parameter is required"})
	}

	trust, err := h.stats.RateUser(c.Context(), raterID, targetID, score)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"trustScore": trust})
}
