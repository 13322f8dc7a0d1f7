package handlers

import (
	"github.com/gofiber/fiber/v2"

	"skillshare/internal/apperr"
	"skillshare/internal/services"
)

// MatchHandler handles matching endpoints
type MatchHandler struct {
	scorer  *services.ScorerService
	matches *services.MatchService
	stats   *services.StatsService
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(scorer *services.ScorerService, matches *services.MatchService, stats *services.StatsService) *MatchHandler {
	return &MatchHandler{scorer: scorer, matches: matches, stats: stats}
}

// Suggestions handles GET /matches/suggestions?teach=&learn=&limit=
func (h *MatchHandler) Suggestions(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	teach := services.ParseSkillList(c.Query("teach"))
	learn := services.ParseSkillList(c.Query("learn"))
	limit := c.QueryInt("limit", 0)

	suggestions, err := h.scorer.Suggestions(c.Context(), userID, teach, learn, limit)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(suggestions)
}

// Save handles POST /matches/saved?matchedUserId=
func (h *MatchHandler) Save(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	targetID := c.Query("matchedUserId")
	if targetID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "matchedUserId query parameter is required"})
	}

	result, err := h.matches.SaveMatch(c.Context(), userID, targetID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// Saved handles GET /matches/saved
func (h *MatchHandler) Saved(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	views, err := h.matches.SavedMatches(c.Context(), userID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(views)
}

// Unsave handles DELETE /matches/saved/:matchedUserId
func (h *MatchHandler) Unsave(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	if err := h.matches.UnsaveMatch(c.Context(), userID, c.Params("matchedUserId")); err != nil {
		return apperr.Respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Leaderboard handles GET /leaderboard?sortBy=xp|streak
func (h *MatchHandler) Leaderboard(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	entries, myRank, err := h.stats.Leaderboard(c.Context(), userID, c.Query("sortBy", "xp"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"entries": entries, "myRank": myRank})
}
