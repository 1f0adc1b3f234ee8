package handlers

import (
	"clip_service/internal/trending/app"
	"clip_service/internal/trending/domain"

	"github.com/gofiber/fiber/v2"
)

// TrendingHandler on-demand trending trigger
type TrendingHandler struct {
	Runner app.Runner
}

// NewTrendingHandler create TrendingHandler
func NewTrendingHandler(runner app.Runner) *TrendingHandler {
	return &TrendingHandler{Runner: runner}
}

// Run POST /trending/run
// 200 success, 409 another run holds the lock, 500 run failed
func (h *TrendingHandler) Run(c *fiber.Ctx) error {
	res := h.Runner.Run(c.UserContext(), domain.TriggerManual)

	switch {
	case res.Skipped:
		return c.Status(fiber.StatusConflict).JSON(res)
	case !res.Success:
		return c.Status(fiber.StatusInternalServerError).JSON(res)
	default:
		return c.JSON(res)
	}
}
