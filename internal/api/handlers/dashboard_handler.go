package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pulseboard/pulseboard/internal/service"
)

type DashboardHandler struct {
	s service.DashboardService
}

func NewDashboardHandler(service service.DashboardService) *DashboardHandler {
	return &DashboardHandler{s: service}
}

func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	userID := GetUserID(c)

	stats, err := h.s.SummaryStats(c.Context(), userID)
	if err != nil {
		return HandleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"stats": stats,
	})
}

func (h *DashboardHandler) GetUpcoming(c *fiber.Ctx) error {
	userID := GetUserID(c)

	posts, err := h.s.Upcoming(c.Context(), userID, c.QueryInt("limit"))
	if err != nil {
		return HandleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"posts": posts,
	})
}

func (h *DashboardHandler) GetPerformance(c *fiber.Ctx) error {
	userID := GetUserID(c)

	posts, err := h.s.RecentPerformance(c.Context(), userID, c.QueryInt("limit"))
	if err != nil {
		return HandleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"posts": posts,
	})
}

func (h *DashboardHandler) GetComparison(c *fiber.Ctx) error {
	userID := GetUserID(c)

	rows, err := h.s.PlatformComparison(c.Context(), userID)
	if err != nil {
		return HandleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"platforms": rows,
	})
}

func (h *DashboardHandler) GetAnalytics(c *fiber.Ctx) error {
	userID := GetUserID(c)

	analytics, err := h.s.Analytics(c.Context(), userID)
	if err != nil {
		return HandleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"analytics": analytics,
	})
}

func (h *DashboardHandler) GetAccountAnalytics(c *fiber.Ctx) error {
	userID := GetUserID(c)

	accountID, err := parseID(c, "id")
	if err != nil {
		return HandleError(c, err)
	}

	analytics, err := h.s.AccountAnalytics(c.Context(), userID, accountID, c.QueryInt("limit"))
	if err != nil {
		return HandleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"analytics": analytics,
	})
}
