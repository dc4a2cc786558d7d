package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pulseboard/pulseboard/internal/service"
	"github.com/pulseboard/pulseboard/internal/transfer"
)

type AccountHandler struct {
	s service.AccountService
}

func NewAccountHandler(service service.AccountService) *AccountHandler {
	return &AccountHandler{s: service}
}

func (h *AccountHandler) ConnectAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var ac transfer.AccountConnection
	if err := c.BodyParser(&ac); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	account, err := h.s.Connect(c.Context(), userID, &ac)
	if err != nil {
		return HandleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"account": account,
	})
}

func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	accounts, err := h.s.List(c.Context(), userID)
	if err != nil {
		return HandleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"accounts": accounts,
	})
}

func (h *AccountHandler) DisconnectAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)

	accountID, err := parseID(c, "id")
	if err != nil {
		return HandleError(c, err)
	}

	account, err := h.s.Disconnect(c.Context(), userID, accountID)
	if err != nil {
		return HandleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"account": account,
	})
}

func (h *AccountHandler) ReconnectAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)

	accountID, err := parseID(c, "id")
	if err != nil {
		return HandleError(c, err)
	}

	var rc transfer.AccountReconnection
	if err := c.BodyParser(&rc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	account, err := h.s.Reconnect(c.Context(), userID, accountID, &rc)
	if err != nil {
		return HandleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"account": account,
	})
}
