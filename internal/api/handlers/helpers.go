package handlers

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/pulseboard/pulseboard/internal/errs"
)

// GetUserID reads the user id the auth middleware validated and stored.
// Outside an authenticated route it returns 0, which no ownership check
// accepts.
func GetUserID(c *fiber.Ctx) int64 {
	userID, _ := c.Locals("user_id").(int64)
	return userID
}

// HandleError maps domain errors to HTTP responses. Consistency
// violations and unexpected errors are logged and returned as a
// generic 500 so internals never leak.
func HandleError(c *fiber.Ctx, err error) error {
	switch {
	case errs.IsValidation(err), errs.IsInvalidTransition(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errs.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Something went wrong",
		})
	}
}

func parseID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.Validation(name, "must be a positive integer")
	}
	return id, nil
}
