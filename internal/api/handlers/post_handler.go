package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/queue"
	"github.com/pulseboard/pulseboard/internal/service"
	"github.com/pulseboard/pulseboard/internal/transfer"
)

type PostHandler struct {
	s           service.PostService
	ledger      service.LedgerService
	AsynqClient *asynq.Client
}

func NewPostHandler(service service.PostService, ledger service.LedgerService, asynqClient *asynq.Client) *PostHandler {
	return &PostHandler{s: service, ledger: ledger, AsynqClient: asynqClient}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var pc transfer.PostCreation
	if err := c.BodyParser(&pc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	post, delay, err := h.s.Create(c.Context(), userID, &pc)
	if err != nil {
		return HandleError(c, err)
	}

	if post.Status == models.PostStatusScheduled {
		err = queue.EnqueuePost(h.AsynqClient, queue.PublishPostPayload{PostID: post.ID}, delay)
		if err != nil {
			// The reconcile sweep will pick the post up if the enqueue
			// was lost.
			slog.Error(err.Error())
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"post": post,
	})
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	postID, err := parseID(c, "id")
	if err != nil {
		return HandleError(c, err)
	}

	post, err := h.s.Get(c.Context(), userID, postID)
	if err != nil {
		return HandleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"post": post,
	})
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)
	status := c.Query("status")

	posts, err := h.s.List(c.Context(), userID, status)
	if err != nil {
		return HandleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"posts": posts,
	})
}

func (h *PostHandler) UpdatePostStatus(c *fiber.Ctx) error {
	userID := GetUserID(c)

	postID, err := parseID(c, "id")
	if err != nil {
		return HandleError(c, err)
	}

	var su transfer.StatusUpdate
	if err := c.BodyParser(&su); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	post, err := h.s.UpdateStatus(c.Context(), userID, postID, su.Status)
	if err != nil {
		return HandleError(c, err)
	}

	if post.Status == models.PostStatusScheduled && post.ScheduledFor != nil {
		// Rescheduled posts (e.g. a failed one back to scheduled) need
		// a publish task again.
		if err := queue.EnqueuePost(h.AsynqClient, queue.PublishPostPayload{PostID: post.ID}, 0); err != nil {
			slog.Error(err.Error())
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"post": post,
	})
}

func (h *PostHandler) DeletePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	postID, err := parseID(c, "id")
	if err != nil {
		return HandleError(c, err)
	}

	removed, err := h.s.Remove(c.Context(), userID, postID)
	if err != nil {
		return HandleError(c, err)
	}
	if !removed {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Post not found",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PostHandler) ListPlatformPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	postID, err := parseID(c, "id")
	if err != nil {
		return HandleError(c, err)
	}

	rows, err := h.ledger.ListForPost(c.Context(), userID, postID)
	if err != nil {
		return HandleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"platform_posts": rows,
	})
}

func (h *PostHandler) UpdatePlatformPostMetrics(c *fiber.Ctx) error {
	userID := GetUserID(c)

	platformPostID, err := parseID(c, "id")
	if err != nil {
		return HandleError(c, err)
	}

	var patch models.Metrics
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	row, err := h.ledger.UpdateMetrics(c.Context(), userID, platformPostID, patch)
	if err != nil {
		return HandleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"platform_post": row,
	})
}
