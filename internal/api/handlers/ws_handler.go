package handlers

import (
	"log/slog"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/pulseboard/pulseboard/internal/feed"
)

type WSHandler struct {
	hub *feed.Hub
}

func NewWSHandler(hub *feed.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Serve streams telemetry events to the client until it disconnects.
func (h *WSHandler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		events := h.hub.Subscribe()
		defer h.hub.Unsubscribe(events)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				if err := conn.WriteJSON(event); err != nil {
					slog.Info(err.Error())
					return
				}
			}
		}
	})
}
