package feed

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/repository"
	"github.com/pulseboard/pulseboard/internal/service"
	"github.com/pulseboard/pulseboard/internal/transfer"
)

const MetricsChannel = "telemetry.metrics"

// Consumer ingests telemetry ticks published on the redis metrics
// channel, folds them into today's analytics samples for every
// connected account of the tick's platform, invalidates the affected
// users' stats caches, and forwards the tick to the websocket hub.
type Consumer struct {
	rdb       *redis.Client
	hub       *Hub
	sa        repository.SocialAccountRepository
	ar        repository.AnalyticsRepository
	dashboard service.DashboardService
}

func NewConsumer(
	rdb *redis.Client,
	hub *Hub,
	sa repository.SocialAccountRepository,
	ar repository.AnalyticsRepository,
	dashboard service.DashboardService) *Consumer {
	return &Consumer{
		rdb:       rdb,
		hub:       hub,
		sa:        sa,
		ar:        ar,
		dashboard: dashboard,
	}
}

// Run blocks consuming the metrics channel until the context ends.
func (c *Consumer) Run(ctx context.Context) {
	sub := c.rdb.Subscribe(ctx, MetricsChannel)
	defer sub.Close()

	log.Printf("Telemetry consumer listening on %s", MetricsChannel)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			if err := c.handle(ctx, []byte(msg.Payload)); err != nil {
				slog.Info(err.Error())
			}
		}
	}
}

func (c *Consumer) handle(ctx context.Context, payload []byte) error {
	var event transfer.MetricsEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return err
	}
	return c.Apply(ctx, &event)
}

// Apply folds one telemetry tick into storage and fans it out to the
// hub. Split from Run so tests and simulators can inject ticks without
// redis.
func (c *Consumer) Apply(ctx context.Context, event *transfer.MetricsEvent) error {
	if !models.IsValidPlatform(event.Platform) || len(event.Metrics) == 0 {
		// Malformed tick, drop it.
		return nil
	}

	accounts, err := c.sa.ListConnectedByPlatform(ctx, event.Platform)
	if err != nil {
		return err
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	users := make(map[int64]struct{})
	for _, account := range accounts {
		if err := c.ar.UpsertForDate(ctx, account.ID, today, event.Metrics); err != nil {
			return err
		}
		users[account.UserID] = struct{}{}
	}

	for userID := range users {
		c.dashboard.InvalidateStats(ctx, userID)
	}

	c.hub.Broadcast(event)
	return nil
}
