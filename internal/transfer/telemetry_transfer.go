package transfer

import "github.com/pulseboard/pulseboard/internal/models"

// MetricsEvent is one telemetry tick from the external feed: a platform
// name and the metric keys that changed since the last tick.
type MetricsEvent struct {
	Platform string         `json:"platform"`
	Metrics  models.Metrics `json:"metrics"`
}
