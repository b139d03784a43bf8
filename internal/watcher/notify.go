package watcher

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nocliffcapital/otcx-sub001/internal/events"
)

// NotificationHandlers builds the handler set that formats chat messages for
// the three notified event kinds and publishes them to the chain stream.
// Publish failures are logged and dropped, notifications are best-effort.
func NotificationHandlers(publisher events.Publisher, log *zap.Logger) Handlers {
	publish := func(eventType, text string, fields map[string]any) {
		fields["text"] = text
		err := publisher.Publish(context.Background(), events.StreamChain, events.Event{
			Type:    eventType,
			Payload: fields,
		})
		if err != nil {
			log.Warn("failed to publish notification", zap.String("type", eventType), zap.Error(err))
		}
	}

	return Handlers{
		ProjectAdded: func(e ProjectAdded) {
			publish(events.EventProjectAdded,
				fmt.Sprintf("🆕 New project listed: %s (%s)", e.Name, e.Slug),
				map[string]any{
					"project_id": e.ProjectID.Hex(),
					"slug":       e.Slug,
					"name":       e.Name,
				})
		},

		ProjectStatusChanged: func(e ProjectStatusChanged) {
			status := "deactivated"
			if e.Active {
				status = "activated"
			}
			publish(events.EventProjectStatusChanged,
				fmt.Sprintf("🔄 Project %s was %s", e.ProjectID.Hex(), status),
				map[string]any{
					"project_id": e.ProjectID.Hex(),
					"active":     e.Active,
				})
		},

		SettlementActivated: func(e SettlementActivated) {
			deadline := time.Unix(int64(e.Deadline), 0).UTC().Format(time.RFC3339)
			publish(events.EventSettlementActivated,
				fmt.Sprintf("⏳ Settlement window activated for order #%d, deadline %s", e.OrderID, deadline),
				map[string]any{
					"order_id": e.OrderID,
					"deadline": e.Deadline,
				})
		},
	}
}
