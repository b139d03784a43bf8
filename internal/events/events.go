package events

import "context"

// Event types
const (
	EventProjectAdded         = "project_added"
	EventProjectStatusChanged = "project_status_changed"
	EventSettlementActivated  = "settlement_activated"
	EventSnapshotRefreshed    = "snapshot_refreshed"
	EventProofVerdict         = "proof_verdict"
)

// Streams
const (
	StreamChain  = "events:chain"  // chain-watcher → notify-bridge
	StreamMarket = "events:market" // reconciler / verifier → websocket clients
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
