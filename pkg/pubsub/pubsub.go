package pubsub

import (
	"context"
	"encoding/json"
)

// TopicAtlasStatus carries load and reload progress of the served atlas.
const TopicAtlasStatus = "atlas_status"

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic, e.g. "atlas_status"
	Type    string          `json:"type"`    // Event type, e.g. "loaded", "reloaded", "reload_failed"
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Per-topic sequence number
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events. It is closed when the
	// subscription or the publisher closes.
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data any) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// AtlasStatus describes the atlas currently served.
type AtlasStatus struct {
	State    string        `json:"state"`             // loaded, reloaded, reload_failed
	Path     string        `json:"path"`              // snapshot path
	Nodes    int           `json:"nodes"`             // node count after the load
	EdgeSets []string      `json:"edgeSets"`          // edge-set names after the load
	Changes  *AtlasChanges `json:"changes,omitempty"` // difference to the previous atlas
	Message  string        `json:"message,omitempty"`
}

// AtlasChanges counts what a load changed compared to the atlas it replaced.
type AtlasChanges struct {
	AddedNodes    int `json:"addedNodes"`
	RemovedNodes  int `json:"removedNodes"`
	ModifiedNodes int `json:"modifiedNodes"`
	AddedEdges    int `json:"addedEdges"`
	RemovedEdges  int `json:"removedEdges"`
}
