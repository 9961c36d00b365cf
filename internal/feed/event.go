package feed

import "encoding/json"

// EventType identifies the kind of change a feed event describes.
type EventType string

const (
	// EventChildAdded fires once per record when it first appears under a
	// path, and again on reconnect replays.
	EventChildAdded EventType = "child_added"

	// EventChildChanged fires when an existing record's value changes.
	EventChildChanged EventType = "child_changed"

	// EventChildRemoved fires when a record is deleted from a path.
	EventChildRemoved EventType = "child_removed"

	// EventValue delivers a full snapshot of everything under a path.
	EventValue EventType = "value"
)

// Event is a single message pushed by the feed server.
type Event struct {
	// Type is the event kind.
	Type EventType `json:"event"`

	// Path is the subscription path the event belongs to.
	Path string `json:"path"`

	// Key is the child record id for child events; empty for value events.
	Key string `json:"key,omitempty"`

	// Data is the raw child value (child events) or the full collection
	// keyed by record id (value events). Loosely typed by contract;
	// normalized at the subscription boundary.
	Data json.RawMessage `json:"data"`
}

// request is a client-to-server control frame.
type request struct {
	Action string `json:"action"`
	Path   string `json:"path"`
}
