// Package orders watches the order feed for status transitions.
package orders

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/foodly/order-notify/internal/feed"
	"github.com/foodly/order-notify/internal/model"
)

// TransitionFunc is invoked once per order whose status changed between
// two consecutive snapshots.
type TransitionFunc func(orderID string, oldStatus, newStatus model.OrderStatus)

// rawOrder mirrors the loosely-typed order value on the feed. The status
// may arrive under either of two field names; Status wins when both are
// present.
type rawOrder struct {
	UserID      string `json:"userId"`
	Status      string `json:"status"`
	OrderStatus string `json:"orderStatus"`
}

// normalizedStatus picks the canonical status field, falling back to the
// alternate name. Empty means the record is malformed for diffing.
func (r rawOrder) normalizedStatus() model.OrderStatus {
	if r.Status != "" {
		return model.OrderStatus(r.Status)
	}
	return model.OrderStatus(r.OrderStatus)
}

// Watcher observes full snapshots of one user's orders and emits one
// transition event per order whose status actually changed.
//
// The first snapshot only establishes the baseline; emitting transitions
// for it would flood the user with false "initial" events for every
// pre-existing order. Newly created orders are likewise not transitions
// here; they reach the user through the notification feed's per-record
// path.
type Watcher struct {
	conn   *feed.Conn
	logger *log.Logger

	mu       sync.Mutex
	onChange TransitionFunc
	userID   string
	baseline map[string]rawOrder
	remove   func()
}

// NewWatcher creates a watcher over an open feed connection.
func NewWatcher(conn *feed.Conn, logger *log.Logger) *Watcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{
		conn:   conn,
		logger: logger,
	}
}

// SetTransitionFunc replaces the transition callback. Snapshots arriving
// after it returns are diffed against the latest callback in place.
func (w *Watcher) SetTransitionFunc(fn TransitionFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start subscribes to value snapshots of the user's orders.
func (w *Watcher) Start(userID string) error {
	if userID == "" {
		return fmt.Errorf("starting order watcher: empty user id")
	}

	w.Stop()

	w.mu.Lock()
	w.userID = userID
	w.baseline = nil
	w.mu.Unlock()

	remove, err := w.conn.Listen(orderPath(userID), feed.EventValue, w.handleSnapshot)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.remove = remove
	w.mu.Unlock()

	return nil
}

// Stop releases the snapshot listener and drops the baseline so a
// re-subscription starts clean. Synchronous: once Stop returns, no
// transition callback will fire for the old subscription.
func (w *Watcher) Stop() {
	w.mu.Lock()
	remove := w.remove
	w.remove = nil
	w.mu.Unlock()

	if remove != nil {
		remove()
	}

	w.mu.Lock()
	w.userID = ""
	w.baseline = nil
	w.mu.Unlock()
}

// handleSnapshot diffs an incoming full snapshot against the stored
// baseline and replaces the baseline afterwards.
func (w *Watcher) handleSnapshot(ev feed.Event) {
	var snapshot map[string]rawOrder
	if err := json.Unmarshal(ev.Data, &snapshot); err != nil {
		w.logger.Printf("orders: malformed snapshot: %v", err)
		return
	}

	type transition struct {
		orderID  string
		old, new model.OrderStatus
	}

	w.mu.Lock()
	var transitions []transition
	if w.baseline != nil {
		for orderID, current := range snapshot {
			previous, known := w.baseline[orderID]
			if !known {
				continue
			}

			oldStatus := previous.normalizedStatus()
			newStatus := current.normalizedStatus()
			if oldStatus == "" || newStatus == "" {
				continue
			}
			if oldStatus != newStatus {
				transitions = append(transitions, transition{
					orderID: orderID,
					old:     oldStatus,
					new:     newStatus,
				})
			}
		}
	}
	w.baseline = snapshot
	onChange := w.onChange
	w.mu.Unlock()

	if onChange == nil {
		return
	}
	for _, t := range transitions {
		onChange(t.orderID, t.old, t.new)
	}
}

// orderPath is the feed path holding one user's orders.
func orderPath(userID string) string {
	return "orders/" + userID
}
