package feed

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/foodly/order-notify/internal/model"
)

// Handlers are the callbacks a Subscriber invokes as feed events arrive.
// Nil callbacks are simply skipped.
type Handlers struct {
	// OnReceived fires for each first-seen notification.
	OnReceived func(model.Notification)

	// OnUpdated fires when an existing notification changes, with the
	// partial fields the feed carried.
	OnUpdated func(id string, patch model.NotificationPatch)

	// OnRemoved fires when a notification is deleted from the feed.
	OnRemoved func(id string)
}

// Subscriber maintains a live subscription to one user's notification
// path and translates raw feed events into typed callbacks.
//
// Redundant pushes are suppressed with a per-record signature derived
// from the semantically relevant fields; a replayed event whose
// signature matches the last one seen for that record is a no-op.
// Callbacks can be swapped at any time with SetHandlers and the
// subscriber always invokes the latest registered set.
type Subscriber struct {
	conn   *Conn
	logger *log.Logger

	mu            sync.Mutex
	handlers      Handlers
	userID        string
	removes       []func()
	lastSignature map[string]string
	processed     map[string]struct{}
}

// NewSubscriber creates a subscriber over an open feed connection.
// The logger receives per-record normalization failures; if nil, the
// standard logger is used.
func NewSubscriber(conn *Conn, logger *log.Logger) *Subscriber {
	if logger == nil {
		logger = log.Default()
	}
	return &Subscriber{
		conn:   conn,
		logger: logger,
	}
}

// SetHandlers replaces the callback set. Events that arrive after
// SetHandlers returns are delivered to the new callbacks.
func (s *Subscriber) SetHandlers(h Handlers) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = h
}

// SetIdentity reconciles the subscription with the current authentication
// state: the subscription is active iff a user id is present and the
// caller is authenticated. Switching users stops the old subscription
// (and clears its de-dup state) before the new one opens.
func (s *Subscriber) SetIdentity(userID string, authenticated bool) error {
	if userID == "" || !authenticated {
		s.Stop()
		return nil
	}

	s.mu.Lock()
	current := s.userID
	s.mu.Unlock()

	if current == userID {
		return nil
	}

	s.Stop()
	return s.Start(userID)
}

// Start opens three independent listeners on the user's notification
// path: child added, child changed, and child removed. Granular child
// listeners avoid reprocessing the whole collection on every change.
func (s *Subscriber) Start(userID string) error {
	if userID == "" {
		return fmt.Errorf("starting subscriber: empty user id")
	}

	s.Stop()
	s.resetState(userID)

	path := notificationPath(userID)

	removeAdded, err := s.conn.Listen(path, EventChildAdded, s.handleAdded)
	if err != nil {
		return err
	}
	removeChanged, err := s.conn.Listen(path, EventChildChanged, s.handleChanged)
	if err != nil {
		removeAdded()
		return err
	}
	removeRemoved, err := s.conn.Listen(path, EventChildRemoved, s.handleRemoved)
	if err != nil {
		removeAdded()
		removeChanged()
		return err
	}

	s.mu.Lock()
	s.removes = []func(){removeAdded, removeChanged, removeRemoved}
	s.mu.Unlock()

	return nil
}

// Stop releases all three listeners and clears the signature state so a
// re-subscription starts clean. It is synchronous: once Stop returns, no
// callback will fire for the old subscription.
func (s *Subscriber) Stop() {
	s.mu.Lock()
	removes := s.removes
	s.removes = nil
	s.mu.Unlock()

	for _, remove := range removes {
		remove()
	}

	s.mu.Lock()
	s.userID = ""
	s.lastSignature = nil
	s.processed = nil
	s.mu.Unlock()
}

// resetState arms fresh de-dup state for a new subscription.
func (s *Subscriber) resetState(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.lastSignature = make(map[string]string)
	s.processed = make(map[string]struct{})
}

// handleAdded processes a child-added event: normalize, de-dup, emit.
func (s *Subscriber) handleAdded(ev Event) {
	n, err := normalizeNotification(ev.Key, ev.Data)
	if err != nil {
		s.logger.Printf("feed: skipping added event: %v", err)
		return
	}

	sig := signature(n)

	s.mu.Lock()
	if s.processed == nil {
		s.mu.Unlock()
		return
	}
	if _, seen := s.processed[n.ID]; seen {
		s.mu.Unlock()
		return
	}
	if s.lastSignature[n.ID] == sig {
		s.mu.Unlock()
		return
	}
	s.processed[n.ID] = struct{}{}
	s.lastSignature[n.ID] = sig
	onReceived := s.handlers.OnReceived
	s.mu.Unlock()

	if onReceived != nil {
		onReceived(n)
	}
}

// handleChanged processes a child-changed event: a change whose signature
// matches the last one seen is a no-op replay and is suppressed.
func (s *Subscriber) handleChanged(ev Event) {
	n, err := normalizeNotification(ev.Key, ev.Data)
	if err != nil {
		s.logger.Printf("feed: skipping changed event: %v", err)
		return
	}

	patch, err := patchFromRaw(ev.Data)
	if err != nil {
		s.logger.Printf("feed: skipping changed event: %v", err)
		return
	}

	sig := signature(n)

	s.mu.Lock()
	if s.lastSignature == nil {
		s.mu.Unlock()
		return
	}
	if s.lastSignature[n.ID] == sig {
		s.mu.Unlock()
		return
	}
	s.lastSignature[n.ID] = sig
	onUpdated := s.handlers.OnUpdated
	s.mu.Unlock()

	if onUpdated != nil {
		onUpdated(n.ID, patch)
	}
}

// handleRemoved processes a child-removed event. No de-dup is needed;
// the record's signature state is dropped so a later re-add emits.
func (s *Subscriber) handleRemoved(ev Event) {
	if ev.Key == "" {
		return
	}

	s.mu.Lock()
	delete(s.lastSignature, ev.Key)
	delete(s.processed, ev.Key)
	onRemoved := s.handlers.OnRemoved
	s.mu.Unlock()

	if onRemoved != nil {
		onRemoved(ev.Key)
	}
}

// signature fingerprints the fields that make a notification event
// semantically distinct. Two events with equal signatures carry no new
// information and only the first is emitted.
func signature(n model.Notification) string {
	return strings.Join([]string{
		string(n.Kind),
		n.Title,
		n.Message,
		string(n.Status),
		fmt.Sprintf("%d", n.UpdatedAt.UnixMilli()),
	}, "|")
}

// notificationPath is the feed path holding one user's notifications.
func notificationPath(userID string) string {
	return "notifications/" + userID
}
