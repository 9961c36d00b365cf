// Package notify holds the in-memory notification collection that the
// UI renders. It is the single writer over that collection, merging the
// REST-fetched history with live feed events.
package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/foodly/order-notify/internal/model"
)

// Service is the slice of the REST API the center depends on.
type Service interface {
	ListNotifications(ctx context.Context, limit, page int) ([]model.Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, notificationID string) (*model.Notification, error)
	MarkAllRead(ctx context.Context) (int, error)
	DeleteNotification(ctx context.Context, notificationID string) error
}

// History is an optional local write-through cache of the collection so
// notification history survives restarts. All calls are best-effort;
// failures are logged and never block an operation.
type History interface {
	SaveAll(ctx context.Context, notifications []model.Notification) error
	Save(ctx context.Context, n model.Notification) error
	MarkRead(ctx context.Context, id string, readAt time.Time) error
	MarkAllRead(ctx context.Context, readAt time.Time) error
	Delete(ctx context.Context, id string) error
	Recent(ctx context.Context, limit int) ([]model.Notification, error)
	CountUnread(ctx context.Context) (int, error)
}

// loadPageSize is how much history Load pulls from the REST API.
const loadPageSize = 50

// Center is the single source of truth for the notifications surfaced
// to the user. The collection is ordered most-recent-first and unique by
// id; the unread counter never goes negative.
//
// Mutations from REST calls and feed callbacks may interleave; every
// operation is a complete reducer step applied under the lock, so a
// mutation for one record can never observe a partial write of another.
type Center struct {
	service Service
	history History
	logger  *log.Logger

	mu      sync.Mutex
	records []model.Notification
	unread  int
	lastErr error
}

// NewCenter creates a center backed by the given REST service. The
// history cache may be nil.
func NewCenter(service Service, history History, logger *log.Logger) *Center {
	if logger == nil {
		logger = log.Default()
	}
	return &Center{
		service: service,
		history: history,
		logger:  logger,
	}
}

// Load fetches the notification history and unread count from the REST
// API and replaces the in-memory collection. A failure is recorded in
// the error field and the previous collection is kept; when a local
// cache exists it seeds the collection instead so the UI has something
// to show offline. Load may be retried at any time.
func (c *Center) Load(ctx context.Context) error {
	notifications, err := c.service.ListNotifications(ctx, loadPageSize, 1)
	if err != nil {
		c.setError(err)
		c.loadFromHistory(ctx)
		return err
	}

	unread, err := c.service.UnreadCount(ctx)
	if err != nil {
		c.setError(err)
		return err
	}

	c.mu.Lock()
	c.records = dedupeByID(notifications)
	c.unread = unread
	c.lastErr = nil
	c.mu.Unlock()

	if c.history != nil {
		if err := c.history.SaveAll(ctx, notifications); err != nil {
			c.logger.Printf("notify: caching history: %v", err)
		}
	}

	return nil
}

// loadFromHistory seeds the collection from the local cache when the
// REST fetch failed and nothing is loaded yet.
func (c *Center) loadFromHistory(ctx context.Context) {
	if c.history == nil {
		return
	}

	c.mu.Lock()
	empty := len(c.records) == 0
	c.mu.Unlock()
	if !empty {
		return
	}

	cached, err := c.history.Recent(ctx, loadPageSize)
	if err != nil {
		c.logger.Printf("notify: reading cached history: %v", err)
		return
	}
	unread, err := c.history.CountUnread(ctx)
	if err != nil {
		c.logger.Printf("notify: counting cached unread: %v", err)
		return
	}

	c.mu.Lock()
	if len(c.records) == 0 {
		c.records = dedupeByID(cached)
		c.unread = unread
	}
	c.mu.Unlock()
}

// Add inserts a notification at the front of the collection. A record
// whose id is already present is merged into the existing entry and
// promoted to the front instead, reflecting recency. The unread counter
// increments only on a true first insertion of an unread record, so an
// upsert of an already-counted record is never double counted.
func (c *Center) Add(n model.Notification) {
	if n.ID == "" {
		return
	}

	c.mu.Lock()
	idx := c.indexOf(n.ID)
	if idx >= 0 {
		existing := c.records[idx]
		existing.Merge(n)
		c.records = append(c.records[:idx], c.records[idx+1:]...)
		c.records = append([]model.Notification{existing}, c.records...)
	} else {
		c.records = append([]model.Notification{n}, c.records...)
		if n.Unread() {
			c.unread++
		}
	}
	c.mu.Unlock()

	if c.history != nil {
		if err := c.history.Save(context.Background(), n); err != nil {
			c.logger.Printf("notify: caching notification %s: %v", n.ID, err)
		}
	}
}

// Update merges a partial patch into the matching record. An unknown id
// is a no-op. The unread counter is untouched: it moves only on explicit
// read actions and fresh unread adds.
func (c *Center) Update(id string, patch model.NotificationPatch) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return
	}
	patch.Apply(&c.records[idx])
}

// MarkRead optimistically marks a notification read locally and then
// issues the REST call. The local change is not rolled back on REST
// failure; the error is recorded and the next Load reconciles.
func (c *Center) MarkRead(ctx context.Context, id string) error {
	now := time.Now().UTC()

	c.mu.Lock()
	idx := c.indexOf(id)
	if idx >= 0 && c.records[idx].Unread() {
		c.records[idx].Status = model.StatusRead
		if c.records[idx].ReadAt == nil {
			c.records[idx].ReadAt = &now
		}
		c.unread = floor(c.unread - 1)
	}
	c.mu.Unlock()

	if c.history != nil {
		if err := c.history.MarkRead(ctx, id, now); err != nil {
			c.logger.Printf("notify: caching read state for %s: %v", id, err)
		}
	}

	if _, err := c.service.MarkRead(ctx, id); err != nil {
		c.setError(err)
		return err
	}
	return nil
}

// MarkAllRead optimistically marks every record read with one shared
// timestamp, zeroes the counter, and issues a single REST call.
func (c *Center) MarkAllRead(ctx context.Context) error {
	now := time.Now().UTC()

	c.mu.Lock()
	for i := range c.records {
		if c.records[i].Status != model.StatusRead {
			c.records[i].Status = model.StatusRead
			if c.records[i].ReadAt == nil {
				t := now
				c.records[i].ReadAt = &t
			}
		}
	}
	c.unread = 0
	c.mu.Unlock()

	if c.history != nil {
		if err := c.history.MarkAllRead(ctx, now); err != nil {
			c.logger.Printf("notify: caching read state: %v", err)
		}
	}

	if _, err := c.service.MarkAllRead(ctx); err != nil {
		c.setError(err)
		return err
	}
	return nil
}

// Delete removes a notification from the collection, decrementing the
// unread counter when it was unread. Deleting an unknown id is a
// complete no-op: no REST call, no counter change.
func (c *Center) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	idx := c.indexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return nil
	}
	wasUnread := c.records[idx].Unread()
	c.records = append(c.records[:idx], c.records[idx+1:]...)
	if wasUnread {
		c.unread = floor(c.unread - 1)
	}
	c.mu.Unlock()

	if c.history != nil {
		if err := c.history.Delete(ctx, id); err != nil {
			c.logger.Printf("notify: removing cached notification %s: %v", id, err)
		}
	}

	if err := c.service.DeleteNotification(ctx, id); err != nil {
		c.setError(err)
		return err
	}
	return nil
}

// Remove drops a notification locally without a REST call, for feed
// "removed" events where the server already deleted the record.
func (c *Center) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return
	}
	if c.records[idx].Unread() {
		c.unread = floor(c.unread - 1)
	}
	c.records = append(c.records[:idx], c.records[idx+1:]...)
}

// Notifications returns a copy of the collection, most recent first.
func (c *Center) Notifications() []model.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.Notification, len(c.records))
	copy(out, c.records)
	return out
}

// UnreadCount returns the current unread counter. It is never negative.
func (c *Center) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread
}

// IDs returns the set of ids currently in the collection. The presenter
// uses it to prune its shown-toast bookkeeping.
func (c *Center) IDs() map[string]struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make(map[string]struct{}, len(c.records))
	for _, n := range c.records {
		ids[n.ID] = struct{}{}
	}
	return ids
}

// LastError returns the most recent REST failure, or nil.
func (c *Center) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ClearError resets the error field, e.g. after the user dismissed it.
func (c *Center) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = nil
}

// indexOf returns the position of id in the collection, or -1.
// Callers must hold c.mu.
func (c *Center) indexOf(id string) int {
	for i, n := range c.records {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (c *Center) setError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
}

// dedupeByID keeps the first occurrence of each id, preserving order.
func dedupeByID(notifications []model.Notification) []model.Notification {
	seen := make(map[string]struct{}, len(notifications))
	out := make([]model.Notification, 0, len(notifications))
	for _, n := range notifications {
		if n.ID == "" {
			continue
		}
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		out = append(out, n)
	}
	return out
}

func floor(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
