package model

import "time"

// Kind identifies what a notification is about.
type Kind string

const (
	KindNewOrder            Kind = "NEW_ORDER"
	KindOrderConfirmed      Kind = "ORDER_CONFIRMED"
	KindOrderCooking        Kind = "ORDER_COOKING"
	KindOrderOutForDelivery Kind = "ORDER_OUT_FOR_DELIVERY"
	KindOrderDelivered      Kind = "ORDER_DELIVERED"
	KindOrderCancelled      Kind = "ORDER_CANCELLED"
	KindOrderStatusUpdate   Kind = "ORDER_STATUS_UPDATE"
	KindDeliveryAssigned    Kind = "DELIVERY_ASSIGNED"
)

// Priority ranks how prominently a notification should be surfaced.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// ReadStatus tracks whether the user has seen a notification.
// The only legal transition is unread to read.
type ReadStatus string

const (
	StatusUnread ReadStatus = "UNREAD"
	StatusRead   ReadStatus = "READ"
)

// Notification is a single alert surfaced to the user about order activity.
type Notification struct {
	// ID is the unique identifier within the owning user's set.
	ID string `json:"id"`

	// UserID is the owning user.
	UserID string `json:"userId"`

	// OrderID links the notification to an order, when there is one.
	OrderID string `json:"orderId,omitempty"`

	// Kind identifies which order event produced this notification.
	Kind Kind `json:"type"`

	// Priority controls the accent used when rendering.
	Priority Priority `json:"priority"`

	// Status is unread until the user reads the notification.
	Status ReadStatus `json:"status"`

	// Title is the short heading shown in toasts and the dropdown.
	Title string `json:"title"`

	// Message is the human-readable body text.
	Message string `json:"message"`

	// Metadata holds free-form key-value context from the producer.
	Metadata map[string]any `json:"metadata,omitempty"`

	// CreatedAt is when the notification was generated server-side.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the last server-side modification time.
	UpdatedAt time.Time `json:"updatedAt"`

	// ReadAt is set once when the notification is read, then never changes.
	ReadAt *time.Time `json:"readAt,omitempty"`
}

// Unread reports whether the notification has not been read yet.
func (n Notification) Unread() bool {
	return n.Status == StatusUnread
}

// NotificationPatch is a partial update to a notification, as delivered by
// a feed "changed" event. Nil fields are left untouched when applied.
type NotificationPatch struct {
	Kind      *Kind
	Priority  *Priority
	Status    *ReadStatus
	Title     *string
	Message   *string
	Metadata  map[string]any
	UpdatedAt *time.Time
	ReadAt    *time.Time
}

// Apply merges the patch into n, field by field. Read state is monotonic:
// a patch never flips a read notification back to unread, and an existing
// ReadAt is kept.
func (p NotificationPatch) Apply(n *Notification) {
	if p.Kind != nil {
		n.Kind = *p.Kind
	}
	if p.Priority != nil {
		n.Priority = *p.Priority
	}
	if p.Status != nil && !(n.Status == StatusRead && *p.Status == StatusUnread) {
		n.Status = *p.Status
	}
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Message != nil {
		n.Message = *p.Message
	}
	if p.Metadata != nil {
		n.Metadata = p.Metadata
	}
	if p.UpdatedAt != nil {
		n.UpdatedAt = *p.UpdatedAt
	}
	if p.ReadAt != nil && n.ReadAt == nil {
		n.ReadAt = p.ReadAt
	}
}

// Merge overlays incoming onto n for an upsert: non-zero incoming fields
// win, except that read state never regresses to unread.
func (n *Notification) Merge(incoming Notification) {
	if incoming.UserID != "" {
		n.UserID = incoming.UserID
	}
	if incoming.OrderID != "" {
		n.OrderID = incoming.OrderID
	}
	if incoming.Kind != "" {
		n.Kind = incoming.Kind
	}
	if incoming.Priority != "" {
		n.Priority = incoming.Priority
	}
	if incoming.Status != "" && !(n.Status == StatusRead && incoming.Status == StatusUnread) {
		n.Status = incoming.Status
	}
	if incoming.Title != "" {
		n.Title = incoming.Title
	}
	if incoming.Message != "" {
		n.Message = incoming.Message
	}
	if incoming.Metadata != nil {
		n.Metadata = incoming.Metadata
	}
	if !incoming.CreatedAt.IsZero() {
		n.CreatedAt = incoming.CreatedAt
	}
	if !incoming.UpdatedAt.IsZero() {
		n.UpdatedAt = incoming.UpdatedAt
	}
	if incoming.ReadAt != nil && n.ReadAt == nil {
		n.ReadAt = incoming.ReadAt
	}
}
