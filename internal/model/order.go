package model

// OrderStatus is a status token from the order feed. Values are compared
// as opaque strings; no case folding is applied.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderAccepted  OrderStatus = "accepted"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// OrderRecord is an order as observed on the feed. It is kept in memory
// only long enough to diff consecutive snapshots; nothing persists it.
type OrderRecord struct {
	ID     string
	UserID string
	Status OrderStatus
}

// statusMessages maps each order status to the text shown to the user
// when an order transitions into it.
var statusMessages = map[OrderStatus]string{
	OrderPending:   "Your order has been placed and is waiting for confirmation",
	OrderAccepted:  "Great! Your order has been accepted by the restaurant",
	OrderPreparing: "Your order is being prepared in the kitchen",
	OrderReady:     "Your order is ready and will be delivered soon!",
	OrderCompleted: "Your order has been delivered successfully!",
	OrderCancelled: "Your order has been cancelled",
}

// StatusMessage returns the user-facing message for an order entering the
// given status, with a generic fallback for unknown tokens.
func StatusMessage(status OrderStatus) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return "Order status updated to: " + string(status)
}

// StatusKind maps an order status to the notification kind minted for a
// transition into that status.
func StatusKind(status OrderStatus) Kind {
	switch status {
	case OrderAccepted:
		return KindOrderConfirmed
	case OrderPreparing:
		return KindOrderCooking
	case OrderReady:
		return KindOrderOutForDelivery
	case OrderCompleted:
		return KindOrderDelivered
	case OrderCancelled:
		return KindOrderCancelled
	default:
		return KindOrderStatusUpdate
	}
}
