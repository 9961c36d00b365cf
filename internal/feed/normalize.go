package feed

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/foodly/order-notify/internal/model"
)

// rawNotification mirrors the loosely-typed child value the feed delivers
// for a notification. Timestamps arrive as epoch milliseconds or RFC 3339
// strings depending on the producer.
type rawNotification struct {
	ID       string         `json:"id"`
	UserID   string         `json:"userId"`
	OrderID  string         `json:"orderId"`
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Message  string         `json:"message"`
	Priority string         `json:"priority"`
	Status   string         `json:"status"`
	Metadata map[string]any `json:"metadata"`

	CreatedAt json.RawMessage `json:"createdAt"`
	UpdatedAt json.RawMessage `json:"updatedAt"`
	ReadAt    json.RawMessage `json:"readAt"`
}

// normalizeNotification validates and converts a raw child value into a
// strict model.Notification. The feed key fills a missing id. Records
// that cannot be decoded are rejected rather than passed through loose.
func normalizeNotification(key string, data json.RawMessage) (model.Notification, error) {
	var raw rawNotification
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.Notification{}, fmt.Errorf("decoding notification %s: %w", key, err)
	}

	id := raw.ID
	if id == "" {
		id = key
	}
	if id == "" {
		return model.Notification{}, fmt.Errorf("notification with no id")
	}

	n := model.Notification{
		ID:       id,
		UserID:   raw.UserID,
		OrderID:  raw.OrderID,
		Kind:     model.Kind(raw.Type),
		Priority: model.Priority(raw.Priority),
		Status:   model.ReadStatus(raw.Status),
		Title:    raw.Title,
		Message:  raw.Message,
		Metadata: raw.Metadata,
	}

	if t, ok := parseFeedTime(raw.CreatedAt); ok {
		n.CreatedAt = t
	}
	if t, ok := parseFeedTime(raw.UpdatedAt); ok {
		n.UpdatedAt = t
	}
	if t, ok := parseFeedTime(raw.ReadAt); ok {
		n.ReadAt = &t
	}

	return n, nil
}

// patchFromRaw builds a partial update from a "changed" child value.
// Only fields the feed actually carried become non-nil patch fields.
func patchFromRaw(data json.RawMessage) (model.NotificationPatch, error) {
	var raw rawNotification
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.NotificationPatch{}, fmt.Errorf("decoding notification patch: %w", err)
	}

	var patch model.NotificationPatch
	if raw.Type != "" {
		k := model.Kind(raw.Type)
		patch.Kind = &k
	}
	if raw.Priority != "" {
		p := model.Priority(raw.Priority)
		patch.Priority = &p
	}
	if raw.Status != "" {
		s := model.ReadStatus(raw.Status)
		patch.Status = &s
	}
	if raw.Title != "" {
		patch.Title = &raw.Title
	}
	if raw.Message != "" {
		patch.Message = &raw.Message
	}
	if raw.Metadata != nil {
		patch.Metadata = raw.Metadata
	}
	if t, ok := parseFeedTime(raw.UpdatedAt); ok {
		patch.UpdatedAt = &t
	}
	if t, ok := parseFeedTime(raw.ReadAt); ok {
		patch.ReadAt = &t
	}

	return patch, nil
}

// parseFeedTime converts a feed-native timestamp value to a time.Time.
// Numbers are epoch milliseconds; strings are RFC 3339.
func parseFeedTime(data json.RawMessage) (time.Time, bool) {
	if len(data) == 0 || string(data) == "null" {
		return time.Time{}, false
	}

	var millis float64
	if err := json.Unmarshal(data, &millis); err == nil {
		if millis <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(millis)).UTC(), true
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil && s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}
