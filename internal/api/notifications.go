package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/foodly/order-notify/internal/model"
)

// listResponse is the envelope returned by GET /notifications/user.
type listResponse struct {
	Success    bool                 `json:"success"`
	Data       []model.Notification `json:"data"`
	Pagination *Pagination          `json:"pagination,omitempty"`
}

// Pagination describes the page window of a list response.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// unreadCountResponse is the envelope returned by the unread-count endpoint.
type unreadCountResponse struct {
	Success bool `json:"success"`
	Data    struct {
		UnreadCount int `json:"unreadCount"`
	} `json:"data"`
}

// markReadResponse is the envelope returned by the mark-read endpoint.
type markReadResponse struct {
	Success bool               `json:"success"`
	Data    model.Notification `json:"data"`
}

// markAllReadResponse is the envelope returned by the mark-all-read endpoint.
type markAllReadResponse struct {
	Success bool `json:"success"`
	Data    struct {
		UpdatedCount int `json:"updatedCount"`
	} `json:"data"`
}

// deleteResponse is the envelope returned by the delete endpoint.
type deleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ListNotifications retrieves a page of the user's notification history,
// newest first.
func (c *Client) ListNotifications(
	ctx context.Context,
	limit, page int,
) ([]model.Notification, error) {
	if limit < 1 {
		limit = 50
	}
	if page < 1 {
		page = 1
	}

	var resp listResponse
	path := fmt.Sprintf("/notifications/user?limit=%d&page=%d", limit, page)
	if err := c.Get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}

	return resp.Data, nil
}

// UnreadCount retrieves the number of unread notifications for the user.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var resp unreadCountResponse
	if err := c.Get(ctx, "/notifications/user/unread-count", &resp); err != nil {
		return 0, fmt.Errorf("fetching unread count: %w", err)
	}
	return resp.Data.UnreadCount, nil
}

// MarkRead marks a single notification as read and returns the updated
// server-side record.
func (c *Client) MarkRead(
	ctx context.Context,
	notificationID string,
) (*model.Notification, error) {
	var resp markReadResponse
	path := "/notifications/user/" + url.PathEscape(notificationID) + "/read"
	if err := c.Patch(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("marking notification %s read: %w", notificationID, err)
	}
	return &resp.Data, nil
}

// MarkAllRead marks every notification for the user as read and returns
// how many records the server updated.
func (c *Client) MarkAllRead(ctx context.Context) (int, error) {
	var resp markAllReadResponse
	if err := c.Patch(ctx, "/notifications/user/mark-all-read", nil, &resp); err != nil {
		return 0, fmt.Errorf("marking all notifications read: %w", err)
	}
	return resp.Data.UpdatedCount, nil
}

// DeleteNotification removes a notification server-side.
func (c *Client) DeleteNotification(ctx context.Context, notificationID string) error {
	var resp deleteResponse
	path := "/notifications/user/" + url.PathEscape(notificationID)
	if err := c.Delete(ctx, path, &resp); err != nil {
		return fmt.Errorf("deleting notification %s: %w", notificationID, err)
	}
	return nil
}
