package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(server.URL, "test-token", 5*time.Second)
	return client, server
}

func TestListNotificationsRequestShape(t *testing.T) {
	var gotPath, gotAuth, gotMethod string
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		fmt.Fprint(w, `{"success":true,"data":[{"id":"n1","status":"UNREAD"}]}`)
	}))
	defer server.Close()

	notifications, err := client.ListNotifications(context.Background(), 25, 2)
	if err != nil {
		t.Fatal(err)
	}

	if gotMethod != http.MethodGet {
		t.Errorf("expected GET, got %s", gotMethod)
	}
	if gotPath != "/notifications/user?limit=25&page=2" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	if len(notifications) != 1 || notifications[0].ID != "n1" {
		t.Errorf("unexpected response %+v", notifications)
	}
}

func TestListNotificationsClampsPageArguments(t *testing.T) {
	var gotPath string
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		fmt.Fprint(w, `{"success":true,"data":[]}`)
	}))
	defer server.Close()

	if _, err := client.ListNotifications(context.Background(), 0, -1); err != nil {
		t.Fatal(err)
	}
	if gotPath != "/notifications/user?limit=50&page=1" {
		t.Errorf("expected defaults applied, got %q", gotPath)
	}
}

func TestUnreadCount(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/notifications/user/unread-count" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"success":true,"data":{"unreadCount":7}}`)
	}))
	defer server.Close()

	count, err := client.UnreadCount(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if count != 7 {
		t.Errorf("expected 7, got %d", count)
	}
}

func TestMarkRead(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		if r.URL.Path != "/notifications/user/n1/read" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"success":true,"data":{"id":"n1","status":"READ"}}`)
	}))
	defer server.Close()

	n, err := client.MarkRead(context.Background(), "n1")
	if err != nil {
		t.Fatal(err)
	}
	if n.ID != "n1" || string(n.Status) != "READ" {
		t.Errorf("unexpected record %+v", n)
	}
}

func TestMarkAllRead(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/notifications/user/mark-all-read" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		fmt.Fprint(w, `{"success":true,"data":{"updatedCount":4}}`)
	}))
	defer server.Close()

	updated, err := client.MarkAllRead(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if updated != 4 {
		t.Errorf("expected 4, got %d", updated)
	}
}

func TestDeleteNotification(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/notifications/user/n1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		fmt.Fprint(w, `{"success":true,"message":"deleted"}`)
	}))
	defer server.Close()

	if err := client.DeleteNotification(context.Background(), "n1"); err != nil {
		t.Fatal(err)
	}
}

func TestUnauthorizedReturnsAuthError(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := client.UnreadCount(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsAuthError(err) {
		t.Errorf("expected AuthError through the wrap chain, got %v", err)
	}
}

func TestRateLimitRetriesWithRetryAfter(t *testing.T) {
	var calls atomic.Int32
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"success":true,"data":{"unreadCount":1}}`)
	}))
	defer server.Close()

	count, err := client.UnreadCount(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected retried request to succeed, got %d", count)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestRateLimitRespectsContextCancellation(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := client.UnreadCount(ctx)
	if err == nil {
		t.Fatal("expected context cancellation to abort the backoff")
	}
}

func TestServerErrorIncludesBody(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"success":false,"message":"boom"}`)
	}))
	defer server.Close()

	_, err := client.UnreadCount(context.Background())
	if err == nil {
		t.Fatal("expected error for 500")
	}
	if IsAuthError(err) {
		t.Error("500 must not be classified as an auth error")
	}
}
