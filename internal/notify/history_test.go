package notify

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/foodly/order-notify/internal/model"
)

// fakeHistory records cache writes and serves a canned collection.
type fakeHistory struct {
	cached []model.Notification
	unread int

	saveAllCalls int
	saveCalls    []string
	markedRead   []string
	markedAll    int
	deleted      []string
}

func (f *fakeHistory) SaveAll(ctx context.Context, notifications []model.Notification) error {
	f.saveAllCalls++
	f.cached = notifications
	return nil
}

func (f *fakeHistory) Save(ctx context.Context, n model.Notification) error {
	f.saveCalls = append(f.saveCalls, n.ID)
	return nil
}

func (f *fakeHistory) MarkRead(ctx context.Context, id string, readAt time.Time) error {
	f.markedRead = append(f.markedRead, id)
	return nil
}

func (f *fakeHistory) MarkAllRead(ctx context.Context, readAt time.Time) error {
	f.markedAll++
	return nil
}

func (f *fakeHistory) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeHistory) Recent(ctx context.Context, limit int) ([]model.Notification, error) {
	return f.cached, nil
}

func (f *fakeHistory) CountUnread(ctx context.Context) (int, error) {
	return f.unread, nil
}

func TestLoadFallsBackToHistoryWhenOffline(t *testing.T) {
	history := &fakeHistory{
		cached: []model.Notification{unreadNotification("n1")},
		unread: 1,
	}
	c := NewCenter(&fakeService{failList: true}, history, log.New(io.Discard, "", 0))

	if err := c.Load(context.Background()); err == nil {
		t.Fatal("expected load failure")
	}

	if got := len(c.Notifications()); got != 1 {
		t.Fatalf("expected cached history to seed the collection, got %d records", got)
	}
	if c.UnreadCount() != 1 {
		t.Errorf("expected cached unread count, got %d", c.UnreadCount())
	}
}

func TestHistoryFallbackDoesNotClobberLiveData(t *testing.T) {
	service := &fakeService{
		notifications: []model.Notification{unreadNotification("live")},
		unread:        1,
	}
	history := &fakeHistory{
		cached: []model.Notification{unreadNotification("stale")},
		unread: 9,
	}
	c := NewCenter(service, history, log.New(io.Discard, "", 0))

	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	service.failList = true
	c.Load(context.Background())

	records := c.Notifications()
	if len(records) != 1 || records[0].ID != "live" {
		t.Fatalf("expected live data kept over stale cache, got %+v", records)
	}
}

func TestSuccessfulLoadWritesThroughToHistory(t *testing.T) {
	history := &fakeHistory{}
	service := &fakeService{
		notifications: []model.Notification{unreadNotification("n1")},
		unread:        1,
	}
	c := NewCenter(service, history, log.New(io.Discard, "", 0))

	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if history.saveAllCalls != 1 {
		t.Errorf("expected one SaveAll, got %d", history.saveAllCalls)
	}
}

func TestMutationsWriteThroughToHistory(t *testing.T) {
	history := &fakeHistory{}
	c := NewCenter(&fakeService{}, history, log.New(io.Discard, "", 0))
	ctx := context.Background()

	c.Add(unreadNotification("n1"))
	c.MarkRead(ctx, "n1")
	c.MarkAllRead(ctx)
	c.Delete(ctx, "n1")

	if len(history.saveCalls) != 1 || history.saveCalls[0] != "n1" {
		t.Errorf("expected Save for n1, got %v", history.saveCalls)
	}
	if len(history.markedRead) != 1 {
		t.Errorf("expected one cached MarkRead, got %v", history.markedRead)
	}
	if history.markedAll != 1 {
		t.Errorf("expected one cached MarkAllRead, got %d", history.markedAll)
	}
	if len(history.deleted) != 1 {
		t.Errorf("expected one cached Delete, got %v", history.deleted)
	}
}
