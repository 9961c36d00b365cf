package toast

import (
	"strings"
	"testing"
	"time"

	"github.com/foodly/order-notify/internal/model"
)

func unreadNotification(id string) model.Notification {
	return model.Notification{
		ID:       id,
		Kind:     model.KindOrderConfirmed,
		Priority: model.PriorityMedium,
		Status:   model.StatusUnread,
		Title:    "Order confirmed",
		Message:  "On its way",
	}
}

func TestPushShowsUnreadOnce(t *testing.T) {
	m := New(5*time.Second, false, 80)

	n := unreadNotification("n1")
	if cmd := m.Push(n); cmd == nil {
		t.Fatal("expected a command for the first push")
	}
	if !m.Active() {
		t.Fatal("expected an active toast")
	}

	// The same id never pops twice in one session.
	if cmd := m.Push(n); cmd != nil {
		t.Error("expected re-push of a shown id to be a no-op")
	}
	if len(m.entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(m.entries))
	}
}

func TestPushIgnoresReadNotifications(t *testing.T) {
	m := New(5*time.Second, false, 80)

	n := unreadNotification("n1")
	n.Status = model.StatusRead
	if cmd := m.Push(n); cmd != nil {
		t.Error("expected no popup for a read notification")
	}
	if m.Active() {
		t.Error("expected no active toast")
	}
}

func TestDismissRemovesImmediately(t *testing.T) {
	m := New(5*time.Second, false, 80)
	m.Push(unreadNotification("n1"))
	m.Push(unreadNotification("n2"))

	m.Dismiss("n1")

	if len(m.entries) != 1 || m.entries[0].notification.ID != "n2" {
		t.Errorf("expected only n2 left, got %+v", m.entries)
	}
}

func TestPruneBoundsShownSet(t *testing.T) {
	m := New(5*time.Second, false, 80)
	m.Push(unreadNotification("n1"))
	m.Push(unreadNotification("n2"))

	m.Prune(map[string]struct{}{"n2": {}})

	if _, kept := m.shown["n1"]; kept {
		t.Error("expected n1 dropped from the shown set")
	}
	if _, kept := m.shown["n2"]; !kept {
		t.Error("expected n2 kept in the shown set")
	}

	// A pruned id that reappears pops again.
	if cmd := m.Push(unreadNotification("n1")); cmd == nil {
		t.Error("expected a pruned id to pop again")
	}
}

func TestUpdateExpiresToasts(t *testing.T) {
	m := New(5*time.Second, false, 80)
	m.Push(unreadNotification("n1"))

	// Force the entry past its deadline and fade window.
	m.entries[0].deadline = time.Now().Add(-time.Second)

	m, cmd := m.Update(TickMsg(time.Now()))
	if m.Active() {
		t.Error("expected expired toast dropped")
	}
	if cmd != nil {
		t.Error("expected ticker stopped when nothing is on screen")
	}
}

func TestViewIncludesTitleAndMessage(t *testing.T) {
	m := New(5*time.Second, false, 80)
	m.Push(unreadNotification("n1"))

	view := m.View()
	if !strings.Contains(view, "Order confirmed") {
		t.Error("expected title in view")
	}
	if !strings.Contains(view, "On its way") {
		t.Error("expected message in view")
	}
}
