package orders

import (
	"encoding/json"
	"io"
	"log"
	"testing"

	"github.com/foodly/order-notify/internal/feed"
	"github.com/foodly/order-notify/internal/model"
)

type recordedTransition struct {
	orderID   string
	oldStatus model.OrderStatus
	newStatus model.OrderStatus
}

func testWatcher(t *testing.T) (*Watcher, *[]recordedTransition) {
	t.Helper()

	w := NewWatcher(nil, log.New(io.Discard, "", 0))
	var transitions []recordedTransition
	w.SetTransitionFunc(func(orderID string, oldStatus, newStatus model.OrderStatus) {
		transitions = append(transitions, recordedTransition{orderID, oldStatus, newStatus})
	})
	return w, &transitions
}

func snapshot(t *testing.T, orders map[string]map[string]string) feed.Event {
	t.Helper()
	data, err := json.Marshal(orders)
	if err != nil {
		t.Fatal(err)
	}
	return feed.Event{
		Type: feed.EventValue,
		Path: "orders/user-1",
		Data: data,
	}
}

func TestFirstSnapshotEmitsNothing(t *testing.T) {
	w, transitions := testWatcher(t)

	w.handleSnapshot(snapshot(t, map[string]map[string]string{
		"o1": {"status": "pending"},
		"o2": {"status": "preparing"},
	}))

	if len(*transitions) != 0 {
		t.Fatalf("expected no transitions for the first snapshot, got %d", len(*transitions))
	}
}

func TestSingleStatusChangeEmitsOneTransition(t *testing.T) {
	w, transitions := testWatcher(t)

	w.handleSnapshot(snapshot(t, map[string]map[string]string{
		"o1": {"status": "pending"},
	}))
	w.handleSnapshot(snapshot(t, map[string]map[string]string{
		"o1": {"status": "accepted"},
	}))

	if len(*transitions) != 1 {
		t.Fatalf("expected exactly 1 transition, got %d", len(*transitions))
	}
	got := (*transitions)[0]
	if got.orderID != "o1" || got.oldStatus != model.OrderPending || got.newStatus != model.OrderAccepted {
		t.Errorf("unexpected transition: %+v", got)
	}
}

func TestUnchangedStatusEmitsNothing(t *testing.T) {
	w, transitions := testWatcher(t)

	snap := snapshot(t, map[string]map[string]string{
		"o1": {"status": "pending"},
	})
	w.handleSnapshot(snap)
	w.handleSnapshot(snap)

	if len(*transitions) != 0 {
		t.Fatalf("expected no transitions for identical snapshots, got %d", len(*transitions))
	}
}

func TestNewOrderIsNotATransition(t *testing.T) {
	w, transitions := testWatcher(t)

	w.handleSnapshot(snapshot(t, map[string]map[string]string{}))
	w.handleSnapshot(snapshot(t, map[string]map[string]string{
		"o1": {"status": "pending"},
	}))

	if len(*transitions) != 0 {
		t.Fatalf("expected new-only orders not to be transitions, got %d", len(*transitions))
	}
}

func TestAlternateStatusFieldName(t *testing.T) {
	w, transitions := testWatcher(t)

	w.handleSnapshot(snapshot(t, map[string]map[string]string{
		"o1": {"orderStatus": "pending"},
	}))
	w.handleSnapshot(snapshot(t, map[string]map[string]string{
		"o1": {"orderStatus": "ready"},
	}))

	if len(*transitions) != 1 {
		t.Fatalf("expected a transition via the alternate field name, got %d", len(*transitions))
	}
	if (*transitions)[0].newStatus != model.OrderReady {
		t.Errorf("unexpected new status %q", (*transitions)[0].newStatus)
	}
}

func TestCanonicalFieldWinsOverAlternate(t *testing.T) {
	w, transitions := testWatcher(t)

	w.handleSnapshot(snapshot(t, map[string]map[string]string{
		"o1": {"status": "pending", "orderStatus": "stale"},
	}))
	w.handleSnapshot(snapshot(t, map[string]map[string]string{
		"o1": {"status": "accepted", "orderStatus": "stale"},
	}))

	if len(*transitions) != 1 {
		t.Fatalf("expected 1 transition, got %d", len(*transitions))
	}
	got := (*transitions)[0]
	if got.oldStatus != model.OrderPending || got.newStatus != model.OrderAccepted {
		t.Errorf("expected canonical field to win, got %+v", got)
	}
}

func TestMissingStatusEmitsNothing(t *testing.T) {
	w, transitions := testWatcher(t)

	w.handleSnapshot(snapshot(t, map[string]map[string]string{
		"o1": {},
		"o2": {"status": "pending"},
	}))
	w.handleSnapshot(snapshot(t, map[string]map[string]string{
		"o1": {"status": "accepted"},
		"o2": {},
	}))

	if len(*transitions) != 0 {
		t.Fatalf("expected malformed records to be skipped, got %d transitions", len(*transitions))
	}
}

func TestBaselineAdvancesAfterEachSnapshot(t *testing.T) {
	w, transitions := testWatcher(t)

	w.handleSnapshot(snapshot(t, map[string]map[string]string{
		"o1": {"status": "pending"},
	}))
	w.handleSnapshot(snapshot(t, map[string]map[string]string{
		"o1": {"status": "accepted"},
	}))
	w.handleSnapshot(snapshot(t, map[string]map[string]string{
		"o1": {"status": "completed"},
	}))

	if len(*transitions) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(*transitions))
	}
	if (*transitions)[1].oldStatus != model.OrderAccepted {
		t.Errorf("expected diff against the latest baseline, got %+v", (*transitions)[1])
	}
}

func TestStopDropsBaseline(t *testing.T) {
	w, transitions := testWatcher(t)

	w.handleSnapshot(snapshot(t, map[string]map[string]string{
		"o1": {"status": "pending"},
	}))
	w.Stop()

	// After Stop, the next snapshot is a fresh baseline.
	w.handleSnapshot(snapshot(t, map[string]map[string]string{
		"o1": {"status": "accepted"},
	}))

	if len(*transitions) != 0 {
		t.Fatalf("expected no transition across a Stop, got %d", len(*transitions))
	}
}

func TestStatusMessageAndKindMapping(t *testing.T) {
	if model.StatusMessage(model.OrderCancelled) != "Your order has been cancelled" {
		t.Error("unexpected cancelled message")
	}
	if model.StatusMessage("weird") != "Order status updated to: weird" {
		t.Error("unexpected fallback message")
	}
	if model.StatusKind(model.OrderCompleted) != model.KindOrderDelivered {
		t.Error("expected completed to map to ORDER_DELIVERED")
	}
	if model.StatusKind(model.OrderPending) != model.KindOrderStatusUpdate {
		t.Error("expected pending to map to ORDER_STATUS_UPDATE")
	}
}
