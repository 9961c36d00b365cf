package feed

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/foodly/order-notify/internal/model"
)

func TestNormalizeNotificationTimestamps(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{
			name: "epoch milliseconds",
			raw:  `{"title":"t","createdAt":1700000000000}`,
			want: time.UnixMilli(1700000000000).UTC(),
		},
		{
			name: "rfc3339 string",
			raw:  `{"title":"t","createdAt":"2023-11-14T22:13:20Z"}`,
			want: time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := normalizeNotification("n1", json.RawMessage(tt.raw))
			if err != nil {
				t.Fatal(err)
			}
			if !n.CreatedAt.Equal(tt.want) {
				t.Errorf("createdAt = %v, want %v", n.CreatedAt, tt.want)
			}
		})
	}
}

func TestNormalizeNotificationRejectsMissingID(t *testing.T) {
	_, err := normalizeNotification("", json.RawMessage(`{"title":"t"}`))
	if err == nil {
		t.Fatal("expected error for record with no id")
	}
}

func TestNormalizeNotificationPrefersEmbeddedID(t *testing.T) {
	n, err := normalizeNotification("key-id", json.RawMessage(`{"id":"real-id"}`))
	if err != nil {
		t.Fatal(err)
	}
	if n.ID != "real-id" {
		t.Errorf("expected embedded id to win, got %q", n.ID)
	}
}

func TestNormalizeNotificationReadAt(t *testing.T) {
	n, err := normalizeNotification("n1", json.RawMessage(
		`{"status":"READ","readAt":1700000001000}`,
	))
	if err != nil {
		t.Fatal(err)
	}
	if n.ReadAt == nil {
		t.Fatal("expected readAt to be set")
	}
	if n.Status != model.StatusRead {
		t.Errorf("expected READ status, got %q", n.Status)
	}
}

func TestPatchFromRawOnlyCarriesPresentFields(t *testing.T) {
	patch, err := patchFromRaw(json.RawMessage(`{"status":"READ","updatedAt":1700000002000}`))
	if err != nil {
		t.Fatal(err)
	}

	if patch.Status == nil || *patch.Status != model.StatusRead {
		t.Error("expected status in patch")
	}
	if patch.UpdatedAt == nil {
		t.Error("expected updatedAt in patch")
	}
	if patch.Title != nil || patch.Message != nil || patch.Kind != nil {
		t.Error("expected absent fields to stay nil")
	}
}

func TestParseFeedTime(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"null", `null`, false},
		{"empty string", `""`, false},
		{"zero", `0`, false},
		{"millis", `1700000000000`, true},
		{"rfc3339", `"2023-11-14T22:13:20Z"`, true},
		{"garbage", `"not a date"`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := parseFeedTime(json.RawMessage(tt.raw))
			if ok != tt.ok {
				t.Errorf("parseFeedTime(%s) ok = %v, want %v", tt.raw, ok, tt.ok)
			}
		})
	}
}
