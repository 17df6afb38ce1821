package notification

import (
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"
)

func TestNotifyDropsWhenNotDraining(t *testing.T) {
	var seq atomic.Uint64
	hub := NewHub(&seq)

	// No Run goroutine: Notify must not block and still burn a sequence number.
	hub.Notify(Event{Event: "ncr.raised", Message: "NCR-1 raised"})
	hub.Notify(Event{Event: "capa.overdue", Message: "CAPA-2 overdue"})

	if got := seq.Load(); got != 2 {
		t.Errorf("sequence after two drops: got %d, want 2", got)
	}
}

func TestNotifyDeliversSequencedEvent(t *testing.T) {
	var seq atomic.Uint64
	seq.Store(41)
	hub := NewHub(&seq)

	got := make(chan Event, 1)
	go func() {
		payload := <-hub.Broadcast
		var ev Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			t.Errorf("unmarshal broadcast payload: %v", err)
		}
		got <- ev
	}()

	deadline := time.After(2 * time.Second)
	for {
		hub.Notify(Event{
			Event:      "document.approved",
			Message:    "QP-001 approved",
			Severity:   "info",
			EntityType: "documents",
			EntityID:   7,
		})
		select {
		case ev := <-got:
			if ev.ID <= 41 {
				t.Errorf("event ID not advanced past injected seed: got %d", ev.ID)
			}
			if ev.Event != "document.approved" || ev.EntityType != "documents" || ev.EntityID != 7 {
				t.Errorf("unexpected event payload: %+v", ev)
			}
			if ev.CreatedAt.IsZero() {
				t.Error("created_at was not stamped")
			}
			return
		case <-deadline:
			t.Fatal("no event received from broadcast channel")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestNewHubToleratesNilCounter(t *testing.T) {
	hub := NewHub(nil)
	hub.Notify(Event{Event: "equipment.calibration_failed"})
	if hub.seq.Load() != 1 {
		t.Errorf("fallback counter: got %d, want 1", hub.seq.Load())
	}
}
