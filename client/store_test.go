package client

import (
	"encoding/json"
	"testing"

	"go.uber.org/zap/zaptest"

	"sprintdeck/internal/events"
)

func testTicket(id, version int64, status string) Ticket {
	return Ticket{
		ID:      id,
		Number:  id,
		Title:   "Ticket",
		Status:  status,
		Version: version,
	}
}

func envelope(t *testing.T, eventType string, payload interface{}) events.Envelope {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return events.Envelope{Type: eventType, Payload: data}
}

func TestStoreUpsertVersioning(t *testing.T) {
	store := NewTicketStore(zaptest.NewLogger(t))

	if !store.Upsert(testTicket(1, 3, "todo")) {
		t.Fatal("first upsert should apply")
	}

	// A stale response must not clobber newer state
	if store.Upsert(testTicket(1, 2, "backlog")) {
		t.Error("stale upsert should be dropped")
	}
	got, _ := store.Get(1)
	if got.Status != "todo" || got.Version != 3 {
		t.Errorf("got status=%s version=%d, want todo/3", got.Status, got.Version)
	}

	// Equal version wins (last write)
	if !store.Upsert(testTicket(1, 3, "in_progress")) {
		t.Error("equal-version upsert should apply")
	}
	got, _ = store.Get(1)
	if got.Status != "in_progress" {
		t.Errorf("got status=%s, want in_progress", got.Status)
	}

	if !store.Upsert(testTicket(1, 4, "done")) {
		t.Error("newer upsert should apply")
	}
}

func TestStoreReplace(t *testing.T) {
	store := NewTicketStore(zaptest.NewLogger(t))
	store.Upsert(testTicket(1, 1, "todo"))
	store.Upsert(testTicket(2, 1, "todo"))

	store.Replace([]Ticket{testTicket(3, 1, "backlog")})

	if store.Len() != 1 {
		t.Fatalf("got %d tickets, want 1", store.Len())
	}
	if _, ok := store.Get(1); ok {
		t.Error("ticket 1 should be gone after replace")
	}
	if _, ok := store.Get(3); !ok {
		t.Error("ticket 3 should be present after replace")
	}
}

func TestStoreApplyEvent(t *testing.T) {
	store := NewTicketStore(zaptest.NewLogger(t))

	store.ApplyEvent(envelope(t, events.TypeTicketCreated, testTicket(7, 1, "todo")))
	if _, ok := store.Get(7); !ok {
		t.Fatal("created ticket should be in store")
	}

	store.ApplyEvent(envelope(t, events.TypeTicketStatusChanged, testTicket(7, 2, "done")))
	got, _ := store.Get(7)
	if got.Status != "done" {
		t.Errorf("got status=%s, want done", got.Status)
	}

	store.ApplyEvent(envelope(t, events.TypeTicketDeleted, map[string]int64{"id": 7}))
	if _, ok := store.Get(7); ok {
		t.Error("deleted ticket should be gone")
	}
}

func TestStoreIgnoresUnknownEvents(t *testing.T) {
	store := NewTicketStore(zaptest.NewLogger(t))
	store.Upsert(testTicket(1, 1, "todo"))

	store.ApplyEvent(envelope(t, "workspace.renamed", map[string]string{"name": "x"}))

	if store.Len() != 1 {
		t.Errorf("unknown event should not touch the store")
	}
}

func TestStoreIgnoresMalformedPayload(t *testing.T) {
	store := NewTicketStore(zaptest.NewLogger(t))

	store.ApplyEvent(events.Envelope{Type: events.TypeTicketCreated, Payload: json.RawMessage(`"not a ticket"`)})

	if store.Len() != 0 {
		t.Error("malformed payload should be dropped")
	}
}
