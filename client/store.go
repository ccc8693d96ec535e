package client

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"sprintdeck/internal/events"
)

// TicketStore is the in-memory ticket collection for one project. It is fed
// by fetches and by pushed events, and read by the board. The server is
// authoritative; the store just mirrors it.
//
// Every ticket carries a version stamp bumped by the server on each write.
// The store drops any update carrying an older version than what it already
// holds, so delayed responses and out-of-order events cannot clobber newer
// state. An equal or newer version always wins (last write wins).
type TicketStore struct {
	mu      sync.RWMutex
	tickets map[int64]Ticket
	logger  *zap.Logger
}

// NewTicketStore creates an empty store
func NewTicketStore(logger *zap.Logger) *TicketStore {
	return &TicketStore{
		tickets: make(map[int64]Ticket),
		logger:  logger,
	}
}

// Replace swaps the whole collection for a fresh fetch result
func (st *TicketStore) Replace(tickets []Ticket) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.tickets = make(map[int64]Ticket, len(tickets))
	for _, t := range tickets {
		st.tickets[t.ID] = t
	}
}

// Get returns a ticket by id
func (st *TicketStore) Get(id int64) (Ticket, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	t, ok := st.tickets[id]
	return t, ok
}

// List returns all tickets in the store
func (st *TicketStore) List() []Ticket {
	st.mu.RLock()
	defer st.mu.RUnlock()

	out := make([]Ticket, 0, len(st.tickets))
	for _, t := range st.tickets {
		out = append(out, t)
	}
	return out
}

// Len returns the number of tickets held
func (st *TicketStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.tickets)
}

// Upsert merges a server ticket into the store, unless the store already
// holds a newer version of it. Returns whether the ticket was applied.
func (st *TicketStore) Upsert(t Ticket) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.upsertLocked(t)
}

func (st *TicketStore) upsertLocked(t Ticket) bool {
	if cur, ok := st.tickets[t.ID]; ok && t.Version < cur.Version {
		if st.logger != nil {
			st.logger.Debug("Dropping stale ticket update",
				zap.Int64("ticket_id", t.ID),
				zap.Int64("stale_version", t.Version),
				zap.Int64("held_version", cur.Version),
			)
		}
		return false
	}
	st.tickets[t.ID] = t
	return true
}

// Delete removes a ticket
func (st *TicketStore) Delete(id int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.tickets, id)
}

// setStatus flips a ticket's status locally without touching its version.
// The transition engine uses it for the optimistic write and the rollback;
// the server's response reconciles the version afterwards.
func (st *TicketStore) setStatus(id int64, status string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	t, ok := st.tickets[id]
	if !ok {
		return false
	}
	t.Status = status
	st.tickets[id] = t
	return true
}

// ApplyEvent dispatches one pushed event into the store. Unrecognized event
// types are ignored so newer servers stay compatible with older clients.
func (st *TicketStore) ApplyEvent(env events.Envelope) {
	switch env.Type {
	case events.TypeTicketCreated, events.TypeTicketUpdated, events.TypeTicketStatusChanged:
		var t Ticket
		if err := json.Unmarshal(env.Payload, &t); err != nil {
			if st.logger != nil {
				st.logger.Warn("Failed to decode ticket event",
					zap.String("type", env.Type),
					zap.Error(err),
				)
			}
			return
		}
		st.Upsert(t)

	case events.TypeTicketDeleted:
		var payload struct {
			ID int64 `json:"id"`
		}
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return
		}
		st.Delete(payload.ID)

	case events.TypeCommentAdded:
		// Comments live outside the ticket collection; nothing to fold in
		// beyond what a comment view would fetch itself.

	default:
		if st.logger != nil {
			st.logger.Debug("Ignoring unknown event type", zap.String("type", env.Type))
		}
	}
}
