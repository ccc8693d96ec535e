package client

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

var knownStatuses = map[string]bool{
	"backlog":     true,
	"todo":        true,
	"in_progress": true,
	"review":      true,
	"done":        true,
	"blocked":     true,
}

// Board applies drag-and-drop status changes against a TicketStore: the
// store is updated before the network call so the UI lands the card
// immediately, and reverted if the call fails.
type Board struct {
	api    *Client
	store  *TicketStore
	logger *zap.Logger
}

// NewBoard wires a transition engine to an API client and a store
func NewBoard(api *Client, store *TicketStore, logger *zap.Logger) *Board {
	return &Board{
		api:    api,
		store:  store,
		logger: logger,
	}
}

// Transition moves a ticket from one column to another. The local change is
// optimistic; on API failure it is rolled back to the from status and the
// error returned. No retry is attempted.
//
// Two concurrent transitions on the same ticket race: the last server
// response to land wins, which the store's version stamps make safe.
func (b *Board) Transition(ctx context.Context, ticketID int64, from, to string) error {
	if !knownStatuses[to] {
		return &ValidationError{Reason: fmt.Sprintf("unrecognized status %q", to)}
	}
	if from == to {
		return nil
	}

	if !b.store.setStatus(ticketID, to) {
		return &ValidationError{Reason: fmt.Sprintf("ticket %d not in store", ticketID)}
	}

	ticket, err := b.api.TransitionTicket(ctx, ticketID, from, to)
	if err != nil {
		b.store.setStatus(ticketID, from)
		b.logger.Warn("Transition failed, rolled back",
			zap.Int64("ticket_id", ticketID),
			zap.String("from", from),
			zap.String("to", to),
			zap.Error(err),
		)
		return err
	}

	// Reconcile with the server's copy (version bump, updated_at, any
	// fields another client changed meanwhile)
	b.store.Upsert(*ticket)
	return nil
}
