package events

import "encoding/json"

// Event types pushed to board clients. Consumers must ignore types they do
// not recognize so new ones can be added without breaking old clients.
const (
	TypeTicketCreated       = "ticket.created"
	TypeTicketUpdated       = "ticket.updated"
	TypeTicketStatusChanged = "ticket.status_changed"
	TypeTicketDeleted       = "ticket.deleted"
	TypeCommentAdded        = "comment.added"
	TypeSprintUpdated       = "sprint.updated"
)

// Envelope is the wire format for every pushed event
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}
