package client

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"sprintdeck/internal/planning"
)

// Disposition selects what happens to a sprint's unfinished tickets at
// completion
type Disposition string

const (
	DispositionRollover Disposition = "rollover"
	DispositionBacklog  Disposition = "backlog"
	DispositionKeep     Disposition = "keep"
)

// CompletionReport records how far a client-side sprint completion got.
// Moved lists tickets fully disposed of; Detached lists tickets removed from
// the completing sprint but not yet attached to their destination when a
// step failed, so a caller can re-attach them.
type CompletionReport struct {
	Disposition Disposition `json:"disposition"`
	NextSprint  *Sprint     `json:"next_sprint,omitempty"`
	Moved       []int64     `json:"moved"`
	Detached    []int64     `json:"detached"`
	Completed   bool        `json:"completed"`
}

// Lifecycle drives sprint completion from the client side, issuing the
// per-ticket disposition calls itself. The server also exposes an atomic
// completion endpoint (Client.CompleteSprintAtomic); this orchestration
// exists for callers that need per-ticket progress and partial-result
// reporting.
type Lifecycle struct {
	api    *Client
	logger *zap.Logger
}

// NewLifecycle creates a lifecycle manager over an API client
func NewLifecycle(api *Client, logger *zap.Logger) *Lifecycle {
	return &Lifecycle{api: api, logger: logger}
}

// CompleteSprint disposes of the sprint's unfinished tickets one at a time
// and then marks the sprint complete. If any per-ticket step fails, the
// completion call is NOT issued: the error is returned together with a
// report describing what was already moved and what was left detached.
func (l *Lifecycle) CompleteSprint(ctx context.Context, sprint *Sprint, disposition Disposition) (*CompletionReport, error) {
	report := &CompletionReport{
		Disposition: disposition,
		Moved:       []int64{},
		Detached:    []int64{},
	}

	switch disposition {
	case DispositionRollover, DispositionBacklog, DispositionKeep:
	default:
		return report, &ValidationError{Reason: fmt.Sprintf("unrecognized disposition %q", disposition)}
	}

	if sprint.Status != "active" {
		return report, &ValidationError{Reason: "only an active sprint can be completed"}
	}

	incomplete, err := l.incompleteTickets(ctx, sprint)
	if err != nil {
		return report, err
	}

	switch disposition {
	case DispositionRollover:
		next, err := l.api.CreateSprint(ctx, sprint.ProjectID, planning.NextSprintName(sprint.Name), sprint.Goal)
		if err != nil {
			return report, fmt.Errorf("failed to create rollover sprint: %w", err)
		}
		report.NextSprint = next

		for _, t := range incomplete {
			// Two sequential calls; a failure between them leaves the
			// ticket detached, which the report surfaces.
			if _, err := l.api.RemoveTicketFromSprint(ctx, sprint.ID, t.ID); err != nil {
				return report, fmt.Errorf("failed to remove ticket %d from sprint: %w", t.ID, err)
			}
			report.Detached = append(report.Detached, t.ID)

			if _, err := l.api.AddTicketToSprint(ctx, next.ID, t.ID); err != nil {
				return report, fmt.Errorf("failed to add ticket %d to rollover sprint: %w", t.ID, err)
			}
			report.Detached = report.Detached[:len(report.Detached)-1]
			report.Moved = append(report.Moved, t.ID)
		}

	case DispositionBacklog:
		for _, t := range incomplete {
			if _, err := l.api.RemoveTicketFromSprint(ctx, sprint.ID, t.ID); err != nil {
				return report, fmt.Errorf("failed to remove ticket %d from sprint: %w", t.ID, err)
			}
			report.Detached = append(report.Detached, t.ID)

			if _, err := l.api.TransitionTicket(ctx, t.ID, t.Status, "backlog"); err != nil {
				return report, fmt.Errorf("failed to move ticket %d to backlog: %w", t.ID, err)
			}
			report.Detached = report.Detached[:len(report.Detached)-1]
			report.Moved = append(report.Moved, t.ID)
		}

	case DispositionKeep:
		// Unfinished tickets stay with the completed sprint as they are
	}

	if _, err := l.api.markSprintComplete(ctx, sprint.ID); err != nil {
		return report, fmt.Errorf("failed to complete sprint: %w", err)
	}
	report.Completed = true

	l.logger.Info("Sprint completed",
		zap.Int64("sprint_id", sprint.ID),
		zap.String("disposition", string(disposition)),
		zap.Int("moved", len(report.Moved)),
	)
	return report, nil
}

// incompleteTickets lists the sprint's tickets whose status is not done
func (l *Lifecycle) incompleteTickets(ctx context.Context, sprint *Sprint) ([]Ticket, error) {
	all, err := l.api.ListTickets(ctx, sprint.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}

	incomplete := make([]Ticket, 0)
	for _, t := range all {
		if t.SprintID != nil && *t.SprintID == sprint.ID && t.Status != "done" {
			incomplete = append(incomplete, t)
		}
	}
	return incomplete, nil
}
