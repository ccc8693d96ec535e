// Package planning holds the pure sprint arithmetic: velocity and capacity
// derivation, completion percentages, burndown projection, and rollover name
// generation. Everything here is side-effect free and shared by the API
// handlers and the client package.
package planning

import (
	"errors"
	"math"
)

// FallbackCapacity is used when a workspace has no completed sprint history.
const FallbackCapacity = 40

// ErrInvalidCapacity is returned when a capacity preference is not a
// positive integer.
var ErrInvalidCapacity = errors.New("capacity must be a positive integer")

// AverageVelocity returns the mean completed story points across sprint
// history, rounded to the nearest integer. An empty history yields 0.
func AverageVelocity(completedPoints []int) int {
	if len(completedPoints) == 0 {
		return 0
	}

	sum := 0
	for _, p := range completedPoints {
		sum += p
	}
	return int(math.Round(float64(sum) / float64(len(completedPoints))))
}

// DefaultCapacity derives the story-point budget for the next sprint: the
// rounded historical average velocity when one exists, otherwise the fixed
// fallback.
func DefaultCapacity(completedPoints []int) int {
	return DefaultCapacityWith(completedPoints, FallbackCapacity)
}

// DefaultCapacityWith is DefaultCapacity with a caller-supplied fallback,
// used where the fallback is configurable. A non-positive fallback falls
// back to FallbackCapacity.
func DefaultCapacityWith(completedPoints []int, fallback int) int {
	if v := AverageVelocity(completedPoints); v > 0 {
		return v
	}
	if fallback > 0 {
		return fallback
	}
	return FallbackCapacity
}

// ValidateCapacity rejects non-positive capacity values. This is a local
// check; callers must not issue a network call for invalid input.
func ValidateCapacity(capacity int) error {
	if capacity <= 0 {
		return ErrInvalidCapacity
	}
	return nil
}

// CompletionPercentage returns completed/total as a rounded percentage,
// defined as 0 when totalPoints is 0.
func CompletionPercentage(totalPoints, completedPoints int) int {
	if totalPoints == 0 {
		return 0
	}
	return int(math.Round(float64(completedPoints) / float64(totalPoints) * 100))
}

// SprintStats is a derived, non-persisted summary of a sprint's tickets.
type SprintStats struct {
	TotalTickets         int `json:"total_tickets"`
	TotalPoints          int `json:"total_points"`
	DoneTickets          int `json:"done_tickets"`
	DonePoints           int `json:"done_points"`
	InProgressTickets    int `json:"in_progress_tickets"`
	InProgressPoints     int `json:"in_progress_points"`
	RemainingTickets     int `json:"remaining_tickets"`
	RemainingPoints      int `json:"remaining_points"`
	CompletionPercentage int `json:"completion_percentage"`
}

// TicketTally is the minimal ticket view the stats derivation needs.
type TicketTally struct {
	Status      string
	StoryPoints int // 0 for unestimated tickets
}

// ComputeStats partitions a sprint's tickets into done, in-progress, and
// everything else, and derives the completion percentage from story points.
func ComputeStats(tickets []TicketTally) SprintStats {
	var stats SprintStats
	for _, t := range tickets {
		stats.TotalTickets++
		stats.TotalPoints += t.StoryPoints

		switch t.Status {
		case "done":
			stats.DoneTickets++
			stats.DonePoints += t.StoryPoints
		case "in_progress", "review":
			stats.InProgressTickets++
			stats.InProgressPoints += t.StoryPoints
		default:
			stats.RemainingTickets++
			stats.RemainingPoints += t.StoryPoints
		}
	}

	stats.CompletionPercentage = CompletionPercentage(stats.TotalPoints, stats.DonePoints)
	return stats
}
