package client

import "time"

// Ticket mirrors the API's ticket representation
type Ticket struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	Number      int64     `json:"number"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Status      string    `json:"status"`
	StoryPoints *int      `json:"story_points,omitempty"`
	SprintID    *int64    `json:"sprint_id,omitempty"`
	EpicID      *int64    `json:"epic_id,omitempty"`
	ParentID    *int64    `json:"parent_id,omitempty"`
	Assignees   []int64   `json:"assignees"`
	CreatedBy   int64     `json:"created_by"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Sprint mirrors the API's sprint representation
type Sprint struct {
	ID              int64   `json:"id"`
	ProjectID       int64   `json:"project_id"`
	Name            string  `json:"name"`
	Goal            *string `json:"goal,omitempty"`
	Status          string  `json:"status"`
	StartDate       *string `json:"start_date,omitempty"`
	EndDate         *string `json:"end_date,omitempty"`
	CompletedPoints *int    `json:"completed_points,omitempty"`
}

// SprintStats mirrors the derived stats payload
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

// BurndownPoint is one day of the burndown series
type BurndownPoint struct {
	Date   time.Time `json:"date"`
	Ideal  float64   `json:"ideal"`
	Actual *int      `json:"actual"`
}

// Capacity is the planning budget reported by the API
type Capacity struct {
	Capacity        int    `json:"capacity"`
	Source          string `json:"source"`
	AverageVelocity int    `json:"average_velocity"`
}
