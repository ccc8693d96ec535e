package planning

import (
	"errors"
	"testing"
)

func TestAverageVelocity(t *testing.T) {
	tests := []struct {
		name   string
		points []int
		want   int
	}{
		{"empty history", nil, 0},
		{"single sprint", []int{30}, 30},
		{"rounds to nearest", []int{30, 31}, 31},       // 30.5 rounds up
		{"rounds down", []int{10, 10, 11}, 10},          // 10.33
		{"zero-point sprints count", []int{0, 0, 30}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AverageVelocity(tt.points); got != tt.want {
				t.Errorf("AverageVelocity(%v) = %d, want %d", tt.points, got, tt.want)
			}
		})
	}
}

func TestDefaultCapacity(t *testing.T) {
	if got := DefaultCapacity(nil); got != FallbackCapacity {
		t.Errorf("DefaultCapacity with no history = %d, want %d", got, FallbackCapacity)
	}

	if got := DefaultCapacity([]int{0, 0}); got != FallbackCapacity {
		t.Errorf("DefaultCapacity with zero velocity = %d, want %d", got, FallbackCapacity)
	}

	if got := DefaultCapacity([]int{20, 30}); got != 25 {
		t.Errorf("DefaultCapacity([20 30]) = %d, want 25", got)
	}
}

func TestDefaultCapacityWith(t *testing.T) {
	if got := DefaultCapacityWith(nil, 55); got != 55 {
		t.Errorf("DefaultCapacityWith(nil, 55) = %d, want 55", got)
	}

	// Velocity history wins over the configured fallback
	if got := DefaultCapacityWith([]int{20, 30}, 55); got != 25 {
		t.Errorf("DefaultCapacityWith([20 30], 55) = %d, want 25", got)
	}

	if got := DefaultCapacityWith(nil, 0); got != FallbackCapacity {
		t.Errorf("DefaultCapacityWith(nil, 0) = %d, want %d", got, FallbackCapacity)
	}
}

func TestValidateCapacity(t *testing.T) {
	if err := ValidateCapacity(1); err != nil {
		t.Errorf("ValidateCapacity(1) = %v, want nil", err)
	}

	for _, bad := range []int{0, -1, -40} {
		err := ValidateCapacity(bad)
		if !errors.Is(err, ErrInvalidCapacity) {
			t.Errorf("ValidateCapacity(%d) = %v, want ErrInvalidCapacity", bad, err)
		}
	}
}

func TestCompletionPercentage(t *testing.T) {
	tests := []struct {
		total, completed, want int
	}{
		{0, 0, 0}, // no division by zero
		{100, 25, 25},
		{100, 100, 100},
		{3, 1, 33},
		{3, 2, 67},
	}

	for _, tt := range tests {
		if got := CompletionPercentage(tt.total, tt.completed); got != tt.want {
			t.Errorf("CompletionPercentage(%d, %d) = %d, want %d", tt.total, tt.completed, got, tt.want)
		}
	}
}

func TestComputeStats(t *testing.T) {
	tickets := []TicketTally{
		{Status: "done", StoryPoints: 5},
		{Status: "done", StoryPoints: 3},
		{Status: "in_progress", StoryPoints: 8},
		{Status: "review", StoryPoints: 2},
		{Status: "todo", StoryPoints: 5},
		{Status: "backlog", StoryPoints: 0}, // unestimated
		{Status: "blocked", StoryPoints: 1},
	}

	stats := ComputeStats(tickets)

	if stats.TotalTickets != 7 {
		t.Errorf("TotalTickets = %d, want 7", stats.TotalTickets)
	}
	if stats.TotalPoints != 24 {
		t.Errorf("TotalPoints = %d, want 24", stats.TotalPoints)
	}
	if stats.DoneTickets != 2 || stats.DonePoints != 8 {
		t.Errorf("Done = %d tickets/%d points, want 2/8", stats.DoneTickets, stats.DonePoints)
	}
	if stats.InProgressTickets != 2 || stats.InProgressPoints != 10 {
		t.Errorf("InProgress = %d tickets/%d points, want 2/10", stats.InProgressTickets, stats.InProgressPoints)
	}
	if stats.RemainingTickets != 3 || stats.RemainingPoints != 6 {
		t.Errorf("Remaining = %d tickets/%d points, want 3/6", stats.RemainingTickets, stats.RemainingPoints)
	}
	if stats.CompletionPercentage != 33 {
		t.Errorf("CompletionPercentage = %d, want 33", stats.CompletionPercentage)
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil)
	if stats.CompletionPercentage != 0 {
		t.Errorf("empty sprint CompletionPercentage = %d, want 0", stats.CompletionPercentage)
	}
}
