package planning

import (
	"errors"
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestIdealEndpoints(t *testing.T) {
	const totalPoints = 40
	const totalDays = 10

	if got := Ideal(0, totalDays, totalPoints); got != float64(totalPoints) {
		t.Errorf("Ideal(0) = %v, want %d", got, totalPoints)
	}
	if got := Ideal(totalDays, totalDays, totalPoints); got != 0 {
		t.Errorf("Ideal(totalDays) = %v, want 0", got)
	}

	// Strictly monotonic decrease in between
	prev := Ideal(0, totalDays, totalPoints)
	for i := 1; i <= totalDays; i++ {
		cur := Ideal(i, totalDays, totalPoints)
		if cur >= prev {
			t.Fatalf("Ideal not strictly decreasing at day %d: %v >= %v", i, cur, prev)
		}
		prev = cur
	}
}

func TestBurndown(t *testing.T) {
	start := day("2026-03-02")
	end := day("2026-03-06")

	actual := map[time.Time]int{
		day("2026-03-02"): 20,
		day("2026-03-03"): 18,
		day("2026-03-04"): 12,
	}

	points, err := Burndown(start, end, 20, actual)
	if err != nil {
		t.Fatalf("Burndown returned error: %v", err)
	}

	if len(points) != 5 {
		t.Fatalf("expected 5 data points, got %d", len(points))
	}

	if points[0].Ideal != 20 {
		t.Errorf("first ideal = %v, want 20", points[0].Ideal)
	}
	if points[4].Ideal != 0 {
		t.Errorf("last ideal = %v, want 0", points[4].Ideal)
	}

	// Points are in ascending date order
	for i := 1; i < len(points); i++ {
		if !points[i].Date.After(points[i-1].Date) {
			t.Errorf("dates not ascending at index %d", i)
		}
	}

	if points[2].Actual == nil || *points[2].Actual != 12 {
		t.Errorf("day 2 actual = %v, want 12", points[2].Actual)
	}

	// No synthetic adjustment: days without snapshots stay nil
	if points[3].Actual != nil || points[4].Actual != nil {
		t.Error("future days should have nil actual values")
	}
}

func TestBurndownSingleDay(t *testing.T) {
	d := day("2026-03-02")
	points, err := Burndown(d, d, 10, nil)
	if err != nil {
		t.Fatalf("Burndown returned error: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("expected 1 data point, got %d", len(points))
	}
	if points[0].Ideal != 0 {
		t.Errorf("zero-length sprint ideal = %v, want 0", points[0].Ideal)
	}
}

func TestBurndownInvalidRange(t *testing.T) {
	_, err := Burndown(day("2026-03-06"), day("2026-03-02"), 10, nil)
	if !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("expected ErrInvalidDateRange, got %v", err)
	}
}
