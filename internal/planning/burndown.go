package planning

import (
	"errors"
	"time"
)

// ErrInvalidDateRange is returned when a sprint's end date precedes its
// start date.
var ErrInvalidDateRange = errors.New("sprint end date must not precede start date")

// BurndownPoint is one day of a burndown chart. Actual is nil for days with
// no recorded snapshot (future days, or days before snapshots began).
type BurndownPoint struct {
	Date   time.Time `json:"date"`
	Ideal  float64   `json:"ideal"`
	Actual *int      `json:"actual,omitempty"`
}

// Ideal linearly interpolates the remaining points for dayIndex of a sprint
// spanning totalDays, from totalPoints at day 0 down to 0 at the final day.
func Ideal(dayIndex, totalDays, totalPoints int) float64 {
	if totalDays <= 0 {
		return 0
	}
	return float64(totalPoints) * (1 - float64(dayIndex)/float64(totalDays))
}

// Burndown produces the ordered day-by-day series for a sprint. The actual
// snapshots are supplied by the caller keyed by date (midnight UTC); the
// projector does not reconstruct history and makes no synthetic adjustment
// to the final point.
func Burndown(start, end time.Time, totalPoints int, actual map[time.Time]int) ([]BurndownPoint, error) {
	start = midnight(start)
	end = midnight(end)
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}

	totalDays := int(end.Sub(start).Hours() / 24)
	points := make([]BurndownPoint, 0, totalDays+1)

	for i := 0; i <= totalDays; i++ {
		date := start.AddDate(0, 0, i)
		p := BurndownPoint{
			Date:  date,
			Ideal: Ideal(i, totalDays, totalPoints),
		}
		if remaining, ok := actual[date]; ok {
			r := remaining
			p.Actual = &r
		}
		points = append(points, p)
	}

	return points, nil
}

// midnight truncates a time to its UTC day
func midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
