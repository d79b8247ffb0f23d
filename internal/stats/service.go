package stats

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
)

// Stats is the aggregate view over a user's focus entries.
type Stats struct {
	TotalEntries   int     `json:"total_entries"`
	TotalHours     float64 `json:"total_hours"`
	CurrentStreak  int     `json:"current_streak"`
	LongestStreak  int     `json:"longest_streak"`
	AverageHours   float64 `json:"average_hours"`
	MostUsedReason *string `json:"most_used_reason"`
}

// Source is the aggregate-query surface the service needs.
type Source interface {
	Totals(ctx context.Context, userID uuid.UUID) (int, float64, error)
	QualifyingDates(ctx context.Context, userID uuid.UUID) ([]time.Time, error)
	MostUsedReason(ctx context.Context, userID uuid.UUID) (*string, error)
}

// Service computes derived statistics. The clock is injectable so streak
// boundaries are testable.
type Service struct {
	source Source
	now    func() time.Time
}

func NewService(source Source) *Service {
	return &Service{
		source: source,
		now:    time.Now,
	}
}

// Compute assembles the full stats view for a user.
func (s *Service) Compute(ctx context.Context, userID uuid.UUID) (*Stats, error) {
	totalEntries, totalHours, err := s.source.Totals(ctx, userID)
	if err != nil {
		return nil, err
	}

	dates, err := s.source.QualifyingDates(ctx, userID)
	if err != nil {
		return nil, err
	}

	mostUsed, err := s.source.MostUsedReason(ctx, userID)
	if err != nil {
		return nil, err
	}

	current, longest := streaks(dates, s.now())

	average := 0.0
	if len(dates) > 0 {
		average = round2(totalHours / float64(len(dates)))
	}

	return &Stats{
		TotalEntries:   totalEntries,
		TotalHours:     round2(totalHours),
		CurrentStreak:  current,
		LongestStreak:  longest,
		AverageHours:   average,
		MostUsedReason: mostUsed,
	}, nil
}

// streaks computes the current and longest consecutive-day runs from
// qualifying dates sorted newest first. The current streak is anchored
// at today, falling back to yesterday so a not-yet-logged day does not
// zero it.
func streaks(dates []time.Time, now time.Time) (current, longest int) {
	if len(dates) == 0 {
		return 0, 0
	}

	days := make([]int64, len(dates))
	for i, d := range dates {
		days[i] = dayNumber(d)
	}

	run := 1
	longest = 1
	for i := 1; i < len(days); i++ {
		if days[i-1]-days[i] == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	today := dayNumber(now)
	if days[0] != today && days[0] != today-1 {
		return 0, longest
	}

	current = 1
	for i := 1; i < len(days); i++ {
		if days[i-1]-days[i] != 1 {
			break
		}
		current++
	}
	return current, longest
}

// dayNumber collapses a timestamp to a calendar-day ordinal so
// consecutive days differ by exactly 1.
func dayNumber(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
