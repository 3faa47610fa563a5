package trips

import (
	"context"
	"sort"

	"github.com/gdg-garage/groupy-loopy-api/internal/models"
)

// RenumberTrekDays orders days by their current day_number (ties keep
// their input order) and renumbers them 1..n. The input is not modified.
func RenumberTrekDays(days []models.TrekDay) []models.TrekDay {
	out := make([]models.TrekDay, len(days))
	copy(out, days)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DayNumber < out[j].DayNumber
	})
	for i := range out {
		out[i].DayNumber = i + 1
	}
	return out
}

func (s *Service) RenumberTrip(ctx context.Context, tripID uint) ([]models.TrekDay, error) {
	if _, err := s.repo.GetTrip(ctx, tripID); err != nil {
		return nil, err
	}
	days, err := s.repo.TrekDays(ctx, tripID)
	if err != nil {
		return nil, err
	}
	renumbered := RenumberTrekDays(days)
	if err := s.repo.SaveTrekDayNumbers(ctx, renumbered); err != nil {
		return nil, err
	}
	return renumbered, nil
}
