package trips

import (
	"context"
	"fmt"
	"log"

	"github.com/gdg-garage/groupy-loopy-api/internal/push"
	"github.com/gdg-garage/groupy-loopy-api/internal/store"
)

type ReminderSummary struct {
	TripsChecked      int `json:"trips_checked"`
	UpcomingTrips     int `json:"upcoming_trips"`
	NotificationsSent int `json:"notifications_sent"`
}

// CheckUpcoming pushes a reminder to participants of every trip starting
// within the window. Each trip is reminded once.
func (s *Service) CheckUpcoming(ctx context.Context) (ReminderSummary, error) {
	now := s.now()
	horizon := now.Add(s.window)

	trips, err := s.repo.FilterTrips(ctx, store.TripFilter{From: &now, NotReminded: true})
	if err != nil {
		return ReminderSummary{}, err
	}

	summary := ReminderSummary{TripsChecked: len(trips)}
	for _, trip := range trips {
		if trip.Date.After(horizon) {
			continue
		}
		summary.UpcomingTrips++

		participants, err := s.repo.TripParticipants(ctx, trip.ID)
		if err != nil {
			log.Printf("Failed to load participants for trip %d: %v", trip.ID, err)
			continue
		}
		emails := make([]string, 0, len(participants))
		for _, p := range participants {
			emails = append(emails, p.Email)
		}
		userIDs, err := s.repo.UserIDsByEmails(ctx, emails)
		if err != nil {
			log.Printf("Failed to resolve users for trip %d: %v", trip.ID, err)
			continue
		}

		if len(userIDs) > 0 {
			res, err := s.push.SendToUsers(ctx, userIDs, push.Message{
				Title: fmt.Sprintf("Reminder: %s", trip.Title),
				Body:  fmt.Sprintf("Your trip starts %s at %s", trip.Date.Format("02/01"), startTime(trip.StartTime)),
				URL:   fmt.Sprintf("/TripDetails?id=%d", trip.ID),
			})
			if err != nil {
				log.Printf("Failed to send reminders for trip %d: %v", trip.ID, err)
				continue
			}
			summary.NotificationsSent += res.Sent
		}

		if err := s.repo.MarkTripReminded(ctx, trip.ID, now); err != nil {
			log.Printf("Failed to mark trip %d reminded: %v", trip.ID, err)
		}
	}
	return summary, nil
}

func startTime(s string) string {
	if s == "" {
		return "08:00"
	}
	return s
}
