// Package trips holds trip level operations that are not payment related:
// reminders, trek day ordering, the sitemap and roster export.
package trips

import (
	"context"
	"time"

	"github.com/gdg-garage/groupy-loopy-api/internal/models"
	"github.com/gdg-garage/groupy-loopy-api/internal/push"
	"github.com/gdg-garage/groupy-loopy-api/internal/store"
)

type Repository interface {
	GetTrip(ctx context.Context, id uint) (*models.Trip, error)
	FilterTrips(ctx context.Context, f store.TripFilter) ([]models.Trip, error)
	TripParticipants(ctx context.Context, tripID uint) ([]models.TripParticipant, error)
	UserIDsByEmails(ctx context.Context, emails []string) ([]uint, error)
	MarkTripReminded(ctx context.Context, tripID uint, at time.Time) error
	TrekDays(ctx context.Context, tripID uint) ([]models.TrekDay, error)
	SaveTrekDayNumbers(ctx context.Context, days []models.TrekDay) error
}

type Notifier interface {
	SendToUsers(ctx context.Context, userIDs []uint, msg push.Message) (push.Result, error)
}

type Service struct {
	repo   Repository
	push   Notifier
	window time.Duration
	now    func() time.Time
}

func NewService(repo Repository, notifier Notifier, window time.Duration) *Service {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &Service{repo: repo, push: notifier, window: window, now: time.Now}
}
