// Package store is the repository over the relational entity store. Every
// read and write made by request handlers goes through it.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gdg-garage/groupy-loopy-api/internal/models"
	"gorm.io/gorm"
)

var (
	ErrNotFound             = errors.New("record not found")
	ErrDuplicateTransaction = errors.New("transaction already recorded")
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&user).Error
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

// UserIDsByEmails maps participant emails to registered users. Emails with
// no account are skipped. The result is never nil, so it cannot be mistaken
// for "all users" by PushSubscriptions.
func (s *Store) UserIDsByEmails(ctx context.Context, emails []string) ([]uint, error) {
	ids := []uint{}
	if len(emails) == 0 {
		return ids, nil
	}
	lowered := make([]string, 0, len(emails))
	for _, e := range emails {
		if e != "" {
			lowered = append(lowered, strings.ToLower(e))
		}
	}
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(email) IN ?", lowered).
		Pluck("id", &ids).Error
	return ids, err
}

func (s *Store) SaveUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Save(user).Error
}

func (s *Store) GetTrip(ctx context.Context, id uint) (*models.Trip, error) {
	var trip models.Trip
	err := s.db.WithContext(ctx).
		Preload("TrekDays", func(db *gorm.DB) *gorm.DB { return db.Order("day_number asc") }).
		First(&trip, id).Error
	if err != nil {
		return nil, notFound(err, "trip")
	}
	return &trip, nil
}

type TripFilter struct {
	PublishedOnly bool
	From          *time.Time
	To            *time.Time
	NotReminded   bool
}

func (s *Store) FilterTrips(ctx context.Context, f TripFilter) ([]models.Trip, error) {
	q := s.db.WithContext(ctx).Model(&models.Trip{})
	if f.PublishedOnly {
		q = q.Where("published = ?", true)
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date <= ?", *f.To)
	}
	if f.NotReminded {
		q = q.Where("reminder_sent_at IS NULL")
	}
	var trips []models.Trip
	if err := q.Order("date asc").Find(&trips).Error; err != nil {
		return nil, err
	}
	return trips, nil
}

func (s *Store) MarkTripReminded(ctx context.Context, tripID uint, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.Trip{}).
		Where("id = ?", tripID).
		Update("reminder_sent_at", at).Error
}

func (s *Store) TripParticipants(ctx context.Context, tripID uint) ([]models.TripParticipant, error) {
	var participants []models.TripParticipant
	err := s.db.WithContext(ctx).Where("trip_id = ?", tripID).Order("id asc").Find(&participants).Error
	return participants, err
}

// FindParticipantsByEmail searches the participant lists of every trip.
func (s *Store) FindParticipantsByEmail(ctx context.Context, email string) ([]models.TripParticipant, error) {
	var participants []models.TripParticipant
	err := s.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Find(&participants).Error
	return participants, err
}

func (s *Store) TrekDays(ctx context.Context, tripID uint) ([]models.TrekDay, error) {
	var days []models.TrekDay
	err := s.db.WithContext(ctx).Where("trip_id = ?", tripID).Order("id asc").Find(&days).Error
	return days, err
}

// SaveTrekDayNumbers persists day_number for every given day in one transaction.
func (s *Store) SaveTrekDayNumbers(ctx context.Context, days []models.TrekDay) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, d := range days {
			if err := tx.Model(&models.TrekDay{}).Where("id = ?", d.ID).Update("day_number", d.DayNumber).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
