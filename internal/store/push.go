package store

import (
	"context"

	"github.com/gdg-garage/groupy-loopy-api/internal/models"
	"gorm.io/gorm/clause"
)

// UpsertPushSubscription stores sub, moving an existing endpoint to the
// given user and refreshing its keys.
func (s *Store) UpsertPushSubscription(ctx context.Context, sub *models.PushSubscription) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth", "updated_at"}),
	}).Create(sub).Error
}

// PushSubscriptions returns subscriptions for the given users, or all of
// them when userIDs is nil.
func (s *Store) PushSubscriptions(ctx context.Context, userIDs []uint) ([]models.PushSubscription, error) {
	q := s.db.WithContext(ctx).Model(&models.PushSubscription{})
	if userIDs != nil {
		if len(userIDs) == 0 {
			return nil, nil
		}
		q = q.Where("user_id IN ?", userIDs)
	}
	var subs []models.PushSubscription
	err := q.Find(&subs).Error
	return subs, err
}

func (s *Store) DeletePushSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Unscoped().Where("endpoint = ?", endpoint).Delete(&models.PushSubscription{}).Error
}
