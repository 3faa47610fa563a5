package store

import (
	"context"
	"fmt"

	"github.com/gdg-garage/groupy-loopy-api/internal/models"
	"gorm.io/gorm"
)

func (s *Store) CreateRegistration(ctx context.Context, reg *models.Registration) error {
	return s.db.WithContext(ctx).Create(reg).Error
}

func (s *Store) GetRegistration(ctx context.Context, id uint) (*models.Registration, error) {
	var reg models.Registration
	if err := s.db.WithContext(ctx).Preload("Transactions").First(&reg, id).Error; err != nil {
		return nil, notFound(err, "registration")
	}
	return &reg, nil
}

func (s *Store) GetRegistrationByEditToken(ctx context.Context, token string) (*models.Registration, error) {
	if token == "" {
		return nil, notFound(gorm.ErrRecordNotFound, "registration")
	}
	var reg models.Registration
	if err := s.db.WithContext(ctx).Preload("Transactions").Where("edit_token = ?", token).First(&reg).Error; err != nil {
		return nil, notFound(err, "registration")
	}
	return &reg, nil
}

// RosterFunc builds the trip roster rows for a registration.
type RosterFunc func(reg models.Registration) []models.TripParticipant

// UpdateRegistration writes the editable fields and total, then re-derives
// payment_status from the stored amount_paid. Amounts are owned by
// ApplyPayment. A registration already on the trip roster has its roster
// rows rebuilt with roster so they keep matching its registrants.
func (s *Store) UpdateRegistration(ctx context.Context, reg *models.Registration, roster RosterFunc) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Registration
		if err := tx.First(&current, reg.ID).Error; err != nil {
			return notFound(err, "registration")
		}
		reg.AmountPaid = current.AmountPaid
		reg.PaymentStatus = current.PaymentStatus.Advance(statusFor(current.AmountPaid, reg.TotalAmount))

		if err := tx.Model(reg).
			Select("payer_name", "payer_email", "payer_phone", "participants", "has_vehicle",
				"vehicle_number", "group_name", "selected_days", "memorial", "total_amount", "payment_status").
			Updates(reg).Error; err != nil {
			return err
		}

		if roster == nil {
			return nil
		}
		var existing []models.TripParticipant
		if err := tx.Where("registration_id = ?", reg.ID).Order("id").Find(&existing).Error; err != nil {
			return err
		}
		// Unpaid registrations join the roster on their first payment.
		if len(existing) == 0 {
			return nil
		}
		if err := tx.Where("registration_id = ?", reg.ID).Delete(&models.TripParticipant{}).Error; err != nil {
			return err
		}
		rows := roster(*reg)
		if len(rows) == 0 {
			return nil
		}
		for i := range rows {
			rows[i].PaymentTransactionID = existing[0].PaymentTransactionID
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("rebuild participants: %w", err)
		}
		return nil
	})
}

// statusFor maps amounts to a payment status. Nothing paid stays pending.
func statusFor(paid, total float64) models.PaymentStatus {
	switch {
	case paid <= 0:
		return models.PaymentPending
	case paid >= total:
		return models.PaymentCompleted
	default:
		return models.PaymentPartial
	}
}
