package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdg-garage/groupy-loopy-api/internal/models"
	"gorm.io/gorm"
)

// PaymentApplication is one confirmed payment to apply to a registration.
type PaymentApplication struct {
	RegistrationID uint
	Provider       string
	TransactionID  string
	Amount         float64
	Method         string

	// Participants, when set, builds the trip roster rows for the
	// registration. They are inserted once per registration.
	Participants func(reg models.Registration) []models.TripParticipant
	// CreateMemorial records the registration's memorial data, once.
	CreateMemorial bool
}

type PaymentResult struct {
	Registration      models.Registration
	Trip              models.Trip
	ParticipantsAdded int
	MemorialCreated   bool
	PreviousStatus    models.PaymentStatus
}

func DedupKey(provider, transactionID string) string {
	return provider + ":" + transactionID
}

// recordTransaction inserts the dedup row. A key already present means the
// provider redelivered the notification.
func recordTransaction(tx *gorm.DB, t *models.PaymentTransaction) error {
	var count int64
	if err := tx.Model(&models.PaymentTransaction{}).Where("dedup_key = ?", t.DedupKey).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateTransaction
	}
	if err := tx.Create(t).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateTransaction
		}
		return err
	}
	return nil
}

// ApplyPayment records the transaction, accumulates amount_paid and moves
// payment_status forward, all in one database transaction.
func (s *Store) ApplyPayment(ctx context.Context, p PaymentApplication) (*PaymentResult, error) {
	var result PaymentResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reg models.Registration
		if err := tx.First(&reg, p.RegistrationID).Error; err != nil {
			return notFound(err, "registration")
		}
		var trip models.Trip
		if err := tx.First(&trip, reg.TripID).Error; err != nil {
			return notFound(err, "trip")
		}

		regID := reg.ID
		if err := recordTransaction(tx, &models.PaymentTransaction{
			RegistrationID: &regID,
			Provider:       p.Provider,
			TransactionID:  p.TransactionID,
			Amount:         p.Amount,
			Method:         p.Method,
			DedupKey:       DedupKey(p.Provider, p.TransactionID),
		}); err != nil {
			return err
		}

		// Increment in SQL so concurrent deliveries of different
		// transactions cannot overwrite each other.
		if err := tx.Model(&models.Registration{}).Where("id = ?", reg.ID).
			Update("amount_paid", gorm.Expr("amount_paid + ?", p.Amount)).Error; err != nil {
			return err
		}
		if err := tx.First(&reg, reg.ID).Error; err != nil {
			return err
		}

		result.PreviousStatus = reg.PaymentStatus
		next := models.PaymentPartial
		if reg.AmountPaid >= reg.TotalAmount {
			next = models.PaymentCompleted
		}
		reg.PaymentStatus = reg.PaymentStatus.Advance(next)
		if err := tx.Model(&models.Registration{}).Where("id = ?", reg.ID).
			Update("payment_status", reg.PaymentStatus).Error; err != nil {
			return err
		}

		if p.Participants != nil {
			added, err := addParticipants(tx, reg, p)
			if err != nil {
				return err
			}
			result.ParticipantsAdded = added
		}

		if p.CreateMemorial && reg.Memorial != nil {
			created, err := createMemorial(tx, reg)
			if err != nil {
				return err
			}
			result.MemorialCreated = created
		}

		if err := tx.Preload("Transactions").First(&reg, reg.ID).Error; err != nil {
			return err
		}
		result.Registration = reg
		result.Trip = trip
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func addParticipants(tx *gorm.DB, reg models.Registration, p PaymentApplication) (int, error) {
	var existing int64
	if err := tx.Model(&models.TripParticipant{}).Where("registration_id = ?", reg.ID).Count(&existing).Error; err != nil {
		return 0, err
	}
	if existing > 0 {
		// Later installments only refresh the payment fields.
		err := tx.Model(&models.TripParticipant{}).Where("registration_id = ?", reg.ID).
			Updates(map[string]interface{}{
				"payment_status":         reg.PaymentStatus,
				"payment_amount":         reg.AmountPaid,
				"payment_transaction_id": p.TransactionID,
			}).Error
		return 0, err
	}

	rows := p.Participants(reg)
	if len(rows) == 0 {
		return 0, nil
	}
	if err := tx.Create(&rows).Error; err != nil {
		return 0, fmt.Errorf("add participants: %w", err)
	}
	return len(rows), nil
}

func createMemorial(tx *gorm.DB, reg models.Registration) (bool, error) {
	var count int64
	if err := tx.Model(&models.Memorial{}).Where("registration_id = ?", reg.ID).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	memorial := models.Memorial{
		RegistrationID: reg.ID,
		TripID:         reg.TripID,
		FallenName:     reg.Memorial.FallenName,
		Story:          reg.Memorial.Story,
		ImageURL:       reg.Memorial.ImageURL,
		Status:         "pending",
	}
	if err := tx.Create(&memorial).Error; err != nil {
		return false, err
	}
	return true, nil
}

// ParticipantPayment marks roster entries matched by email as paid. It is
// used when a provider only echoes the payer email back.
type ParticipantPayment struct {
	Email         string
	Provider      string
	TransactionID string
	Amount        float64
	Method        string
}

func (s *Store) ApplyParticipantPayment(ctx context.Context, p ParticipantPayment) ([]models.TripParticipant, error) {
	var updated []models.TripParticipant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("LOWER(email) = LOWER(?)", p.Email).Find(&updated).Error; err != nil {
			return err
		}
		if len(updated) == 0 {
			return notFound(gorm.ErrRecordNotFound, "participant")
		}
		if err := recordTransaction(tx, &models.PaymentTransaction{
			Provider:      p.Provider,
			TransactionID: p.TransactionID,
			Amount:        p.Amount,
			Method:        p.Method,
			DedupKey:      DedupKey(p.Provider, p.TransactionID),
		}); err != nil {
			return err
		}
		ids := make([]uint, len(updated))
		for i := range updated {
			ids[i] = updated[i].ID
			updated[i].PaymentStatus = models.PaymentCompleted
			updated[i].PaymentAmount = p.Amount
			updated[i].PaymentTransactionID = p.TransactionID
		}
		return tx.Model(&models.TripParticipant{}).Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"payment_status":         models.PaymentCompleted,
				"payment_amount":         p.Amount,
				"payment_transaction_id": p.TransactionID,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
