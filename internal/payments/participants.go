package payments

import (
	"fmt"

	"github.com/gdg-garage/groupy-loopy-api/internal/models"
)

// BuildParticipants creates one roster row per registrant. A registration
// without registrants contributes the payer alone.
func BuildParticipants(reg models.Registration, transactionID string) []models.TripParticipant {
	registrants := reg.Participants
	if len(registrants) == 0 {
		registrants = []models.Registrant{{
			Name:  reg.PayerName,
			Email: reg.PayerEmail,
			Phone: reg.PayerPhone,
		}}
	}

	familyID := fmt.Sprintf("reg-%d", reg.ID)
	rows := make([]models.TripParticipant, 0, len(registrants))
	for _, r := range registrants {
		email := r.Email
		if email == "" {
			email = reg.PayerEmail
		}
		phone := r.Phone
		if phone == "" {
			phone = reg.PayerPhone
		}
		rows = append(rows, models.TripParticipant{
			TripID:               reg.TripID,
			RegistrationID:       reg.ID,
			UserID:               reg.UserID,
			Email:                email,
			Name:                 r.Name,
			IDNumber:             r.IDNumber,
			Phone:                phone,
			IsChild:              r.IsChild,
			PaymentStatus:        reg.PaymentStatus,
			PaymentAmount:        reg.AmountPaid,
			PaymentTransactionID: transactionID,
			FamilyID:             familyID,
			HasVehicle:           reg.HasVehicle,
			VehicleNumber:        reg.VehicleNumber,
			GroupName:            reg.GroupName,
		})
	}
	return rows
}
