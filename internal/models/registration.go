package models

import (
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending_payment"
	PaymentPartial   PaymentStatus = "partial"
	PaymentCompleted PaymentStatus = "completed"
)

// rank orders statuses so a registration never moves backwards.
func (s PaymentStatus) rank() int {
	switch s {
	case PaymentPartial:
		return 1
	case PaymentCompleted:
		return 2
	default:
		return 0
	}
}

// Advance returns the later of s and next.
func (s PaymentStatus) Advance(next PaymentStatus) PaymentStatus {
	if next.rank() > s.rank() {
		return next
	}
	return s
}

// Registrant describes one person signed up under a registration.
type Registrant struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	IDNumber string `json:"id_number,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Age      int    `json:"age,omitempty"`
	IsChild  bool   `json:"is_child,omitempty"`
}

type MemorialData struct {
	FallenName string `json:"fallen_name"`
	Story      string `json:"story,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
}

type RegistrationFields struct {
	PayerName     string        `json:"payer_name"`
	PayerEmail    string        `json:"payer_email" gorm:"index"`
	PayerPhone    string        `json:"payer_phone"`
	Participants  []Registrant  `json:"participants" gorm:"serializer:json"`
	HasVehicle    bool          `json:"has_vehicle"`
	VehicleNumber string        `json:"vehicle_number"`
	GroupName     string        `json:"group_name"`
	SelectedDays  []int         `json:"selected_days" gorm:"serializer:json"`
	Memorial      *MemorialData `json:"memorial,omitempty" gorm:"serializer:json"`
}

type Registration struct {
	gorm.Model
	TripID             uint                 `json:"trip_id" gorm:"index"`
	UserID             *uint                `json:"user_id"`
	RegistrationFields `gorm:"embedded"`
	TotalAmount        float64              `json:"total_amount"`
	AmountPaid         float64              `json:"amount_paid"`
	PaymentStatus      PaymentStatus        `json:"payment_status" gorm:"default:pending_payment"`
	EditToken          string               `json:"-" gorm:"uniqueIndex"`
	Transactions       []PaymentTransaction `json:"payment_transactions"`
}

// PaymentTransaction is append-only. DedupKey is provider:transaction_id
// and is unique, which makes redelivered notifications a no-op.
// RegistrationID is nil for payments matched to roster entries by email.
type PaymentTransaction struct {
	gorm.Model
	RegistrationID *uint   `json:"registration_id" gorm:"index"`
	Provider       string  `json:"provider"`
	TransactionID  string  `json:"transaction_id"`
	Amount         float64 `json:"amount"`
	Method         string  `json:"method"`
	DedupKey       string  `json:"-" gorm:"uniqueIndex"`
}

type Memorial struct {
	gorm.Model
	RegistrationID uint   `json:"registration_id" gorm:"uniqueIndex"`
	TripID         uint   `json:"trip_id"`
	FallenName     string `json:"fallen_name"`
	Story          string `json:"story"`
	ImageURL       string `json:"image_url"`
	Status         string `json:"status" gorm:"default:pending"`
}
