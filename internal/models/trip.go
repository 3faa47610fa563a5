package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	DurationFullDay  = "full_day"
	DurationHalfDay  = "half_day"
	DurationHours    = "hours"
	DurationMultiDay = "multi_day"
)

type Trip struct {
	gorm.Model
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Location       string            `json:"location"`
	Date           time.Time         `json:"date" gorm:"index"`
	StartTime      string            `json:"start_time"` // HH:MM, local to the calendar timezone
	DurationType   string            `json:"duration_type"`
	DurationValue  int               `json:"duration_value"`
	Price          float64           `json:"price"`
	OrganizerID    *uint             `json:"organizer_id"`
	OrganizerEmail string            `json:"organizer_email"`
	OrganizerName  string            `json:"organizer_name"`
	Published      bool              `json:"published"`
	ReminderSentAt *time.Time        `json:"reminder_sent_at"`
	Participants   []TripParticipant `json:"participants"`
	TrekDays       []TrekDay         `json:"trek_days"`
}

type TripParticipant struct {
	gorm.Model
	TripID               uint          `json:"trip_id" gorm:"index"`
	RegistrationID       uint          `json:"registration_id" gorm:"index"`
	UserID               *uint         `json:"user_id"`
	Email                string        `json:"email" gorm:"index"`
	Name                 string        `json:"name"`
	IDNumber             string        `json:"id_number"`
	Phone                string        `json:"phone"`
	IsChild              bool          `json:"is_child"`
	PaymentStatus        PaymentStatus `json:"payment_status"`
	PaymentAmount        float64       `json:"payment_amount"`
	PaymentTransactionID string        `json:"payment_transaction_id"`
	FamilyID             string        `json:"family_id"`
	HasVehicle           bool          `json:"has_vehicle"`
	VehicleNumber        string        `json:"vehicle_number"`
	GroupName            string        `json:"group_name"`
}

type TrekDay struct {
	gorm.Model
	TripID    uint      `json:"trip_id" gorm:"index"`
	DayNumber int       `json:"day_number"`
	Date      time.Time `json:"date"`
	Title     string    `json:"title"`
	Capacity  int       `json:"capacity"`
}
