package handlers

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/groupy-loopy-api/internal/auth"
	"github.com/gdg-garage/groupy-loopy-api/internal/models"
	"github.com/gdg-garage/groupy-loopy-api/internal/payments"
	"github.com/gdg-garage/groupy-loopy-api/internal/store"
	"github.com/google/uuid"
)

type RegistrationHandler struct {
	auth  *auth.AuthHandler
	store *store.Store
}

func NewRegistrationHandler(authHandler *auth.AuthHandler, s *store.Store) *RegistrationHandler {
	return &RegistrationHandler{auth: authHandler, store: s}
}

// RegistrationBody carries the fields a registrant may set and later edit.
type RegistrationBody struct {
	Email         string               `json:"email,omitempty" doc:"Payer email"`
	Name          string               `json:"name,omitempty" doc:"Payer name"`
	Phone         string               `json:"phone,omitempty"`
	Participants  []models.Registrant  `json:"participants,omitempty"`
	HasVehicle    bool                 `json:"hasVehicle,omitempty"`
	VehicleNumber string               `json:"vehicleNumber,omitempty"`
	GroupName     string               `json:"groupName,omitempty"`
	SelectedDays  []int                `json:"selectedDays,omitempty"`
	Memorial      *models.MemorialData `json:"memorial,omitempty"`
}

func (b RegistrationBody) fields() models.RegistrationFields {
	participants := b.Participants
	if len(participants) == 0 && b.Name != "" {
		participants = []models.Registrant{{Name: b.Name, Email: b.Email, Phone: b.Phone}}
	}
	return models.RegistrationFields{
		PayerName:     strings.TrimSpace(b.Name),
		PayerEmail:    strings.TrimSpace(b.Email),
		PayerPhone:    b.Phone,
		Participants:  participants,
		HasVehicle:    b.HasVehicle,
		VehicleNumber: b.VehicleNumber,
		GroupName:     b.GroupName,
		SelectedDays:  b.SelectedDays,
		Memorial:      b.Memorial,
	}
}

func validateFields(f models.RegistrationFields) error {
	if f.PayerEmail == "" {
		return huma.Error400BadRequest("email is required")
	}
	if len(f.Participants) == 0 {
		return huma.Error400BadRequest("at least one participant is required")
	}
	for _, p := range f.Participants {
		if strings.TrimSpace(p.Name) == "" {
			return huma.Error400BadRequest("every participant needs a name")
		}
	}
	if f.Memorial != nil && strings.TrimSpace(f.Memorial.FallenName) == "" {
		return huma.Error400BadRequest("memorial requires the name of the fallen")
	}
	return nil
}

type CreateRegistrationInput struct {
	auth.AuthInput
	Body struct {
		TripID uint `json:"tripId,omitempty"`
		RegistrationBody
	}
}

type CreateRegistrationOutput struct {
	Body struct {
		ID          uint                 `json:"id"`
		EditToken   string               `json:"edit_token"`
		TotalAmount float64              `json:"total_amount"`
		Status      models.PaymentStatus `json:"payment_status"`
	}
}

func (h *RegistrationHandler) HandleCreate(ctx context.Context, input *CreateRegistrationInput) (*CreateRegistrationOutput, error) {
	if input.Body.TripID == 0 {
		return nil, huma.Error400BadRequest("tripId is required")
	}
	fields := input.Body.fields()
	if err := validateFields(fields); err != nil {
		return nil, err
	}

	trip, err := h.store.GetTrip(ctx, input.Body.TripID)
	if err != nil {
		return nil, apiError(err)
	}

	reg := models.Registration{
		TripID:             trip.ID,
		RegistrationFields: fields,
		TotalAmount:        trip.Price * float64(len(fields.Participants)),
		PaymentStatus:      models.PaymentPending,
		EditToken:          uuid.NewString(),
	}
	// Signing in is optional; a valid session just links the registration.
	if userID, err := h.auth.Authorize(ctx, input.AuthInput); err == nil {
		reg.UserID = &userID
	}

	if err := h.store.CreateRegistration(ctx, &reg); err != nil {
		return nil, apiError(err)
	}

	res := &CreateRegistrationOutput{}
	res.Body.ID = reg.ID
	res.Body.EditToken = reg.EditToken
	res.Body.TotalAmount = reg.TotalAmount
	res.Body.Status = reg.PaymentStatus
	return res, nil
}

type EditTokenInput struct {
	Token string `path:"token"`
}

type RegistrationView struct {
	ID            uint                 `json:"id"`
	TripID        uint                 `json:"trip_id"`
	CreatedAt     time.Time            `json:"created_at"`
	PayerName     string               `json:"payer_name"`
	PayerEmail    string               `json:"payer_email"`
	PayerPhone    string               `json:"payer_phone"`
	Participants  []models.Registrant  `json:"participants"`
	HasVehicle    bool                 `json:"has_vehicle"`
	VehicleNumber string               `json:"vehicle_number"`
	GroupName     string               `json:"group_name"`
	SelectedDays  []int                `json:"selected_days"`
	Memorial      *models.MemorialData `json:"memorial,omitempty"`
	TotalAmount   float64              `json:"total_amount"`
	AmountPaid    float64              `json:"amount_paid"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
}

func viewOf(reg *models.Registration) RegistrationView {
	return RegistrationView{
		ID:            reg.ID,
		TripID:        reg.TripID,
		CreatedAt:     reg.CreatedAt,
		PayerName:     reg.PayerName,
		PayerEmail:    reg.PayerEmail,
		PayerPhone:    reg.PayerPhone,
		Participants:  reg.Participants,
		HasVehicle:    reg.HasVehicle,
		VehicleNumber: reg.VehicleNumber,
		GroupName:     reg.GroupName,
		SelectedDays:  reg.SelectedDays,
		Memorial:      reg.Memorial,
		TotalAmount:   reg.TotalAmount,
		AmountPaid:    reg.AmountPaid,
		PaymentStatus: reg.PaymentStatus,
	}
}

type RegistrationOutput struct {
	Body RegistrationView
}

func (h *RegistrationHandler) HandleGetByToken(ctx context.Context, input *EditTokenInput) (*RegistrationOutput, error) {
	reg, err := h.store.GetRegistrationByEditToken(ctx, input.Token)
	if err != nil {
		return nil, apiError(err)
	}
	return &RegistrationOutput{Body: viewOf(reg)}, nil
}

type UpdateRegistrationInput struct {
	Token string `path:"token"`
	Body  RegistrationBody
}

// HandleUpdateByToken lets a registrant fix their details. Once the
// registration is fully paid the participant list is frozen. Roster rows of
// a partly paid registration follow its edits.
func (h *RegistrationHandler) HandleUpdateByToken(ctx context.Context, input *UpdateRegistrationInput) (*RegistrationOutput, error) {
	reg, err := h.store.GetRegistrationByEditToken(ctx, input.Token)
	if err != nil {
		return nil, apiError(err)
	}
	fields := input.Body.fields()
	if err := validateFields(fields); err != nil {
		return nil, err
	}

	if !slices.Equal(fields.Participants, reg.Participants) {
		if reg.PaymentStatus == models.PaymentCompleted {
			return nil, huma.Error400BadRequest("participants cannot change after payment is completed")
		}
		trip, err := h.store.GetTrip(ctx, reg.TripID)
		if err != nil {
			return nil, apiError(err)
		}
		reg.TotalAmount = trip.Price * float64(len(fields.Participants))
	}

	reg.RegistrationFields = fields
	if err := h.store.UpdateRegistration(ctx, reg, rosterFor); err != nil {
		return nil, apiError(err)
	}
	return &RegistrationOutput{Body: viewOf(reg)}, nil
}

func rosterFor(reg models.Registration) []models.TripParticipant {
	return payments.BuildParticipants(reg, "")
}
