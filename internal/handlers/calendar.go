package handlers

import (
	"context"
	"log"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/groupy-loopy-api/internal/auth"
	"github.com/gdg-garage/groupy-loopy-api/internal/calendar"
	"github.com/gdg-garage/groupy-loopy-api/internal/models"
	"github.com/gdg-garage/groupy-loopy-api/internal/store"
)

type CalendarClient interface {
	AddTrip(ctx context.Context, user *models.User, trip models.Trip) (*calendar.Created, error)
}

type CalendarHandler struct {
	auth     *auth.AuthHandler
	store    *store.Store
	calendar CalendarClient
}

func NewCalendarHandler(authHandler *auth.AuthHandler, s *store.Store, client CalendarClient) *CalendarHandler {
	return &CalendarHandler{auth: authHandler, store: s, calendar: client}
}

type AddToCalendarInput struct {
	auth.AuthInput
	Body struct {
		TripID uint `json:"tripId,omitempty"`
	}
}

type AddToCalendarOutput struct {
	Body struct {
		Success   bool   `json:"success"`
		EventID   string `json:"eventId"`
		EventLink string `json:"eventLink"`
	}
}

func (h *CalendarHandler) HandleAddToCalendar(ctx context.Context, input *AddToCalendarInput) (*AddToCalendarOutput, error) {
	user, err := h.auth.AuthorizeUser(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	if input.Body.TripID == 0 {
		return nil, huma.Error400BadRequest("tripId is required")
	}

	trip, err := h.store.GetTrip(ctx, input.Body.TripID)
	if err != nil {
		return nil, apiError(err)
	}

	created, err := h.calendar.AddTrip(ctx, user, *trip)
	// The token may have been refreshed even when the insert failed.
	if saveErr := h.store.SaveUser(ctx, user); saveErr != nil {
		log.Printf("Failed to store refreshed Google token for user %d: %v", user.ID, saveErr)
	}
	if err != nil {
		log.Printf("Failed to add trip %d to calendar of user %d: %v", trip.ID, user.ID, err)
		return nil, apiError(err)
	}

	res := &AddToCalendarOutput{}
	res.Body.Success = true
	res.Body.EventID = created.ID
	res.Body.EventLink = created.HTMLLink
	return res, nil
}
