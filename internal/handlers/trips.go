package handlers

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/groupy-loopy-api/internal/auth"
	"github.com/gdg-garage/groupy-loopy-api/internal/config"
	"github.com/gdg-garage/groupy-loopy-api/internal/models"
	"github.com/gdg-garage/groupy-loopy-api/internal/store"
	"github.com/gdg-garage/groupy-loopy-api/internal/trips"
	"github.com/go-chi/chi/v5"
)

type TripHandler struct {
	auth    *auth.AuthHandler
	store   *store.Store
	service *trips.Service
	cfg     *config.Config
}

func NewTripHandler(cfg *config.Config, authHandler *auth.AuthHandler, s *store.Store, service *trips.Service) *TripHandler {
	return &TripHandler{auth: authHandler, store: s, service: service, cfg: cfg}
}

// canManage reports whether user organizes trip or is an admin.
func canManage(user *models.User, trip *models.Trip) bool {
	if user.IsAdmin() {
		return true
	}
	return trip.OrganizerID != nil && *trip.OrganizerID == user.ID
}

type CheckUpcomingOutput struct {
	Body struct {
		Success bool `json:"success"`
		trips.ReminderSummary
	}
}

func (h *TripHandler) HandleCheckUpcoming(ctx context.Context, input *auth.AuthInput) (*CheckUpcomingOutput, error) {
	if _, err := h.auth.RequireAdmin(ctx, *input); err != nil {
		return nil, err
	}
	summary, err := h.service.CheckUpcoming(ctx)
	if err != nil {
		return nil, apiError(err)
	}
	res := &CheckUpcomingOutput{}
	res.Body.Success = true
	res.Body.ReminderSummary = summary
	return res, nil
}

type RenumberInput struct {
	auth.AuthInput
	TripID uint `path:"tripId"`
}

type TrekDayView struct {
	ID        uint   `json:"id"`
	DayNumber int    `json:"day_number"`
	Date      string `json:"date"`
	Title     string `json:"title"`
}

type RenumberOutput struct {
	Body struct {
		Success  bool          `json:"success"`
		TrekDays []TrekDayView `json:"trek_days"`
	}
}

func (h *TripHandler) HandleRenumberTrekDays(ctx context.Context, input *RenumberInput) (*RenumberOutput, error) {
	user, err := h.auth.AuthorizeUser(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	trip, err := h.store.GetTrip(ctx, input.TripID)
	if err != nil {
		return nil, apiError(err)
	}
	if !canManage(user, trip) {
		return nil, huma.Error403Forbidden("Only the organizer can reorder trek days")
	}

	days, err := h.service.RenumberTrip(ctx, trip.ID)
	if err != nil {
		return nil, apiError(err)
	}

	res := &RenumberOutput{}
	res.Body.Success = true
	res.Body.TrekDays = make([]TrekDayView, 0, len(days))
	for _, d := range days {
		view := TrekDayView{ID: d.ID, DayNumber: d.DayNumber, Title: d.Title}
		if !d.Date.IsZero() {
			view.Date = d.Date.Format("2006-01-02")
		}
		res.Body.TrekDays = append(res.Body.TrekDays, view)
	}
	return res, nil
}

func (h *TripHandler) HandleSitemap(ctx context.Context, input *struct{}) (*TextOutput, error) {
	body, err := h.service.Sitemap(ctx, h.cfg.SiteURL)
	if err != nil {
		return nil, apiError(err)
	}
	return &TextOutput{ContentType: "application/xml; charset=utf-8", Body: body}, nil
}

type MapsKeyOutput struct {
	Body struct {
		APIKey string `json:"apiKey"`
	}
}

func (h *TripHandler) HandleGoogleMapsKey(ctx context.Context, input *struct{}) (*MapsKeyOutput, error) {
	if h.cfg.GoogleMapsAPIKey == "" {
		return nil, huma.Error500InternalServerError("Google Maps API key is not configured")
	}
	res := &MapsKeyOutput{}
	res.Body.APIKey = h.cfg.GoogleMapsAPIKey
	return res, nil
}

// HandleExportParticipants is a plain chi handler mounted behind
// AuthMiddleware, which puts the caller id in the request context.
func (h *TripHandler) HandleExportParticipants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := ctx.Value(auth.UserIDKey).(uint)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	tripID, err := strconv.ParseUint(chi.URLParam(r, "tripId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid trip id", http.StatusBadRequest)
		return
	}

	user, err := h.store.GetUser(ctx, userID)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	trip, err := h.store.GetTrip(ctx, uint(tripID))
	if err != nil {
		http.Error(w, "Trip not found", http.StatusNotFound)
		return
	}
	if !canManage(user, trip) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	var buf bytes.Buffer
	if err := h.service.ExportTrip(ctx, trip.ID, &buf); err != nil {
		log.Printf("Failed to export participants of trip %d: %v", trip.ID, err)
		http.Error(w, "Failed to export participants", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="trip-%d-participants.xlsx"`, trip.ID))
	w.Write(buf.Bytes())
}
