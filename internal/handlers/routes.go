package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/gdg-garage/groupy-loopy-api/internal/auth"
	"github.com/gdg-garage/groupy-loopy-api/internal/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Auth          *auth.AuthHandler
	APIKeys       *APIKeyHandler
	Registrations *RegistrationHandler
	Webhooks      *WebhookHandler
	Payments      *PaymentHandler
	Calendar      *CalendarHandler
	Push          *PushHandler
	Trips         *TripHandler
}

func RegisterRoutes(r *chi.Mux, cfg *config.Config, h Handlers) huma.API {
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{cfg.FrontendURL},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-API-KEY"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(h.Auth.SessionMiddleware)

	// Initialize Huma API
	humaConfig := huma.DefaultConfig("Groupy Loopy API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: "auth_token",
		},
		"apiKeyAuth": {
			Type: "apiKey",
			In:   "header",
			Name: "X-API-KEY",
		},
	}
	api := humachi.New(r, humaConfig)

	secured := func(o *huma.Operation) {
		o.Security = []map[string][]string{{"cookieAuth": {}}, {"apiKeyAuth": {}}}
	}

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	huma.Get(api, "/sitemap", h.Trips.HandleSitemap)
	huma.Get(api, "/getGoogleMapsKey", h.Trips.HandleGoogleMapsKey)

	// Auth routes
	huma.Get(api, "/auth/google/login", h.Auth.HandleLogin)
	huma.Get(api, "/auth/google/callback", h.Auth.HandleCallback)
	huma.Get(api, "/me", h.Auth.HandleMe, secured)

	huma.Post(api, "/api-keys", h.APIKeys.HandleCreate, okStatus, secured)
	huma.Get(api, "/api-keys", h.APIKeys.HandleList, secured)
	huma.Delete(api, "/api-keys/{id}", h.APIKeys.HandleDelete, secured)

	// Payment provider callbacks
	huma.Post(api, "/meshulamWebhook", h.Webhooks.HandleMeshulam, okStatus)
	huma.Post(api, "/paypalIPN", h.Webhooks.HandlePayPalIPN, okStatus)
	huma.Post(api, "/hypWebhook", h.Webhooks.HandleHyp, okStatus)

	// Payments
	huma.Post(api, "/createGrowPayment", h.Payments.HandleCreateGrowPayment, okStatus)
	huma.Post(api, "/createGrowPaymentEmbed", h.Payments.HandleCreateGrowPaymentEmbed, okStatus)
	huma.Post(api, "/createMeshulamPayment", h.Payments.HandleCreateMeshulamPayment, okStatus)
	huma.Post(api, "/processNifgashimPayment", h.Payments.HandleCardPayment, okStatus)

	// Registrations
	huma.Post(api, "/registrations", h.Registrations.HandleCreate, okStatus)
	huma.Get(api, "/registrations/edit/{token}", h.Registrations.HandleGetByToken)
	huma.Put(api, "/registrations/edit/{token}", h.Registrations.HandleUpdateByToken)

	// Trips
	huma.Post(api, "/addToGoogleCalendar", h.Calendar.HandleAddToCalendar, okStatus, secured)
	huma.Post(api, "/checkUpcomingTrips", h.Trips.HandleCheckUpcoming, okStatus, secured)
	huma.Post(api, "/trips/{tripId}/trek-days/renumber", h.Trips.HandleRenumberTrekDays, okStatus, secured)

	// Push notifications
	huma.Post(api, "/savePushSubscription", h.Push.HandleSaveSubscription, okStatus, secured)
	huma.Post(api, "/sendPushNotification", h.Push.HandleSend, okStatus, secured)
	huma.Post(api, "/sendPushNotificationToUser", h.Push.HandleSendToUser, okStatus, secured)

	// Protected plain routes
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.AuthMiddleware)
		r.Get("/trips/{tripId}/participants.xlsx", h.Trips.HandleExportParticipants)
	})

	return api
}
