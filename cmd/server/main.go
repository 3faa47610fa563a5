package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gdg-garage/groupy-loopy-api/internal/auth"
	"github.com/gdg-garage/groupy-loopy-api/internal/calendar"
	"github.com/gdg-garage/groupy-loopy-api/internal/config"
	"github.com/gdg-garage/groupy-loopy-api/internal/database"
	"github.com/gdg-garage/groupy-loopy-api/internal/handlers"
	"github.com/gdg-garage/groupy-loopy-api/internal/notifier"
	"github.com/gdg-garage/groupy-loopy-api/internal/payments"
	"github.com/gdg-garage/groupy-loopy-api/internal/push"
	"github.com/gdg-garage/groupy-loopy-api/internal/store"
	"github.com/gdg-garage/groupy-loopy-api/internal/trips"
	"github.com/go-chi/chi/v5"
)

func main() {
	// Load Configuration
	cfg := config.LoadConfig()

	// Connect to Database
	db := database.Connect(cfg)
	repo := store.New(db)

	// Notifications
	var mailer notifier.Mailer
	if cfg.SMTPHost != "" {
		mailer = notifier.NewSMTPMailer(cfg)
	} else {
		log.Printf("SMTP_HOST not set, emails are disabled")
	}
	var discord payments.AdminNotifier
	if d, err := notifier.NewDiscordNotifierFromConfig(cfg); err != nil {
		log.Printf("Discord notifier not initialized: %v", err)
	} else {
		discord = d
	}

	// Payments
	reconciler := payments.NewReconciler(repo, mailer, discord, cfg.AdminEmail)
	httpClient := &http.Client{Timeout: 30 * time.Second}
	verifier := payments.NewIPNVerifier(cfg.PayPalVerifyURL, httpClient)
	grow := payments.NewGrowClient(cfg.GrowAPIURL, cfg.GrowUserID, httpClient)
	charger := payments.NewStripeCharger(cfg.StripeSecretKey)

	// Push, calendar and trips
	dispatcher := push.NewDispatcher(repo, push.NewWebPushSender(cfg))
	calendarClient, err := calendar.NewClient(auth.GoogleOAuthConfig(cfg), cfg.CalendarAPIURL, cfg.CalendarTimezone, cfg.SiteURL)
	if err != nil {
		log.Fatalf("Failed to initialize calendar client: %v", err)
	}
	tripService := trips.NewService(repo, dispatcher, time.Duration(cfg.ReminderWindowHours)*time.Hour)

	// Initialize Handlers
	authHandler := auth.NewAuthHandler(cfg, db)
	h := handlers.Handlers{
		Auth:          authHandler,
		APIKeys:       handlers.NewAPIKeyHandler(db, authHandler),
		Registrations: handlers.NewRegistrationHandler(authHandler, repo),
		Webhooks:      handlers.NewWebhookHandler(reconciler, verifier),
		Payments:      handlers.NewPaymentHandler(cfg, grow, charger, reconciler, repo),
		Calendar:      handlers.NewCalendarHandler(authHandler, repo, calendarClient),
		Push:          handlers.NewPushHandler(authHandler, repo, dispatcher),
		Trips:         handlers.NewTripHandler(cfg, authHandler, repo, tripService),
	}

	// Initialize Router
	r := chi.NewRouter()

	// Register Routes
	handlers.RegisterRoutes(r, cfg, h)

	// Start Server
	log.Printf("Starting server on port %s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
