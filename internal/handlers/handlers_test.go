package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gdg-garage/groupy-loopy-api/internal/auth"
	"github.com/gdg-garage/groupy-loopy-api/internal/calendar"
	"github.com/gdg-garage/groupy-loopy-api/internal/config"
	"github.com/gdg-garage/groupy-loopy-api/internal/models"
	"github.com/gdg-garage/groupy-loopy-api/internal/payments"
	"github.com/gdg-garage/groupy-loopy-api/internal/push"
	"github.com/gdg-garage/groupy-loopy-api/internal/store"
	"github.com/gdg-garage/groupy-loopy-api/internal/testutil"
	"github.com/gdg-garage/groupy-loopy-api/internal/trips"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

type fakeVerifier struct {
	verified bool
	err      error
	raw      [][]byte
}

func (f *fakeVerifier) Verify(ctx context.Context, raw []byte) (bool, error) {
	f.raw = append(f.raw, raw)
	return f.verified, f.err
}

type fakePages struct {
	requests []payments.PaymentPageRequest
	err      error
}

func (f *fakePages) CreatePaymentProcess(ctx context.Context, req payments.PaymentPageRequest) (*payments.PaymentPage, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &payments.PaymentPage{URL: "https://pay.example/p/1", ProcessID: "991", ProcessToken: "tok"}, nil
}

type fakeCharger struct {
	requests []payments.ChargeRequest
	status   string
	err      error
}

func (f *fakeCharger) Charge(ctx context.Context, req payments.ChargeRequest) (*payments.StripeCharge, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	status := f.status
	if status == "" {
		status = "succeeded"
	}
	return &payments.StripeCharge{
		ID:             "pi_" + strconv.Itoa(len(f.requests)),
		Status:         status,
		Amount:         req.Amount,
		RegistrationID: req.RegistrationID,
		ReceiptEmail:   req.ReceiptEmail,
	}, nil
}

type fakeCalendar struct {
	err   error
	trips []uint
}

func (f *fakeCalendar) AddTrip(ctx context.Context, user *models.User, trip models.Trip) (*calendar.Created, error) {
	if auth.UserToken(user) == nil {
		return nil, calendar.ErrNotConnected
	}
	auth.StoreToken(user, &oauth2.Token{AccessToken: "refreshed"})
	if f.err != nil {
		return nil, f.err
	}
	f.trips = append(f.trips, trip.ID)
	return &calendar.Created{ID: "evt-1", HTMLLink: "https://calendar.example/evt-1"}, nil
}

type fakeSender struct {
	mu       sync.Mutex
	statuses map[string]int
	sent     []string
}

func (f *fakeSender) Send(ctx context.Context, sub models.PushSubscription, payload []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sub.Endpoint)
	if status, ok := f.statuses[sub.Endpoint]; ok {
		return status, nil
	}
	return http.StatusCreated, nil
}

type env struct {
	db       *gorm.DB
	store    *store.Store
	cfg      *config.Config
	router   *chi.Mux
	verifier *fakeVerifier
	pages    *fakePages
	charger  *fakeCharger
	calendar *fakeCalendar
	sender   *fakeSender

	admin, organizer, member models.User
	adminToken               string
	organizerToken           string
	memberToken              string

	trip models.Trip
	reg  models.Registration
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	st := store.New(db)
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		FrontendURL:      "https://app.example",
		PublicAPIURL:     "https://api.example",
		SiteURL:          "https://site.example",
		GrowPageCode:     "grow-page",
		MeshulamPageCode: "meshulam-page",
		GoogleMapsAPIKey: "maps-key",
	}
	e := &env{
		db:       db,
		store:    st,
		cfg:      cfg,
		verifier: &fakeVerifier{verified: true},
		pages:    &fakePages{},
		charger:  &fakeCharger{},
		calendar: &fakeCalendar{},
		sender:   &fakeSender{statuses: map[string]int{}},
	}

	e.admin = models.User{GoogleID: "g-admin", Username: "admin", Email: "admin@example.com", Role: models.RoleAdmin}
	e.organizer = models.User{GoogleID: "g-org", Username: "org", Email: "org@example.com", Role: models.RoleUser}
	e.member = models.User{GoogleID: "g-member", Username: "member", Email: "member@example.com", Role: models.RoleUser}
	for _, u := range []*models.User{&e.admin, &e.organizer, &e.member} {
		require.NoError(t, db.Create(u).Error)
	}

	authHandler := auth.NewAuthHandler(cfg, db)
	var err error
	e.adminToken, err = authHandler.GenerateToken(e.admin.ID)
	require.NoError(t, err)
	e.organizerToken, err = authHandler.GenerateToken(e.organizer.ID)
	require.NoError(t, err)
	e.memberToken, err = authHandler.GenerateToken(e.member.ID)
	require.NoError(t, err)

	e.trip = testutil.CreateTrip(t, db, models.Trip{
		Title:          "Ein Gedi",
		Price:          100,
		Published:      true,
		OrganizerID:    &e.organizer.ID,
		OrganizerEmail: e.organizer.Email,
	})
	e.reg = testutil.CreateRegistration(t, db, models.Registration{
		TripID: e.trip.ID,
		RegistrationFields: models.RegistrationFields{
			PayerName:    "Dana",
			PayerEmail:   "dana@example.com",
			Participants: []models.Registrant{{Name: "Dana"}, {Name: "Yoav", IsChild: true}},
		},
		TotalAmount: 200,
	})

	reconciler := payments.NewReconciler(st, nil, nil, "")
	dispatcher := push.NewDispatcher(st, e.sender)
	service := trips.NewService(st, dispatcher, 0)

	e.router = chi.NewRouter()
	RegisterRoutes(e.router, cfg, Handlers{
		Auth:          authHandler,
		APIKeys:       NewAPIKeyHandler(db, authHandler),
		Registrations: NewRegistrationHandler(authHandler, st),
		Webhooks:      NewWebhookHandler(reconciler, e.verifier),
		Payments:      NewPaymentHandler(cfg, e.pages, e.charger, reconciler, st),
		Calendar:      NewCalendarHandler(authHandler, st, e.calendar),
		Push:          NewPushHandler(authHandler, st, dispatcher),
		Trips:         NewTripHandler(cfg, authHandler, st, service),
	})
	return e
}

type request struct {
	method      string
	path        string
	body        string
	contentType string
	token       string
	apiKey      string
}

func (e *env) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(r.method, r.path, strings.NewReader(r.body))
	switch {
	case r.contentType != "":
		req.Header.Set("Content-Type", r.contentType)
	case r.body != "":
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Cookie", "auth_token="+r.token)
	}
	if r.apiKey != "" {
		req.Header.Set("X-API-KEY", r.apiKey)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) post(t *testing.T, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, request{method: http.MethodPost, path: path, body: body, token: token})
}

func (e *env) reloadRegistration(t *testing.T) models.Registration {
	t.Helper()
	var reg models.Registration
	require.NoError(t, e.db.Preload("Transactions").First(&reg, e.reg.ID).Error)
	return reg
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
