package handlers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gdg-garage/groupy-loopy-api/internal/models"
	"github.com/gdg-garage/groupy-loopy-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, request{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestCheckUpcomingTrips(t *testing.T) {
	e := newEnv(t)
	soon := testutil.CreateTrip(t, e.db, models.Trip{Title: "Soon", Date: time.Now().Add(3 * time.Hour)})
	require.NoError(t, e.db.Create(&models.TripParticipant{TripID: soon.ID, Email: e.member.Email, Name: "Member"}).Error)
	require.NoError(t, e.db.Create(&models.PushSubscription{UserID: e.member.ID, Endpoint: "https://push.example/m", P256dh: "k", Auth: "a"}).Error)

	rec := e.post(t, "/checkUpcomingTrips", "", e.memberToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Schedulers authenticate with an admin's API key.
	require.NoError(t, e.db.Create(&models.APIKey{UserID: e.admin.ID, Key: "cron-key", Name: "cron"}).Error)
	rec = e.do(t, request{method: http.MethodPost, path: "/checkUpcomingTrips", apiKey: "cron-key"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true,"trips_checked":2,"upcoming_trips":1,"notifications_sent":1}`, rec.Body.String())
	assert.Equal(t, []string{"https://push.example/m"}, e.sender.sent)
}

func TestRenumberTrekDaysEndpoint(t *testing.T) {
	e := newEnv(t)
	for _, n := range []int{5, 2, 9} {
		require.NoError(t, e.db.Create(&models.TrekDay{TripID: e.trip.ID, DayNumber: n, Title: "day"}).Error)
	}
	path := "/trips/" + itoa(e.trip.ID) + "/trek-days/renumber"

	rec := e.post(t, path, "", e.memberToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.post(t, path, "", e.organizerToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var days []models.TrekDay
	require.NoError(t, e.db.Where("trip_id = ?", e.trip.ID).Order("id asc").Find(&days).Error)
	require.Len(t, days, 3)
	assert.Equal(t, []int{2, 1, 3}, []int{days[0].DayNumber, days[1].DayNumber, days[2].DayNumber})

	rec = e.post(t, "/trips/9999/trek-days/renumber", "", e.adminToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSitemapEndpoint(t *testing.T) {
	e := newEnv(t)
	draft := testutil.CreateTrip(t, e.db, models.Trip{Title: "Draft"})

	rec := e.do(t, request{method: http.MethodGet, path: "/sitemap"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/xml"))
	body := rec.Body.String()
	assert.Contains(t, body, "<urlset")
	assert.Contains(t, body, "https://site.example/TripDetails?id="+itoa(e.trip.ID))
	assert.NotContains(t, body, "TripDetails?id="+itoa(draft.ID)+"<")
}

func TestGoogleMapsKey(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, request{method: http.MethodGet, path: "/getGoogleMapsKey"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"apiKey":"maps-key"}`, rec.Body.String())

	e.cfg.GoogleMapsAPIKey = ""
	rec = e.do(t, request{method: http.MethodGet, path: "/getGoogleMapsKey"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestExportParticipantsEndpoint(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.db.Create(&models.TripParticipant{TripID: e.trip.ID, Email: "a@example.com", Name: "A"}).Error)
	path := "/trips/" + itoa(e.trip.ID) + "/participants.xlsx"

	rec := e.do(t, request{method: http.MethodGet, path: path})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, request{method: http.MethodGet, path: path, token: e.memberToken})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, request{method: http.MethodGet, path: path, token: e.organizerToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "participants.xlsx")
	// xlsx files are zip archives.
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))

	rec = e.do(t, request{method: http.MethodGet, path: "/trips/9999/participants.xlsx", token: e.adminToken})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
