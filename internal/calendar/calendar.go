// Package calendar adds trips to a user's Google Calendar.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gdg-garage/groupy-loopy-api/internal/auth"
	"github.com/gdg-garage/groupy-loopy-api/internal/models"
	"golang.org/x/oauth2"
)

var (
	ErrNotConnected = errors.New("google calendar is not connected")
	ErrUpstream     = errors.New("google calendar error")
)

const defaultStartTime = "08:00"

// EventWindow computes the event start and end for a trip. The trip date
// supplies the day and StartTime the local clock time.
func EventWindow(trip models.Trip, loc *time.Location) (time.Time, time.Time) {
	hour, minute := parseClock(trip.StartTime)
	y, m, d := trip.Date.In(loc).Date()
	start := time.Date(y, m, d, hour, minute, 0, 0, loc)

	var length time.Duration
	switch trip.DurationType {
	case models.DurationFullDay:
		length = 8 * time.Hour
	case models.DurationHalfDay:
		length = 4 * time.Hour
	case models.DurationHours:
		length = time.Duration(max(trip.DurationValue, 1)) * time.Hour
	case models.DurationMultiDay:
		return start, start.AddDate(0, 0, max(trip.DurationValue, 1))
	default:
		length = 2 * time.Hour
	}
	return start, start.Add(length)
}

func parseClock(s string) (int, int) {
	if s == "" {
		s = defaultStartTime
	}
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 8, 0
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 8, 0
	}
	return h, m
}

type eventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type Event struct {
	Summary     string    `json:"summary"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	Start       eventTime `json:"start"`
	End         eventTime `json:"end"`
}

type Created struct {
	ID       string `json:"id"`
	HTMLLink string `json:"htmlLink"`
}

func BuildEvent(trip models.Trip, loc *time.Location, siteURL string) Event {
	start, end := EventWindow(trip, loc)
	desc := trip.Description
	if siteURL != "" {
		link := fmt.Sprintf("%s/TripDetails?id=%d", strings.TrimRight(siteURL, "/"), trip.ID)
		if desc != "" {
			desc += "\n\n"
		}
		desc += link
	}
	return Event{
		Summary:     trip.Title,
		Location:    trip.Location,
		Description: desc,
		Start:       eventTime{DateTime: start.Format(time.RFC3339), TimeZone: loc.String()},
		End:         eventTime{DateTime: end.Format(time.RFC3339), TimeZone: loc.String()},
	}
}

type Client struct {
	oauth   *oauth2.Config
	baseURL string
	loc     *time.Location
	siteURL string
}

func NewClient(oauth *oauth2.Config, baseURL, timezone, siteURL string) (*Client, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Client{
		oauth:   oauth,
		baseURL: strings.TrimRight(baseURL, "/"),
		loc:     loc,
		siteURL: siteURL,
	}, nil
}

// AddTrip inserts the trip into the user's primary calendar. The refreshed
// token, if any, is written back onto user.
func (c *Client) AddTrip(ctx context.Context, user *models.User, trip models.Trip) (*Created, error) {
	token := auth.UserToken(user)
	if token == nil {
		return nil, ErrNotConnected
	}

	src := c.oauth.TokenSource(ctx, token)
	httpClient := oauth2.NewClient(ctx, src)

	body, err := json.Marshal(BuildEvent(trip, c.loc, c.siteURL))
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/calendars/primary/events", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if fresh, err := src.Token(); err == nil {
		auth.StoreToken(user, fresh)
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var created Created
	if err := json.Unmarshal(respBody, &created); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return &created, nil
}
