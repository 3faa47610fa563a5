package handlers

import (
	"errors"
	"log"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/groupy-loopy-api/internal/calendar"
	"github.com/gdg-garage/groupy-loopy-api/internal/payments"
	"github.com/gdg-garage/groupy-loopy-api/internal/store"
)

// apiError maps domain errors onto HTTP problems. Anything unrecognised is
// logged and reported as a 500 carrying the error message.
func apiError(err error) error {
	switch {
	case errors.Is(err, payments.ErrMissingFields), errors.Is(err, payments.ErrDeclined):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, calendar.ErrNotConnected):
		return huma.Error400BadRequest("Google Calendar is not connected")
	case errors.Is(err, store.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, payments.ErrUpstream), errors.Is(err, calendar.ErrUpstream):
		return huma.Error502BadGateway(err.Error())
	}
	log.Printf("Request failed: %v", err)
	return huma.Error500InternalServerError(err.Error())
}

// okStatus pins POST operations to 200 so providers and the frontend see
// the same status for every success.
func okStatus(o *huma.Operation) {
	o.DefaultStatus = 200
}
