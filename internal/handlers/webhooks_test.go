package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/gdg-garage/groupy-loopy-api/internal/models"
	"github.com/gdg-garage/groupy-loopy-api/internal/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeshulamWebhook(t *testing.T) {
	e := newEnv(t)
	body := `{"status":"2","transactionId":"m1","sum":"200","customFields":{"registration_id":"` + itoa(e.reg.ID) + `"}}`

	rec := e.post(t, "/meshulamWebhook", body, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true,"applied":true,"duplicate":false}`, rec.Body.String())

	reg := e.reloadRegistration(t)
	assert.Equal(t, 200.0, reg.AmountPaid)
	assert.Equal(t, models.PaymentCompleted, reg.PaymentStatus)

	participants, err := e.store.TripParticipants(context.Background(), e.trip.ID)
	require.NoError(t, err)
	assert.Len(t, participants, 2)

	t.Run("redelivery is a no-op", func(t *testing.T) {
		rec := e.post(t, "/meshulamWebhook", body, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true,"applied":false,"duplicate":true}`, rec.Body.String())

		reg := e.reloadRegistration(t)
		assert.Equal(t, 200.0, reg.AmountPaid)
		assert.Len(t, reg.Transactions, 1)
	})
}

func TestMeshulamWebhook_FormBody(t *testing.T) {
	e := newEnv(t)
	form := url.Values{}
	form.Set("status", "שולם")
	form.Set("transactionId", "m-form")
	form.Set("sum", "50")
	form.Set("cField1", itoa(e.reg.ID))

	rec := e.do(t, request{
		method:      http.MethodPost,
		path:        "/meshulamWebhook",
		body:        form.Encode(),
		contentType: "application/x-www-form-urlencoded",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	reg := e.reloadRegistration(t)
	assert.Equal(t, 50.0, reg.AmountPaid)
	assert.Equal(t, models.PaymentPartial, reg.PaymentStatus)
}

func TestMeshulamWebhook_Rejections(t *testing.T) {
	e := newEnv(t)

	t.Run("missing registration id", func(t *testing.T) {
		rec := e.post(t, "/meshulamWebhook", `{"status":"2","transactionId":"m1","sum":"200","customFields":[{"key":"registration_id","field_value":""}]}`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown registration", func(t *testing.T) {
		rec := e.post(t, "/meshulamWebhook", `{"status":"2","transactionId":"m2","sum":"200","cField1":"9999"}`, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("not paid is acknowledged", func(t *testing.T) {
		rec := e.post(t, "/meshulamWebhook", `{"status":"0","transactionId":"m3","sum":"200","cField1":"`+itoa(e.reg.ID)+`"}`, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true,"applied":false,"duplicate":false}`, rec.Body.String())
	})

	reg := e.reloadRegistration(t)
	assert.Zero(t, reg.AmountPaid)
	assert.Equal(t, models.PaymentPending, reg.PaymentStatus)
	assert.Empty(t, reg.Transactions)
}

func TestPayPalIPN_Invalid(t *testing.T) {
	e := newEnv(t)
	e.verifier.verified = false

	walkIn := models.TripParticipant{TripID: e.trip.ID, Email: "walker@example.com", Name: "Walker"}
	require.NoError(t, e.db.Create(&walkIn).Error)

	raw := "payment_status=Completed&txn_id=PP1&mc_gross=75&custom=walker%40example.com"
	rec := e.do(t, request{
		method:      http.MethodPost,
		path:        "/paypalIPN",
		body:        raw,
		contentType: "application/x-www-form-urlencoded",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "INVALID", rec.Body.String())
	require.Len(t, e.verifier.raw, 1)
	assert.Equal(t, raw, string(e.verifier.raw[0]))

	var unchanged models.TripParticipant
	require.NoError(t, e.db.First(&unchanged, walkIn.ID).Error)
	assert.Empty(t, unchanged.PaymentStatus)
	assert.Zero(t, unchanged.PaymentAmount)
	assert.Empty(t, unchanged.PaymentTransactionID)
}

func TestPayPalIPN_Verified(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, request{
		method:      http.MethodPost,
		path:        "/paypalIPN",
		body:        "payment_status=Completed&txn_id=PP2&mc_gross=120&custom=" + itoa(e.reg.ID),
		contentType: "application/x-www-form-urlencoded",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "VERIFIED", rec.Body.String())

	reg := e.reloadRegistration(t)
	assert.Equal(t, 120.0, reg.AmountPaid)
	assert.Equal(t, models.PaymentPartial, reg.PaymentStatus)
}

func TestPayPalIPN_VerificationUnavailable(t *testing.T) {
	e := newEnv(t)
	e.verifier.err = errors.Join(payments.ErrUpstream, errors.New("connection refused"))

	rec := e.do(t, request{
		method:      http.MethodPost,
		path:        "/paypalIPN",
		body:        "payment_status=Completed&txn_id=PP3&mc_gross=120&custom=" + itoa(e.reg.ID),
		contentType: "application/x-www-form-urlencoded",
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Zero(t, e.reloadRegistration(t).AmountPaid)
}

func TestHypWebhook(t *testing.T) {
	e := newEnv(t)

	rec := e.post(t, "/hypWebhook", `{"transaction_id":"h1","registration_id":`+itoa(e.reg.ID)+`,"amount":80,"status":"success","payment_method":"credit"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	reg := e.reloadRegistration(t)
	assert.Equal(t, 80.0, reg.AmountPaid)
	require.Len(t, reg.Transactions, 1)
	assert.Equal(t, "hyp", reg.Transactions[0].Provider)
	assert.Equal(t, "credit", reg.Transactions[0].Method)

	rec = e.post(t, "/hypWebhook", `{"transaction_id":"h2","amount":80,"status":"success"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
