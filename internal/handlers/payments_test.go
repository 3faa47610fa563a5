package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gdg-garage/groupy-loopy-api/internal/models"
	"github.com/gdg-garage/groupy-loopy-api/internal/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGrowPayment(t *testing.T) {
	e := newEnv(t)

	rec := e.post(t, "/createGrowPayment", `{"amount":200,"fullName":"Dana","email":"dana@example.com","registrationId":`+itoa(e.reg.ID)+`}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"url":"https://pay.example/p/1"}`, rec.Body.String())

	require.Len(t, e.pages.requests, 1)
	req := e.pages.requests[0]
	assert.Equal(t, "grow-page", req.PageCode)
	assert.Equal(t, e.reg.ID, req.RegistrationID)
	assert.Equal(t, "https://api.example/meshulamWebhook", req.NotifyURL)
	assert.Equal(t, "https://app.example/PaymentSuccess?registration="+itoa(e.reg.ID), req.SuccessURL)
	assert.NotEmpty(t, req.Description)
}

func TestCreateGrowPaymentEmbed(t *testing.T) {
	e := newEnv(t)

	rec := e.post(t, "/createGrowPaymentEmbed", `{"amount":50}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"paymentUrl":"https://pay.example/p/1","processId":"991","processToken":"tok"}`, rec.Body.String())
}

func TestCreateMeshulamPayment(t *testing.T) {
	e := newEnv(t)

	rec := e.post(t, "/createMeshulamPayment", `{"amount":50,"registrationId":`+itoa(e.reg.ID)+`}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, e.pages.requests, 1)
	assert.Equal(t, "meshulam-page", e.pages.requests[0].PageCode)
}

func TestCreatePayment_Errors(t *testing.T) {
	e := newEnv(t)

	rec := e.post(t, "/createGrowPayment", `{"fullName":"Dana"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, e.pages.requests)

	e.pages.err = fmt.Errorf("%w: invalid page code", payments.ErrUpstream)
	rec = e.post(t, "/createGrowPayment", `{"amount":10}`, "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid page code")
}

func TestProcessCardPayment(t *testing.T) {
	e := newEnv(t)

	rec := e.post(t, "/processNifgashimPayment", `{"paymentMethodId":"pm_card","amount":200,"registrationId":`+itoa(e.reg.ID)+`}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true,"transactionId":"pi_1","status":"succeeded"}`, rec.Body.String())

	require.Len(t, e.charger.requests, 1)
	assert.Equal(t, "dana@example.com", e.charger.requests[0].ReceiptEmail)

	reg := e.reloadRegistration(t)
	assert.Equal(t, 200.0, reg.AmountPaid)
	assert.Equal(t, models.PaymentCompleted, reg.PaymentStatus)
	require.Len(t, reg.Transactions, 1)
	assert.Equal(t, "stripe", reg.Transactions[0].Provider)
}

func TestProcessCardPayment_WithoutRegistration(t *testing.T) {
	e := newEnv(t)

	rec := e.post(t, "/processNifgashimPayment", `{"paymentMethodId":"pm_card","amount":30}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Zero(t, e.reloadRegistration(t).AmountPaid)
}

func TestProcessCardPayment_Errors(t *testing.T) {
	e := newEnv(t)

	t.Run("missing fields", func(t *testing.T) {
		rec := e.post(t, "/processNifgashimPayment", `{"amount":30}`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown registration is not charged", func(t *testing.T) {
		rec := e.post(t, "/processNifgashimPayment", `{"paymentMethodId":"pm_card","amount":30,"registrationId":9999}`, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, e.charger.requests)
	})

	t.Run("declined", func(t *testing.T) {
		e.charger.err = fmt.Errorf("%w: Your card was declined.", payments.ErrDeclined)
		rec := e.post(t, "/processNifgashimPayment", `{"paymentMethodId":"pm_card","amount":30}`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Your card was declined.")
	})

	assert.Zero(t, e.reloadRegistration(t).AmountPaid)
}
