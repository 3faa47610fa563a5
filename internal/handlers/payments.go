package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/groupy-loopy-api/internal/config"
	"github.com/gdg-garage/groupy-loopy-api/internal/models"
	"github.com/gdg-garage/groupy-loopy-api/internal/payments"
)

type PaymentPageCreator interface {
	CreatePaymentProcess(ctx context.Context, req payments.PaymentPageRequest) (*payments.PaymentPage, error)
}

type RegistrationGetter interface {
	GetRegistration(ctx context.Context, id uint) (*models.Registration, error)
}

type PaymentHandler struct {
	pages         PaymentPageCreator
	charger       payments.Charger
	reconciler    *payments.Reconciler
	registrations RegistrationGetter
	cfg           *config.Config
}

func NewPaymentHandler(cfg *config.Config, pages PaymentPageCreator, charger payments.Charger, reconciler *payments.Reconciler, registrations RegistrationGetter) *PaymentHandler {
	return &PaymentHandler{
		pages:         pages,
		charger:       charger,
		reconciler:    reconciler,
		registrations: registrations,
		cfg:           cfg,
	}
}

type PaymentPageInput struct {
	Body struct {
		Amount         float64 `json:"amount,omitempty" doc:"Amount in ILS"`
		Description    string  `json:"description,omitempty"`
		FullName       string  `json:"fullName,omitempty"`
		Phone          string  `json:"phone,omitempty"`
		Email          string  `json:"email,omitempty"`
		RegistrationID uint    `json:"registrationId,omitempty" doc:"Registration credited by the payment webhook"`
	}
}

type PaymentURLOutput struct {
	Body struct {
		URL string `json:"url"`
	}
}

type EmbeddedPaymentOutput struct {
	Body struct {
		PaymentURL   string `json:"paymentUrl"`
		ProcessID    string `json:"processId"`
		ProcessToken string `json:"processToken"`
	}
}

func (h *PaymentHandler) pageRequest(input *PaymentPageInput, pageCode string) payments.PaymentPageRequest {
	api := strings.TrimRight(h.cfg.PublicAPIURL, "/")
	front := strings.TrimRight(h.cfg.FrontendURL, "/")
	req := payments.PaymentPageRequest{
		PageCode:       pageCode,
		Amount:         input.Body.Amount,
		Description:    input.Body.Description,
		FullName:       input.Body.FullName,
		Phone:          input.Body.Phone,
		Email:          input.Body.Email,
		RegistrationID: input.Body.RegistrationID,
		SuccessURL:     front + "/PaymentSuccess",
		CancelURL:      front + "/PaymentCancelled",
		NotifyURL:      api + "/meshulamWebhook",
	}
	if req.Description == "" {
		req.Description = "Groupy Loopy trip payment"
	}
	if req.RegistrationID != 0 {
		req.SuccessURL = fmt.Sprintf("%s?registration=%d", req.SuccessURL, req.RegistrationID)
	}
	return req
}

func (h *PaymentHandler) createPage(ctx context.Context, input *PaymentPageInput, pageCode string) (*payments.PaymentPage, error) {
	if input.Body.Amount <= 0 {
		return nil, huma.Error400BadRequest("amount is required")
	}
	page, err := h.pages.CreatePaymentProcess(ctx, h.pageRequest(input, pageCode))
	if err != nil {
		log.Printf("Failed to create payment page: %v", err)
		return nil, apiError(err)
	}
	return page, nil
}

func (h *PaymentHandler) HandleCreateGrowPayment(ctx context.Context, input *PaymentPageInput) (*PaymentURLOutput, error) {
	page, err := h.createPage(ctx, input, h.cfg.GrowPageCode)
	if err != nil {
		return nil, err
	}
	res := &PaymentURLOutput{}
	res.Body.URL = page.URL
	return res, nil
}

func (h *PaymentHandler) HandleCreateGrowPaymentEmbed(ctx context.Context, input *PaymentPageInput) (*EmbeddedPaymentOutput, error) {
	page, err := h.createPage(ctx, input, h.cfg.GrowPageCode)
	if err != nil {
		return nil, err
	}
	res := &EmbeddedPaymentOutput{}
	res.Body.PaymentURL = page.URL
	res.Body.ProcessID = page.ProcessID
	res.Body.ProcessToken = page.ProcessToken
	return res, nil
}

func (h *PaymentHandler) HandleCreateMeshulamPayment(ctx context.Context, input *PaymentPageInput) (*PaymentURLOutput, error) {
	page, err := h.createPage(ctx, input, h.cfg.MeshulamPageCode)
	if err != nil {
		return nil, err
	}
	res := &PaymentURLOutput{}
	res.Body.URL = page.URL
	return res, nil
}

type CardPaymentInput struct {
	Body struct {
		PaymentMethodID string  `json:"paymentMethodId,omitempty"`
		Amount          float64 `json:"amount,omitempty"`
		RegistrationID  uint    `json:"registrationId,omitempty"`
		Email           string  `json:"email,omitempty"`
		Description     string  `json:"description,omitempty"`
	}
}

type CardPaymentOutput struct {
	Body struct {
		Success       bool   `json:"success"`
		TransactionID string `json:"transactionId"`
		Status        string `json:"status"`
	}
}

// HandleCardPayment charges the card and, when the charge belongs to a
// registration, credits it the same way a webhook would.
func (h *PaymentHandler) HandleCardPayment(ctx context.Context, input *CardPaymentInput) (*CardPaymentOutput, error) {
	if input.Body.PaymentMethodID == "" || input.Body.Amount <= 0 {
		return nil, huma.Error400BadRequest("paymentMethodId and amount are required")
	}

	req := payments.ChargeRequest{
		PaymentMethodID: input.Body.PaymentMethodID,
		Amount:          input.Body.Amount,
		Description:     input.Body.Description,
		ReceiptEmail:    input.Body.Email,
		RegistrationID:  input.Body.RegistrationID,
	}
	if req.RegistrationID != 0 {
		reg, err := h.registrations.GetRegistration(ctx, req.RegistrationID)
		if err != nil {
			return nil, apiError(err)
		}
		if req.ReceiptEmail == "" {
			req.ReceiptEmail = reg.PayerEmail
		}
	}

	charge, err := h.charger.Charge(ctx, req)
	if err != nil {
		log.Printf("Card payment failed: %v", err)
		return nil, apiError(err)
	}

	rec, err := charge.Normalize()
	if err == nil && rec.Success && rec.RegistrationID != 0 {
		if _, err := h.reconciler.Apply(ctx, rec); err != nil {
			log.Printf("Failed to credit registration %d with charge %s: %v", rec.RegistrationID, charge.ID, err)
		}
	}

	res := &CardPaymentOutput{}
	res.Body.Success = rec.Success
	res.Body.TransactionID = charge.ID
	res.Body.Status = charge.Status
	return res, nil
}
