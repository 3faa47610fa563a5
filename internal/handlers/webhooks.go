package handlers

import (
	"context"
	"log"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/groupy-loopy-api/internal/payments"
)

type IPNVerifier interface {
	Verify(ctx context.Context, raw []byte) (bool, error)
}

type WebhookHandler struct {
	reconciler *payments.Reconciler
	verifier   IPNVerifier
}

func NewWebhookHandler(reconciler *payments.Reconciler, verifier IPNVerifier) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler, verifier: verifier}
}

// WebhookInput keeps the body raw: providers post JSON or form data and
// PayPal needs the exact bytes back for verification.
type WebhookInput struct {
	ContentType string `header:"Content-Type"`
	RawBody     []byte
}

type WebhookOutput struct {
	Body struct {
		Success   bool `json:"success"`
		Applied   bool `json:"applied"`
		Duplicate bool `json:"duplicate"`
	}
}

type TextOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

func text(s string) *TextOutput {
	return &TextOutput{ContentType: "text/plain; charset=utf-8", Body: []byte(s)}
}

func (h *WebhookHandler) reconcile(ctx context.Context, payload payments.WebhookPayload) (*WebhookOutput, error) {
	outcome, err := h.reconciler.Reconcile(ctx, payload)
	if err != nil {
		log.Printf("%s webhook rejected: %v", payload.Provider(), err)
		return nil, apiError(err)
	}
	res := &WebhookOutput{}
	res.Body.Success = true
	res.Body.Applied = outcome.Applied
	res.Body.Duplicate = outcome.Duplicate
	return res, nil
}

func (h *WebhookHandler) HandleMeshulam(ctx context.Context, input *WebhookInput) (*WebhookOutput, error) {
	payload, err := payments.ParseMeshulam(input.ContentType, input.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid Meshulam payload", err)
	}
	return h.reconcile(ctx, payload)
}

func (h *WebhookHandler) HandleHyp(ctx context.Context, input *WebhookInput) (*WebhookOutput, error) {
	payload, err := payments.ParseHyp(input.ContentType, input.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid HYP payload", err)
	}
	return h.reconcile(ctx, payload)
}

// HandlePayPalIPN trusts nothing in the notification until PayPal confirms
// it. Unconfirmed notifications are acknowledged with INVALID and ignored.
func (h *WebhookHandler) HandlePayPalIPN(ctx context.Context, input *WebhookInput) (*TextOutput, error) {
	verified, err := h.verifier.Verify(ctx, input.RawBody)
	if err != nil {
		log.Printf("PayPal IPN verification failed: %v", err)
		return nil, apiError(err)
	}
	if !verified {
		log.Printf("PayPal IPN not verified, ignoring")
		return text("INVALID"), nil
	}

	payload, err := payments.ParsePayPal(input.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid IPN payload", err)
	}
	if _, err := h.reconciler.Reconcile(ctx, payload); err != nil {
		log.Printf("PayPal IPN rejected: %v", err)
		return nil, apiError(err)
	}
	return text("VERIFIED"), nil
}
