package payments

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type ChargeRequest struct {
	PaymentMethodID string
	Amount          float64
	Description     string
	ReceiptEmail    string
	RegistrationID  uint
}

// StripeCharge is the outcome of a confirmed PaymentIntent. It feeds the
// same reconciliation path as the webhook payloads.
type StripeCharge struct {
	ID             string
	Status         string
	Amount         float64
	RegistrationID uint
	ReceiptEmail   string
}

func (c *StripeCharge) Provider() string { return ProviderStripe }

func (c *StripeCharge) Normalize() (Reconciliation, error) {
	rec := Reconciliation{
		Provider:       ProviderStripe,
		Success:        c.Status == string(stripe.PaymentIntentStatusSucceeded),
		TransactionID:  c.ID,
		Amount:         c.Amount,
		Method:         "card",
		PayerEmail:     c.ReceiptEmail,
		RegistrationID: c.RegistrationID,
	}
	if rec.Success && rec.RegistrationID == 0 {
		return rec, missing("registration_id")
	}
	return rec, nil
}

type Charger interface {
	Charge(ctx context.Context, req ChargeRequest) (*StripeCharge, error)
}

type paymentIntentCreator interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type StripeCharger struct {
	intents paymentIntentCreator
}

func NewStripeCharger(secretKey string) *StripeCharger {
	sc := client.New(secretKey, nil)
	return &StripeCharger{intents: sc.PaymentIntents}
}

// toAgorot converts shekels to the smallest currency unit.
func toAgorot(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (s *StripeCharger) Charge(ctx context.Context, req ChargeRequest) (*StripeCharge, error) {
	if req.PaymentMethodID == "" {
		return nil, missing("paymentMethodId")
	}
	if req.Amount <= 0 {
		return nil, missing("amount")
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(toAgorot(req.Amount)),
		Currency:      stripe.String(string(stripe.CurrencyILS)),
		PaymentMethod: stripe.String(req.PaymentMethodID),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	if req.RegistrationID != 0 {
		params.AddMetadata("registration_id", strconv.FormatUint(uint64(req.RegistrationID), 10))
	}

	pi, err := s.intents.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return nil, fmt.Errorf("%w: %s", ErrDeclined, stripeErr.Msg)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	charge := &StripeCharge{
		ID:             pi.ID,
		Status:         string(pi.Status),
		Amount:         req.Amount,
		RegistrationID: req.RegistrationID,
		ReceiptEmail:   req.ReceiptEmail,
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return charge, fmt.Errorf("%w: payment intent is %s", ErrDeclined, pi.Status)
	}
	return charge, nil
}
