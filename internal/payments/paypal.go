package payments

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// PayPalPayload is an Instant Payment Notification. Nothing in it can be
// trusted before IPNVerifier confirms it.
type PayPalPayload struct {
	PaymentStatus string
	TxnID         string
	Gross         string
	Custom        string
	PayerEmail    string
	ReceiverEmail string
	Raw           []byte
}

func ParsePayPal(body []byte) (*PayPalPayload, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse ipn body: %w", err)
	}
	return &PayPalPayload{
		PaymentStatus: values.Get("payment_status"),
		TxnID:         values.Get("txn_id"),
		Gross:         values.Get("mc_gross"),
		Custom:        strings.TrimSpace(values.Get("custom")),
		PayerEmail:    values.Get("payer_email"),
		ReceiverEmail: values.Get("receiver_email"),
		Raw:           body,
	}, nil
}

func (p *PayPalPayload) Provider() string { return ProviderPayPal }

// Normalize correlates by registration id when custom carries one, and by
// payer email otherwise.
func (p *PayPalPayload) Normalize() (Reconciliation, error) {
	rec := Reconciliation{
		Provider:      ProviderPayPal,
		Success:       p.PaymentStatus == "Completed",
		TransactionID: p.TxnID,
		Method:        ProviderPayPal,
		PayerEmail:    p.PayerEmail,
	}
	if !rec.Success {
		return rec, nil
	}
	if rec.TransactionID == "" {
		return rec, missing("txn_id")
	}
	amount, err := parseAmount(p.Gross)
	if err != nil {
		return rec, err
	}
	rec.Amount = amount

	ref := p.Custom
	if ref == "" {
		ref = p.PayerEmail
	}
	if ref == "" {
		return rec, missing("custom")
	}
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil && id > 0 {
		rec.RegistrationID = uint(id)
	} else {
		rec.Reference = ref
	}
	return rec, nil
}

// IPNVerifier posts the notification back to PayPal with
// cmd=_notify-validate prepended, as the IPN protocol requires.
type IPNVerifier struct {
	url    string
	client *http.Client
}

func NewIPNVerifier(verifyURL string, client *http.Client) *IPNVerifier {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &IPNVerifier{url: verifyURL, client: client}
}

// Verify reports whether PayPal answered with the literal VERIFIED.
func (v *IPNVerifier) Verify(ctx context.Context, raw []byte) (bool, error) {
	body := append([]byte("cmd=_notify-validate&"), raw...)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "groupy-loopy-ipn")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	answer, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return strings.TrimSpace(string(answer)) == "VERIFIED", nil
}
