package payments

// HypPayload is the HYP gateway callback. It carries no signature, so
// fields are taken as given.
// TODO: verify the HYP callback signature once the terminal's signing key is provisioned.
type HypPayload struct {
	TransactionID  flexString `json:"transaction_id"`
	RegistrationID flexString `json:"registration_id"`
	Amount         flexString `json:"amount"`
	Status         flexString `json:"status"`
	PaymentMethod  flexString `json:"payment_method"`
	Email          flexString `json:"email"`
}

func ParseHyp(contentType string, body []byte) (*HypPayload, error) {
	var p HypPayload
	if err := decodeBody(contentType, body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *HypPayload) Provider() string { return ProviderHyp }

func (p *HypPayload) Normalize() (Reconciliation, error) {
	rec := Reconciliation{
		Provider:      ProviderHyp,
		Success:       p.Status.String() == "success",
		TransactionID: p.TransactionID.String(),
		Method:        p.PaymentMethod.String(),
		PayerEmail:    p.Email.String(),
	}
	if rec.Method == "" {
		rec.Method = ProviderHyp
	}
	if !rec.Success {
		return rec, nil
	}
	if rec.TransactionID == "" {
		return rec, missing("transaction_id")
	}
	id, err := parseRegistrationID(p.RegistrationID.String())
	if err != nil {
		return rec, err
	}
	rec.RegistrationID = id

	amount, err := parseAmount(p.Amount.String())
	if err != nil {
		return rec, err
	}
	rec.Amount = amount
	return rec, nil
}
