package payments

import (
	"encoding/json"
	"strings"
)

// Status values Meshulam uses for a paid transaction.
var meshulamPaidStatuses = map[string]bool{
	"שולם": true,
	"2":    true,
	"רגיל": true,
}

var registrationFieldNames = map[string]bool{
	"registration_id": true,
	"registrationid":  true,
	"registration id": true,
}

type meshulamFields struct {
	Status         flexString      `json:"status"`
	StatusCode     flexString      `json:"statusCode"`
	TransactionID  flexString      `json:"transactionId"`
	AsmachtaNumber flexString      `json:"asmachta"`
	Sum            flexString      `json:"sum"`
	PaymentSum     flexString      `json:"paymentSum"`
	PaymentType    flexString      `json:"paymentType"`
	PayerEmail     flexString      `json:"payerEmail"`
	FullName       flexString      `json:"fullName"`
	CustomFields   json.RawMessage `json:"customFields"`
	CField1        flexString      `json:"cField1"`
}

// MeshulamPayload accepts fields either at the top level or nested under
// "data", which is how the Grow light API posts them.
type MeshulamPayload struct {
	meshulamFields
	Data *meshulamFields `json:"data"`
}

func ParseMeshulam(contentType string, body []byte) (*MeshulamPayload, error) {
	var p MeshulamPayload
	if err := decodeBody(contentType, body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *MeshulamPayload) Provider() string { return ProviderMeshulam }

func (p *MeshulamPayload) data() meshulamFields {
	if p.Data == nil {
		return meshulamFields{}
	}
	return *p.Data
}

func (p *MeshulamPayload) Paid() bool {
	d := p.data()
	for _, v := range []flexString{p.Status, d.Status, p.StatusCode, d.StatusCode} {
		if meshulamPaidStatuses[v.String()] {
			return true
		}
	}
	return false
}

func (p *MeshulamPayload) registrationRef() string {
	d := p.data()
	for _, raw := range []json.RawMessage{d.CustomFields, p.CustomFields} {
		if v := customFieldValue(raw); v != "" {
			return v
		}
	}
	return firstNonEmpty(d.CField1, p.CField1)
}

func (p *MeshulamPayload) Normalize() (Reconciliation, error) {
	d := p.data()
	rec := Reconciliation{
		Provider:   ProviderMeshulam,
		Success:    p.Paid(),
		Method:     firstNonEmpty(d.PaymentType, p.PaymentType),
		PayerEmail: firstNonEmpty(d.PayerEmail, p.PayerEmail),
	}
	if rec.Method == "" {
		rec.Method = ProviderMeshulam
	}
	if !rec.Success {
		return rec, nil
	}

	id, err := parseRegistrationID(p.registrationRef())
	if err != nil {
		return rec, err
	}
	rec.RegistrationID = id

	rec.TransactionID = firstNonEmpty(d.TransactionID, p.TransactionID, d.AsmachtaNumber, p.AsmachtaNumber)
	if rec.TransactionID == "" {
		return rec, missing("transaction_id")
	}

	amount, err := parseAmount(firstNonEmpty(d.Sum, d.PaymentSum, p.Sum, p.PaymentSum))
	if err != nil {
		return rec, err
	}
	rec.Amount = amount
	return rec, nil
}

type customField struct {
	Key        flexString `json:"key"`
	Label      flexString `json:"label"`
	FieldValue flexString `json:"field_value"`
	Value      flexString `json:"value"`
}

func (c customField) matches() bool {
	return registrationFieldNames[strings.ToLower(c.Key.String())] ||
		registrationFieldNames[strings.ToLower(c.Label.String())]
}

func (c customField) value() string {
	return firstNonEmpty(c.FieldValue, c.Value)
}

// customFieldValue finds registration_id in either an array of
// {key,label,field_value} entries or a flat object.
func customFieldValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		trimmed := strings.TrimSpace(asString)
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			return customFieldValue(json.RawMessage(trimmed))
		}
		return ""
	}

	var list []customField
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, f := range list {
			if f.matches() {
				return f.value()
			}
		}
		return ""
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	for k, v := range obj {
		if registrationFieldNames[strings.ToLower(k)] {
			var s flexString
			if err := json.Unmarshal(v, &s); err == nil && !strings.HasPrefix(s.String(), "{") {
				return s.String()
			}
		}
	}
	// Form encoded arrays arrive as {"0": {...}, "1": {...}}.
	for _, v := range obj {
		var f customField
		if err := json.Unmarshal(v, &f); err == nil && f.matches() {
			return f.value()
		}
	}
	return ""
}
