// Package payments turns provider notifications into confirmed payments on
// registrations. Each provider payload normalizes into a Reconciliation,
// and a single Reconciler applies it.
package payments

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const (
	ProviderMeshulam = "meshulam"
	ProviderPayPal   = "paypal"
	ProviderHyp      = "hyp"
	ProviderStripe   = "stripe"
)

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrVerificationFailed = errors.New("notification verification failed")
	ErrUpstream           = errors.New("payment provider error")
	ErrDeclined           = errors.New("payment declined")
)

func missing(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingFields, field)
}

// Reconciliation is the provider independent view of one notification.
type Reconciliation struct {
	Provider       string
	RegistrationID uint
	TransactionID  string
	Amount         float64
	Method         string
	PayerEmail     string
	Success        bool
	// Reference is the raw correlation value when it is not a registration
	// id, e.g. a payer email echoed back by PayPal.
	Reference string
}

// WebhookPayload is implemented by every provider specific payload.
type WebhookPayload interface {
	Provider() string
	Normalize() (Reconciliation, error)
}

// flexString accepts JSON strings, numbers and booleans. Providers are not
// consistent about quoting numeric fields.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(b)
	return nil
}

func (f flexString) String() string {
	return strings.TrimSpace(string(f))
}

func firstNonEmpty(values ...flexString) string {
	for _, v := range values {
		if s := v.String(); s != "" {
			return s
		}
	}
	return ""
}

func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, missing("amount")
	}
	amount, err := strconv.ParseFloat(s, 64)
	if err != nil || amount < 0 {
		return 0, fmt.Errorf("%w: amount %q", ErrMissingFields, s)
	}
	return amount, nil
}

func parseRegistrationID(s string) (uint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, missing("registration_id")
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: registration_id %q", ErrMissingFields, s)
	}
	return uint(id), nil
}

// formToJSON turns bracketed form keys (data[customFields][0][key]=x) into
// nested JSON objects so form and JSON deliveries decode the same way.
func formToJSON(values url.Values) ([]byte, error) {
	root := map[string]interface{}{}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		path := splitFormKey(key)
		node := root
		for i, part := range path {
			if i == len(path)-1 {
				node[part] = formValue(values.Get(key))
				break
			}
			child, ok := node[part].(map[string]interface{})
			if !ok {
				child = map[string]interface{}{}
				node[part] = child
			}
			node = child
		}
	}
	return json.Marshal(root)
}

func splitFormKey(key string) []string {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return []string{key}
	}
	parts := []string{key[:open]}
	rest := key[open:]
	for len(rest) > 0 && rest[0] == '[' {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			break
		}
		parts = append(parts, rest[1:end])
		rest = rest[end+1:]
	}
	return parts
}

// formValue keeps embedded JSON documents (customFields is sometimes sent
// as a JSON string) as structured values.
func formValue(v string) interface{} {
	trimmed := strings.TrimSpace(v)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var doc interface{}
		if err := json.Unmarshal([]byte(trimmed), &doc); err == nil {
			return doc
		}
	}
	return v
}

func isJSON(contentType string, body []byte) bool {
	if strings.Contains(contentType, "json") {
		return true
	}
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// decodeBody decodes a JSON or url-encoded body into v.
func decodeBody(contentType string, body []byte, v interface{}) error {
	if !isJSON(contentType, body) {
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return fmt.Errorf("parse form body: %w", err)
		}
		body, err = formToJSON(values)
		if err != nil {
			return err
		}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}
