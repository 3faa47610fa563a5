package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// PaymentPageRequest asks Grow (formerly Meshulam) for a hosted payment page.
type PaymentPageRequest struct {
	PageCode       string
	Amount         float64
	Description    string
	FullName       string
	Phone          string
	Email          string
	RegistrationID uint
	SuccessURL     string
	CancelURL      string
	NotifyURL      string
}

type PaymentPage struct {
	URL          string
	ProcessID    string
	ProcessToken string
}

type GrowClient struct {
	baseURL string
	userID  string
	client  *http.Client
}

func NewGrowClient(baseURL, userID string, client *http.Client) *GrowClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &GrowClient{baseURL: strings.TrimRight(baseURL, "/"), userID: userID, client: client}
}

type growResponse struct {
	Status flexString      `json:"status"`
	Err    json.RawMessage `json:"err"`
	Data   struct {
		URL          string     `json:"url"`
		ProcessID    flexString `json:"processId"`
		ProcessToken flexString `json:"processToken"`
	} `json:"data"`
}

func (r growResponse) errorMessage() string {
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(r.Err, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	var s string
	if err := json.Unmarshal(r.Err, &s); err == nil && s != "" {
		return s
	}
	return "unknown error"
}

func (c *GrowClient) CreatePaymentProcess(ctx context.Context, req PaymentPageRequest) (*PaymentPage, error) {
	if req.Amount <= 0 {
		return nil, missing("amount")
	}
	if req.PageCode == "" {
		return nil, fmt.Errorf("%w: page code is not configured", ErrUpstream)
	}

	form := url.Values{}
	form.Set("pageCode", req.PageCode)
	form.Set("userId", c.userID)
	form.Set("sum", strconv.FormatFloat(req.Amount, 'f', 2, 64))
	form.Set("description", req.Description)
	form.Set("pageField[fullName]", req.FullName)
	form.Set("pageField[phone]", req.Phone)
	form.Set("pageField[email]", req.Email)
	if req.RegistrationID != 0 {
		form.Set("cField1", strconv.FormatUint(uint64(req.RegistrationID), 10))
	}
	if req.SuccessURL != "" {
		form.Set("successUrl", req.SuccessURL)
	}
	if req.CancelURL != "" {
		form.Set("cancelUrl", req.CancelURL)
	}
	if req.NotifyURL != "" {
		form.Set("notifyUrl", req.NotifyURL)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/createPaymentProcess", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	var parsed growResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: unexpected response (HTTP %d)", ErrUpstream, resp.StatusCode)
	}
	if parsed.Status.String() != "1" || parsed.Data.URL == "" {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, parsed.errorMessage())
	}

	return &PaymentPage{
		URL:          parsed.Data.URL,
		ProcessID:    parsed.Data.ProcessID.String(),
		ProcessToken: parsed.Data.ProcessToken.String(),
	}, nil
}
