package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
)

// Telr order status codes returned by the check method
const (
	telrPending    = 1
	telrAuthorised = 2
	telrPaid       = 3
	telrExpired    = -1
	telrCancelled  = -2
	telrDeclined   = -3
)

// TelrClient implements domain.PaymentGateway against the Telr hosted payment page API
type TelrClient struct {
	Endpoint   string
	StoreID    string
	AuthKey    string
	TestMode   bool
	HTTPClient *http.Client
}

type telrStatus struct {
	Code int    `json:"code"`
	Text string `json:"text"`
}

type telrOrder struct {
	Ref    string     `json:"ref"`
	URL    string     `json:"url"`
	Cartid string     `json:"cartid"`
	Status telrStatus `json:"status"`
}

type telrError struct {
	Message string `json:"message"`
	Note    string `json:"note"`
}

type telrResponse struct {
	Method string     `json:"method"`
	Order  *telrOrder `json:"order"`
	Error  *telrError `json:"error"`
}

// NewTelrClient creates a Telr gateway client. The caller bounds each call with its context.
func NewTelrClient(endpoint, storeID, authKey string, testMode bool) *TelrClient {
	return &TelrClient{
		Endpoint:   endpoint,
		StoreID:    storeID,
		AuthKey:    authKey,
		TestMode:   testMode,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateOrder implements domain.PaymentGateway
func (c *TelrClient) CreateOrder(ctx context.Context, req domain.GatewayOrderRequest) (*domain.GatewayOrder, error) {
	data := c.baseForm("create")
	data.Set("ivp_cart", req.CartID)
	data.Set("ivp_amount", formatAmount(req.Amount))
	data.Set("ivp_currency", req.Currency)
	data.Set("ivp_desc", req.Description)
	data.Set("return_auth", req.ReturnURL)
	data.Set("return_decl", req.ReturnURL)
	data.Set("return_can", req.ReturnURL)

	resp, err := c.do(ctx, data)
	if err != nil {
		return nil, err
	}
	if resp.Order == nil || resp.Order.Ref == "" || resp.Order.URL == "" {
		return nil, fmt.Errorf("%w: create response without order reference", domain.ErrGatewayUnavailable)
	}
	return &domain.GatewayOrder{Ref: resp.Order.Ref, PaymentURL: resp.Order.URL}, nil
}

// CheckOrder implements domain.PaymentGateway
func (c *TelrClient) CheckOrder(ctx context.Context, ref string) (domain.GatewayOrderState, string, error) {
	data := c.baseForm("check")
	data.Set("order_ref", ref)

	resp, err := c.do(ctx, data)
	if err != nil {
		return "", "", err
	}
	if resp.Order == nil {
		return "", "", fmt.Errorf("%w: check response without order", domain.ErrGatewayUnavailable)
	}

	status := resp.Order.Status
	switch status.Code {
	case telrAuthorised, telrPaid:
		return domain.GatewayPaid, status.Text, nil
	case telrExpired, telrCancelled, telrDeclined:
		return domain.GatewayDeclined, status.Text, nil
	default:
		return domain.GatewayPending, status.Text, nil
	}
}

func (c *TelrClient) baseForm(method string) url.Values {
	data := url.Values{}
	data.Set("ivp_method", method)
	data.Set("ivp_store", c.StoreID)
	data.Set("ivp_authkey", c.AuthKey)
	if c.TestMode {
		data.Set("ivp_test", "1")
	} else {
		data.Set("ivp_test", "0")
	}
	return data
}

// do posts the form and decodes the reply. Transport failures map to ErrGatewayUnavailable,
// explicit gateway errors to ErrGatewayDeclined.
func (c *TelrClient) do(ctx context.Context, data url.Values) (*telrResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, context.DeadlineExceeded)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrGatewayUnavailable, err)
	}
	if httpResp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", domain.ErrGatewayUnavailable, httpResp.StatusCode)
	}

	var resp telrResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrGatewayUnavailable, err)
	}
	if resp.Error != nil {
		msg := resp.Error.Message
		if resp.Error.Note != "" {
			msg += ": " + resp.Error.Note
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrGatewayDeclined, msg)
	}
	return &resp, nil
}

// formatAmount renders minor units as the decimal string Telr expects
func formatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
