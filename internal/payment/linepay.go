// Package payment is a thin client for the LINE Pay v2 gateway: reserve a
// payment and confirm it after the provider's success callback. The package
// wraps the documented protocol only; flow decisions (when to reserve, what
// an entitlement unlocks) live in the services layer.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/khliu/go-imagebot-backend/internal/config"
)

const (
	productionBaseURL = "https://api-pay.line.me"
	sandboxBaseURL    = "https://sandbox-api-pay.line.me"

	// ReturnCodeOK is the gateway's success code.
	ReturnCodeOK = "0000"
)

// Reservation is the gateway's answer to a reserve call: the transaction
// handle and the URL the user opens to pay.
type Reservation struct {
	TransactionID string
	PaymentURL    string
}

// ConfirmResult is the gateway's answer to a confirm call.
type ConfirmResult struct {
	ReturnCode    string
	ReturnMessage string
}

// OK reports whether the confirmation succeeded.
func (r ConfirmResult) OK() bool { return r.ReturnCode == ReturnCodeOK }

// Client calls the LINE Pay API. Use Configured to detect the degraded,
// informational-only mode.
type Client struct {
	cfg     config.PaymentConfig
	baseURL string
	httpc   *http.Client
}

// NewClient builds a Client from config. cfg.BaseURL overrides the
// sandbox/production host selection (tests).
func NewClient(cfg config.PaymentConfig) *Client {
	base := cfg.BaseURL
	if base == "" {
		if cfg.Sandbox {
			base = sandboxBaseURL
		} else {
			base = productionBaseURL
		}
	}
	return &Client{
		cfg:     cfg,
		baseURL: base,
		httpc:   &http.Client{Timeout: cfg.Timeout},
	}
}

// Configured reports whether gateway credentials are present.
func (c *Client) Configured() bool { return c.cfg.Configured() }

// Reserve creates a payment reservation for one generation under orderID
// and returns the payment URL for the user.
func (c *Client) Reserve(ctx context.Context, orderID string) (*Reservation, error) {
	payload := map[string]any{
		"productName": c.cfg.ProductName,
		"amount":      c.cfg.Amount,
		"currency":    c.cfg.Currency,
		"confirmUrl":  c.cfg.ConfirmURL,
		"orderId":     orderID,
	}
	var out struct {
		ReturnCode string `json:"returnCode"`
		Info       struct {
			TransactionID json.Number `json:"transactionId"`
			PaymentURL    struct {
				Web string `json:"web"`
			} `json:"paymentUrl"`
		} `json:"info"`
	}
	if err := c.post(ctx, "/v2/payments/request", payload, &out); err != nil {
		return nil, err
	}
	if out.ReturnCode != ReturnCodeOK {
		return nil, fmt.Errorf("payment: reserve return code %s", out.ReturnCode)
	}
	return &Reservation{
		TransactionID: out.Info.TransactionID.String(),
		PaymentURL:    out.Info.PaymentURL.Web,
	}, nil
}

// Confirm settles a reserved transaction after the success callback.
func (c *Client) Confirm(ctx context.Context, transactionID string) (*ConfirmResult, error) {
	payload := map[string]any{
		"amount":   c.cfg.Amount,
		"currency": c.cfg.Currency,
	}
	var out struct {
		ReturnCode    string `json:"returnCode"`
		ReturnMessage string `json:"returnMessage"`
	}
	path := fmt.Sprintf("/v2/payments/%s/confirm", strings.TrimSpace(transactionID))
	if err := c.post(ctx, path, payload, &out); err != nil {
		return nil, err
	}
	return &ConfirmResult{ReturnCode: out.ReturnCode, ReturnMessage: out.ReturnMessage}, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-LINE-ChannelId", c.cfg.ChannelID)
	req.Header.Set("X-LINE-ChannelSecret", c.cfg.ChannelSecret)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("payment: %s status %d: %s", path, resp.StatusCode, bytes.TrimSpace(raw))
	}
	return json.Unmarshal(raw, out)
}
