// Package hosting publishes binary image artifacts to an external host and
// returns publicly dereferenceable URLs. The messaging platform only accepts
// image messages by URL, so every inline blob passes through here first.
package hosting

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/khliu/go-imagebot-backend/internal/config"
)

// Client uploads images anonymously to an Imgur-compatible API.
type Client struct {
	cfg   config.HostingConfig
	httpc *http.Client
}

// NewClient builds a Client from config. Configured() must be checked by
// callers that want to degrade instead of erroring.
func NewClient(cfg config.HostingConfig) *Client {
	return &Client{
		cfg:   cfg,
		httpc: &http.Client{Timeout: cfg.Timeout},
	}
}

// Configured reports whether an upload client id is present.
func (c *Client) Configured() bool { return strings.TrimSpace(c.cfg.ClientID) != "" }

// uploadResponse is the subset of the host's reply the bot needs.
type uploadResponse struct {
	Data struct {
		Link string `json:"link"`
	} `json:"data"`
	Success bool `json:"success"`
	Status  int  `json:"status"`
}

// Upload publishes image data and returns its public URL.
func (c *Client) Upload(ctx context.Context, data []byte) (string, error) {
	form := url.Values{}
	form.Set("image", base64.StdEncoding.EncodeToString(data))
	form.Set("type", "base64")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/3/image", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Client-ID "+c.cfg.ClientID)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("hosting: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var out uploadResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if !out.Success || out.Data.Link == "" {
		return "", fmt.Errorf("hosting: upload rejected (status %d)", out.Status)
	}
	return out.Data.Link, nil
}
