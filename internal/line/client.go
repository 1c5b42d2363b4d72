package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxContentBytes caps a downloaded message body (uploaded images).
const maxContentBytes = 20 << 20 // 20 MiB

// Client calls the LINE Messaging API. The zero value is not usable;
// construct with NewClient.
type Client struct {
	token    string
	apiBase  string
	dataBase string
	httpc    *http.Client
}

// NewClient builds a Client for the given channel access token. apiBase and
// dataBase default to the production hosts when empty.
func NewClient(token, apiBase, dataBase string) *Client {
	if apiBase == "" {
		apiBase = "https://api.line.me"
	}
	if dataBase == "" {
		dataBase = "https://api-data.line.me"
	}
	return &Client{
		token:    token,
		apiBase:  apiBase,
		dataBase: dataBase,
		httpc:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Reply sends up to five messages against a reply token. The token is
// usable exactly once.
func (c *Client) Reply(ctx context.Context, replyToken string, msgs ...Message) error {
	payload := map[string]any{
		"replyToken": replyToken,
		"messages":   msgs,
	}
	return c.post(ctx, c.apiBase+"/v2/bot/message/reply", payload)
}

// Push sends messages to a user outside the reply window.
func (c *Client) Push(ctx context.Context, userID string, msgs ...Message) error {
	payload := map[string]any{
		"to":       userID,
		"messages": msgs,
	}
	return c.post(ctx, c.apiBase+"/v2/bot/message/push", payload)
}

// GetMessageContent downloads the binary body of a message (an uploaded
// image) from the data host.
func (c *Client) GetMessageContent(ctx context.Context, messageID string) ([]byte, error) {
	url := fmt.Sprintf("%s/v2/bot/message/%s/content", c.dataBase, messageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("line: content download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxContentBytes))
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) post(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		// The error body is short and useful (invalid reply token, etc.).
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("line: %s status %d: %s", url, resp.StatusCode, bytes.TrimSpace(b))
	}
	return nil
}
