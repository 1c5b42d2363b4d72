package generation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/khliu/go-imagebot-backend/internal/config"
)

// maxReplyBytes caps a generation reply body. Inline image payloads are
// large; 50 MiB leaves generous headroom.
const maxReplyBytes = 50 << 20

// Client posts instruction-plus-image requests to the chat-completions
// style generation endpoint and returns the raw reply body. Normalization
// belongs to Extract; the client does not interpret the payload.
type Client struct {
	cfg   config.GenerationConfig
	httpc *http.Client
}

// NewClient builds a Client. The overall call deadline comes from the
// caller's context (the orchestrator applies cfg.Timeout), so the embedded
// http.Client carries no timeout of its own.
func NewClient(cfg config.GenerationConfig) *Client {
	return &Client{cfg: cfg, httpc: &http.Client{}}
}

// request mirrors the chat-completions wire format: one user message whose
// content is the instruction text plus the reference image as a data URI.
type request struct {
	Model      string    `json:"model"`
	Messages   []message `json:"messages"`
	Modalities []string  `json:"modalities,omitempty"`
	MaxTokens  int       `json:"max_tokens,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content []part `json:"content"`
}

type part struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// Generate sends one instruction-plus-image request and returns the raw
// reply body. A non-2xx status or transport error is a generation failure
// for the caller to classify.
func (c *Client) Generate(ctx context.Context, instruction string, image []byte) ([]byte, error) {
	content := make([]part, 0, 2)
	if instruction != "" {
		content = append(content, part{Type: "text", Text: instruction})
	}
	content = append(content, part{
		Type: "image_url",
		ImageURL: &imageURL{
			URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image),
		},
	})

	reqBody, err := json.Marshal(request{
		Model:      c.cfg.Model,
		Messages:   []message{{Role: "user", Content: content}},
		Modalities: []string{"image", "text"},
		MaxTokens:  c.cfg.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generation: status %d: %s", resp.StatusCode, truncateForError(body))
	}
	return body, nil
}

func truncateForError(b []byte) string {
	const max = 512
	if len(b) > max {
		b = b[:max]
	}
	return string(bytes.TrimSpace(b))
}
