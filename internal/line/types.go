// Package line is a thin client for the LINE Messaging API: webhook payload
// types, signature validation, and the reply/push/content endpoints the bot
// uses. It wraps the documented platform protocol and contains no
// conversation logic.
package line

import "encoding/json"

// Event kinds and message kinds carried by a webhook batch.
const (
	EventTypeMessage  = "message"
	EventTypePostback = "postback"

	MessageTypeText  = "text"
	MessageTypeImage = "image"
)

// WebhookRequest is the inbound event batch posted by the platform.
type WebhookRequest struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

// Event is one item of an inbound batch. Each event carries the sending
// user and a reply token usable exactly once for a synchronous-style reply.
type Event struct {
	Type            string          `json:"type"`
	Timestamp       int64           `json:"timestamp"`
	ReplyToken      string          `json:"replyToken,omitempty"`
	Source          EventSource     `json:"source"`
	Message         *EventMessage   `json:"message,omitempty"`
	Postback        *EventPostback  `json:"postback,omitempty"`
	DeliveryContext DeliveryContext `json:"deliveryContext"`
}

// EventSource identifies the sender.
type EventSource struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// EventMessage is the message payload of a message event.
type EventMessage struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// EventPostback is the payload of a postback event (rich-menu taps).
type EventPostback struct {
	Data string `json:"data"`
}

// DeliveryContext marks redelivered events.
type DeliveryContext struct {
	IsRedelivery bool `json:"isRedelivery"`
}

// Message is an outbound message payload. Implementations marshal to the
// platform's message JSON.
type Message interface {
	messageType() string
}

// TextMessage is an outbound text message, optionally with a quick-reply menu.
type TextMessage struct {
	Type       string      `json:"type"`
	Text       string      `json:"text"`
	QuickReply *QuickReply `json:"quickReply,omitempty"`
}

func (TextMessage) messageType() string { return MessageTypeText }

// ImageMessage is an outbound image message with a preview thumbnail.
type ImageMessage struct {
	Type               string `json:"type"`
	OriginalContentURL string `json:"originalContentUrl"`
	PreviewImageURL    string `json:"previewImageUrl"`
}

func (ImageMessage) messageType() string { return MessageTypeImage }

// QuickReply is a row of tappable items attached to a text message.
type QuickReply struct {
	Items []QuickReplyItem `json:"items"`
}

// QuickReplyItem is one quick-reply button carrying a message action.
type QuickReplyItem struct {
	Type   string        `json:"type"`
	Action MessageAction `json:"action"`
}

// MessageAction sends its text back as a user message when tapped.
type MessageAction struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// NewText builds an outbound text message.
func NewText(text string) TextMessage {
	return TextMessage{Type: "text", Text: text}
}

// NewTextWithQuickReply builds a text message with a quick-reply row of
// message actions, one per label.
func NewTextWithQuickReply(text string, labels []string) TextMessage {
	items := make([]QuickReplyItem, 0, len(labels))
	for _, l := range labels {
		items = append(items, QuickReplyItem{
			Type:   "action",
			Action: MessageAction{Type: "message", Label: l, Text: l},
		})
	}
	return TextMessage{Type: "text", Text: text, QuickReply: &QuickReply{Items: items}}
}

// NewImage builds an outbound image message; the URL doubles as its preview.
func NewImage(url string) ImageMessage {
	return ImageMessage{Type: "image", OriginalContentURL: url, PreviewImageURL: url}
}

// ParseWebhook decodes an inbound batch body.
func ParseWebhook(body []byte) (*WebhookRequest, error) {
	var req WebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
