// Package services defines the business logic of the bot. This file holds
// intent classification.
//
// ClassifyIntent maps one inbound event plus the user's current session to
// a symbolic action. Matching is exact-string and case-sensitive against
// the static catalog; unmatched text with no session context falls through
// to Noop, which the engine answers with the generic usage instructions.
package services

import (
	"github.com/khliu/go-imagebot-backend/internal/catalog"
	"github.com/khliu/go-imagebot-backend/internal/line"
	"github.com/khliu/go-imagebot-backend/internal/session"
)

// ActionKind enumerates the symbolic actions an event can classify to.
type ActionKind int

const (
	// ActionNoop matches nothing; answered with generic usage help.
	ActionNoop ActionKind = iota
	// ActionUploadImage is an image message.
	ActionUploadImage
	// ActionSelectTransform is an exact match on a transform-menu label.
	ActionSelectTransform
	// ActionFreeform is free text used as the generation instruction
	// (only when a session context is active).
	ActionFreeform
	// ActionCommand is an exact match on a static command label
	// (hints, help, quick menu, payment info).
	ActionCommand
	// ActionRequestPayment starts the paid-generation flow.
	ActionRequestPayment
	// ActionUsageStats asks for today's usage counters.
	ActionUsageStats
)

// String names the action for logs and metrics.
func (k ActionKind) String() string {
	switch k {
	case ActionUploadImage:
		return "upload_image"
	case ActionSelectTransform:
		return "select_transform"
	case ActionFreeform:
		return "freeform_instruction"
	case ActionCommand:
		return "command"
	case ActionRequestPayment:
		return "request_payment"
	case ActionUsageStats:
		return "usage_stats"
	default:
		return "noop"
	}
}

// Action is one classified inbound event.
type Action struct {
	Kind ActionKind

	// MessageID identifies the uploaded image (ActionUploadImage).
	MessageID string
	// Transform is the matched catalog entry (ActionSelectTransform).
	Transform catalog.Transform
	// Text is the free-form instruction (ActionFreeform).
	Text string
	// Command is the matched static label (ActionCommand).
	Command string
}

// ClassifyIntent applies the classification rules in priority order:
//
//  1. image upload
//  2. exact transform-menu label
//  3. exact static command label (help/hints, payment, usage stats)
//  4. free text while a session context is within its window
//  5. noop
//
// Postback data is treated like message text for rules 2 and 3 (rich-menu
// taps arrive either way depending on menu configuration).
func ClassifyIntent(ev line.Event, sess *session.Session) Action {
	switch ev.Type {
	case line.EventTypeMessage:
		if ev.Message == nil {
			return Action{Kind: ActionNoop}
		}
		switch ev.Message.Type {
		case line.MessageTypeImage:
			return Action{Kind: ActionUploadImage, MessageID: ev.Message.ID}
		case line.MessageTypeText:
			return classifyText(ev.Message.Text, sess)
		}
	case line.EventTypePostback:
		if ev.Postback != nil {
			return classifyText(ev.Postback.Data, sess)
		}
	}
	return Action{Kind: ActionNoop}
}

func classifyText(text string, sess *session.Session) Action {
	if t, ok := catalog.LookupTransform(text); ok {
		return Action{Kind: ActionSelectTransform, Transform: t}
	}

	switch text {
	case catalog.CmdPayGenerate:
		return Action{Kind: ActionRequestPayment}
	case catalog.CmdUsageStats:
		return Action{Kind: ActionUsageStats}
	case catalog.CmdPaymentInfo, catalog.CmdQuickMenu:
		return Action{Kind: ActionCommand, Command: text}
	}
	if _, ok := catalog.HintFor(text); ok {
		return Action{Kind: ActionCommand, Command: text}
	}

	// Free text only counts as an instruction while a request context is
	// active; the store already treats expired sessions as absent.
	if sess.HasImage() || sess.HasTransform() {
		return Action{Kind: ActionFreeform, Text: text}
	}
	return Action{Kind: ActionNoop}
}
