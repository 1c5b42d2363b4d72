// Package services contains the conversation engine, the event dispatcher
// behind the webhook. Each inbound event is classified against the user's
// session, authorized when it triggers a generation, and answered. Every
// path ends in a reply or a push; no failure propagates past HandleEvent.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/khliu/go-imagebot-backend/internal/catalog"
	"github.com/khliu/go-imagebot-backend/internal/generation"
	"github.com/khliu/go-imagebot-backend/internal/line"
	"github.com/khliu/go-imagebot-backend/internal/session"
)

// Messenger is the outbound chat surface. *line.Client satisfies it.
type Messenger interface {
	Reply(ctx context.Context, replyToken string, msgs ...line.Message) error
	Push(ctx context.Context, userID string, msgs ...line.Message) error
}

// Engine drives the conversation state machine.
type Engine struct {
	Sessions *session.Store
	Quota    *QuotaService
	Gen      *GenerationService
	Pay      *PaymentService
	Msgr     Messenger

	// PayAmount is quoted in the quota-exhausted offer.
	PayAmount int
}

// NewEngine wires the dispatcher.
func NewEngine(sessions *session.Store, quota *QuotaService, gen *GenerationService, pay *PaymentService, msgr Messenger, payAmount int) *Engine {
	return &Engine{Sessions: sessions, Quota: quota, Gen: gen, Pay: pay, Msgr: msgr, PayAmount: payAmount}
}

// HandleEvent processes one webhook event to completion. It never returns
// an error: failures become user-facing replies and warn-level logs.
func (e *Engine) HandleEvent(ctx context.Context, ev line.Event) {
	userID := ev.Source.UserID
	if userID == "" {
		return
	}

	tr := otel.Tracer("services/Engine")
	ctx, span := tr.Start(ctx, "HandleEvent",
		trace.WithAttributes(
			attribute.String("event.type", ev.Type),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	sess := e.Sessions.Get(userID)
	act := ClassifyIntent(ev, sess)
	eventsTotal.WithLabelValues(act.Kind.String()).Inc()

	log.Debug().
		Str("user_id", userID).
		Str("action", act.Kind.String()).
		Msg("event classified")

	switch act.Kind {
	case ActionUploadImage:
		e.handleUpload(ctx, userID, ev.ReplyToken, act.MessageID, sess)
	case ActionSelectTransform:
		e.handleSelect(ctx, userID, ev.ReplyToken, act.Transform, sess)
	case ActionFreeform:
		e.handleFreeform(ctx, userID, ev.ReplyToken, act.Text, sess)
	case ActionCommand:
		e.handleCommand(ctx, ev.ReplyToken, act.Command)
	case ActionRequestPayment:
		e.handlePayment(ctx, userID, ev.ReplyToken)
	case ActionUsageStats:
		e.handleStats(ctx, userID, ev.ReplyToken, sess)
	default:
		e.reply(ctx, ev.ReplyToken, line.NewText(catalog.HelpText))
	}
}

// handleUpload records the image and, when an instruction is already
// waiting, runs the generation immediately.
func (e *Engine) handleUpload(ctx context.Context, userID, replyToken, messageID string, sess *session.Session) {
	if sess.HasTransform() {
		instruction := sess.SelectedTransform.Prompt
		e.generate(ctx, userID, replyToken, messageID, instruction, sess)
		return
	}
	e.Sessions.Put(userID, &session.Session{
		PendingImageID:     messageID,
		EntitlementGranted: sess != nil && sess.EntitlementGranted,
	})
	e.reply(ctx, replyToken, line.NewText(msgImageReceived))
}

// handleSelect records the chosen transform and, when an image is already
// waiting, runs the generation immediately with the canned prompt.
func (e *Engine) handleSelect(ctx context.Context, userID, replyToken string, t catalog.Transform, sess *session.Session) {
	if sess.HasImage() {
		e.generate(ctx, userID, replyToken, sess.PendingImageID, t.Prompt, sess)
		return
	}
	e.Sessions.Put(userID, &session.Session{
		SelectedTransform:  &session.Transform{Label: t.Label, Prompt: t.Prompt},
		EntitlementGranted: sess != nil && sess.EntitlementGranted,
	})
	e.reply(ctx, replyToken, line.NewText(fmt.Sprintf(msgTransformSelected, t.Label)))
}

// handleFreeform uses free text as the instruction. With a pending image it
// triggers the generation; with only a chosen transform it replaces the
// instruction and keeps waiting for the image.
func (e *Engine) handleFreeform(ctx context.Context, userID, replyToken, text string, sess *session.Session) {
	if sess.HasImage() {
		e.generate(ctx, userID, replyToken, sess.PendingImageID, text, sess)
		return
	}
	// Transform-only context: the free text supersedes the canned prompt.
	e.Sessions.Put(userID, &session.Session{
		SelectedTransform:  &session.Transform{Prompt: text},
		EntitlementGranted: sess != nil && sess.EntitlementGranted,
	})
	e.reply(ctx, replyToken, line.NewText(msgAwaitImage))
}

func (e *Engine) handleCommand(ctx context.Context, replyToken, cmd string) {
	switch cmd {
	case catalog.CmdQuickMenu:
		labels := make([]string, 0, len(catalog.Transforms()))
		for _, t := range catalog.Transforms() {
			labels = append(labels, t.Label)
		}
		e.reply(ctx, replyToken, line.NewTextWithQuickReply(msgQuickMenuTitle, labels))
	case catalog.CmdPaymentInfo:
		e.reply(ctx, replyToken, line.NewText(e.Pay.InfoText(e.Quota.DailyLimit)))
	default:
		if hint, ok := catalog.HintFor(cmd); ok {
			e.reply(ctx, replyToken, line.NewText(hint))
			return
		}
		e.reply(ctx, replyToken, line.NewText(catalog.HelpText))
	}
}

func (e *Engine) handlePayment(ctx context.Context, userID, replyToken string) {
	hasQuota, err := e.Quota.HasFreeQuota(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("quota lookup failed")
		e.reply(ctx, replyToken, line.NewText(msgPaymentFailed))
		return
	}
	text, err := e.Pay.RequestPayment(ctx, userID, hasQuota)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("payment request failed")
	}
	e.reply(ctx, replyToken, line.NewText(text))
}

func (e *Engine) handleStats(ctx context.Context, userID, replyToken string, sess *session.Session) {
	used, err := e.Quota.UsageToday(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("usage lookup failed")
		e.reply(ctx, replyToken, line.NewText(msgGenerationFailed))
		return
	}
	extra := msgNoEntitlement
	if sess != nil && sess.EntitlementGranted {
		extra = msgEntitlementHeld
	}
	e.reply(ctx, replyToken, line.NewText(fmt.Sprintf(msgUsageStats, used, e.Quota.DailyLimit, extra)))
}

// generate authorizes and runs one generation. The authorization order is
// entitlement first, then an atomic consume of today's free quota; a denial
// clears the request context and offers the paid path. On success an
// acknowledgement goes out on the reply token and the result is pushed when
// ready.
func (e *Engine) generate(ctx context.Context, userID, replyToken, imageID, instruction string, sess *session.Session) {
	entitled := sess != nil && sess.EntitlementGranted
	if entitled {
		e.Pay.ConsumeEntitlement(ctx, userID)
	} else {
		ok, err := e.Quota.TryConsume(ctx, userID)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("quota consume failed")
			e.Sessions.Delete(userID)
			e.reply(ctx, replyToken, line.NewText(msgGenerationFailed))
			return
		}
		if !ok {
			quotaDenialsTotal.Inc()
			e.Sessions.Delete(userID)
			e.reply(ctx, replyToken, line.NewText(fmt.Sprintf(msgQuotaExhausted, e.PayAmount)))
			return
		}
	}

	// The request context is spent regardless of the outcome; a failed
	// attempt starts over with a fresh upload.
	e.Sessions.Delete(userID)

	e.reply(ctx, replyToken, line.NewText(msgProcessing))

	res, err := e.Gen.Run(ctx, userID, imageID, instruction)
	if err != nil {
		ev := log.Error()
		if IsUserFacing(err) {
			ev = log.Warn()
		}
		ev.Err(err).Str("user_id", userID).Msg("generation failed")
		e.push(ctx, userID, line.NewText(failureText(err)))
		return
	}
	e.push(ctx, userID, resultMessage(res))
}

// failureText maps a service error to its canned user message.
func failureText(err error) string {
	if errors.Is(err, ErrInputUnavailable) {
		return msgInputUnavailable
	}
	return msgGenerationFailed
}

// resultMessage renders a generation result as an outbound message.
func resultMessage(res *generation.Result) line.Message {
	switch res.Kind {
	case generation.KindURL:
		return line.NewImage(res.URL)
	default:
		return line.NewText(res.Text)
	}
}

func (e *Engine) reply(ctx context.Context, replyToken string, msgs ...line.Message) {
	if replyToken == "" {
		return
	}
	if err := e.Msgr.Reply(ctx, replyToken, msgs...); err != nil {
		log.Warn().Err(err).Msg("reply failed")
	}
}

func (e *Engine) push(ctx context.Context, userID string, msgs ...line.Message) {
	if err := e.Msgr.Push(ctx, userID, msgs...); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("push failed")
	}
}
