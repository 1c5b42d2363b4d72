package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/khliu/go-imagebot-backend/internal/config"
	"github.com/khliu/go-imagebot-backend/internal/line"
	"github.com/khliu/go-imagebot-backend/internal/payment"
	"github.com/khliu/go-imagebot-backend/internal/repo"
	"github.com/khliu/go-imagebot-backend/internal/session"
)

// PaymentGateway is the reserve/confirm surface of the payment provider.
// *payment.Client satisfies it; tests substitute a fake.
type PaymentGateway interface {
	Configured() bool
	Reserve(ctx context.Context, orderID string) (*payment.Reservation, error)
	Confirm(ctx context.Context, transactionID string) (*payment.ConfirmResult, error)
}

// Pusher delivers messages outside a reply window. The confirmation
// callback arrives over HTTP, not chat, so the unlock notice must be pushed.
type Pusher interface {
	Push(ctx context.Context, userID string, msgs ...line.Message) error
}

// PaymentService coordinates the paid-generation flow: reserve a payment
// when the free quota is exhausted, record the reservation so the provider's
// callback can be traced back to a user, and grant a one-shot entitlement on
// confirmation.
type PaymentService struct {
	DB       *gorm.DB
	Gateway  PaymentGateway
	Sessions *session.Store
	Pusher   Pusher
	Cfg      config.PaymentConfig

	// now is an injectable clock for deterministic order IDs in tests.
	now func() time.Time
}

// NewPaymentService wires the coordinator.
func NewPaymentService(db *gorm.DB, gw PaymentGateway, sessions *session.Store, pusher Pusher, cfg config.PaymentConfig) *PaymentService {
	return &PaymentService{DB: db, Gateway: gw, Sessions: sessions, Pusher: pusher, Cfg: cfg, now: time.Now}
}

// OrderID derives a per-request order identifier. The user ID rides inside
// it so the confirmation callback, which carries only the order ID, can be
// routed back to the user without extra state.
func (s *PaymentService) OrderID(userID string) string {
	return userID + "_" + strconv.FormatInt(s.now().UnixMilli(), 10)
}

// UserFromOrderID recovers the user ID embedded in an order ID.
func UserFromOrderID(orderID string) (string, bool) {
	i := strings.LastIndexByte(orderID, '_')
	if i <= 0 {
		return "", false
	}
	return orderID[:i], true
}

// RequestPayment starts the paid flow for a user and returns the reply text
// to send. Degradations are replies, not errors: an unconfigured gateway
// yields the "not open yet" notice, remaining free quota yields a reminder.
func (s *PaymentService) RequestPayment(ctx context.Context, userID string, hasFreeQuota bool) (string, error) {
	tr := otel.Tracer("services/PaymentService")
	ctx, span := tr.Start(ctx, "RequestPayment",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if !s.Gateway.Configured() {
		return msgPaymentUnavailable, nil
	}
	if hasFreeQuota {
		return msgStillHasQuota, nil
	}

	orderID := s.OrderID(userID)
	res, err := s.Gateway.Reserve(ctx, orderID)
	if err != nil {
		paymentReservationsTotal.WithLabelValues("failed").Inc()
		return msgPaymentFailed, fmt.Errorf("%w: reserve: %v", ErrPaymentFailed, err)
	}

	if _, err := repo.CreateReservation(ctx, s.DB, orderID, userID, s.Cfg.Amount, s.Cfg.Currency); err != nil {
		paymentReservationsTotal.WithLabelValues("failed").Inc()
		return msgPaymentFailed, fmt.Errorf("%w: persist reservation: %v", ErrPaymentFailed, err)
	}
	paymentReservationsTotal.WithLabelValues("reserved").Inc()

	next := &session.Session{}
	if cur := s.Sessions.Get(userID); cur != nil {
		*next = *cur
	}
	next.PaymentOrderID = orderID
	next.AwaitingUnlock = true
	s.Sessions.Put(userID, next)

	return fmt.Sprintf(msgPaymentReserved, res.PaymentURL), nil
}

// HandleConfirm settles a provider success callback: confirm with the
// gateway, flip the reservation row, grant the session entitlement, and
// notify the user. The notified user ID is recovered from the order ID.
func (s *PaymentService) HandleConfirm(ctx context.Context, transactionID, orderID string) error {
	tr := otel.Tracer("services/PaymentService")
	ctx, span := tr.Start(ctx, "HandleConfirm",
		trace.WithAttributes(attribute.String("order.id", orderID)),
	)
	defer span.End()

	userID, ok := UserFromOrderID(orderID)
	if !ok {
		return fmt.Errorf("%w: malformed order id %q", ErrReservationNotFound, orderID)
	}

	result, err := s.Gateway.Confirm(ctx, transactionID)
	if err != nil {
		paymentReservationsTotal.WithLabelValues("failed").Inc()
		s.pushText(ctx, userID, msgPaymentFailed)
		return fmt.Errorf("%w: confirm: %v", ErrPaymentFailed, err)
	}
	if !result.OK() {
		paymentReservationsTotal.WithLabelValues("failed").Inc()
		s.pushText(ctx, userID, msgPaymentFailed)
		return fmt.Errorf("%w: gateway returned %s %s", ErrPaymentFailed, result.ReturnCode, result.ReturnMessage)
	}

	if err := repo.ConfirmReservation(ctx, s.DB, orderID, transactionID); err != nil {
		paymentReservationsTotal.WithLabelValues("failed").Inc()
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: order %s", ErrReservationNotFound, orderID)
		}
		return fmt.Errorf("confirm reservation %s: %w", orderID, err)
	}
	paymentReservationsTotal.WithLabelValues("confirmed").Inc()

	// The callback may land after the session window, or before any session
	// exists. The grant is stored in a fresh session whose window starts at
	// confirmation time, so a slow checkout cannot inherit an almost-expired
	// session. Copy-on-write: the stored session is never mutated in place.
	next := &session.Session{}
	if cur := s.Sessions.Get(userID); cur != nil {
		*next = *cur
	}
	next.EntitlementGranted = true
	next.AwaitingUnlock = false
	next.PaymentOrderID = orderID
	next.CreatedAt = time.Time{}
	s.Sessions.Put(userID, next)

	s.pushText(ctx, userID, msgPaymentConfirmed)
	return nil
}

// ConsumeEntitlement spends the user's one-shot paid entitlement: the oldest
// confirmed reservation row moves to CONSUMED. The caller deletes the
// session that carried the grant; the stored session is never mutated here.
// A missing row is logged, not fatal; the session flag is the authorization
// source of truth.
func (s *PaymentService) ConsumeEntitlement(ctx context.Context, userID string) {
	if err := repo.ConsumeConfirmedReservation(ctx, s.DB, userID); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("no confirmed reservation to consume")
		return
	}
	paymentReservationsTotal.WithLabelValues("consumed").Inc()
}

// InfoText is the canned payment-information reply.
func (s *PaymentService) InfoText(dailyLimit int) string {
	return fmt.Sprintf(msgPaymentInfo, s.Cfg.Amount, s.Cfg.Currency, dailyLimit)
}

// SetClock replaces the time source. Tests only.
func (s *PaymentService) SetClock(now func() time.Time) { s.now = now }

func (s *PaymentService) pushText(ctx context.Context, userID, text string) {
	if err := s.Pusher.Push(ctx, userID, line.NewText(text)); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("push failed")
	}
}
