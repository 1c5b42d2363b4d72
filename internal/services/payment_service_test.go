package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/khliu/go-imagebot-backend/internal/config"
	"github.com/khliu/go-imagebot-backend/internal/domain"
	"github.com/khliu/go-imagebot-backend/internal/line"
	"github.com/khliu/go-imagebot-backend/internal/repo"
	"github.com/khliu/go-imagebot-backend/internal/session"
)

func newPaymentHarness(t *testing.T, gw *fakeGateway) (*PaymentService, *session.Store, *fakeMessenger) {
	t.Helper()
	db := newEngineDB(t)
	sessions := session.NewStore(3 * time.Minute)
	msgr := newFakeMessenger()
	svc := NewPaymentService(db, gw, sessions, msgr, config.PaymentConfig{
		ChannelID: "ch", ChannelSecret: "sec", Amount: 10, Currency: "TWD",
	})
	return svc, sessions, msgr
}

func TestOrderID_RoundTrip(t *testing.T) {
	svc, _, _ := newPaymentHarness(t, &fakeGateway{configured: true})
	svc.SetClock(func() time.Time { return time.UnixMilli(1700000000000) })

	orderID := svc.OrderID("U123")
	if orderID != "U123_1700000000000" {
		t.Fatalf("OrderID = %q", orderID)
	}

	user, ok := UserFromOrderID(orderID)
	if !ok || user != "U123" {
		t.Fatalf("UserFromOrderID = (%q, %v)", user, ok)
	}
}

func TestUserFromOrderID_UnderscoreInUserID(t *testing.T) {
	// Only the last separator splits; user IDs containing underscores
	// survive the round trip.
	user, ok := UserFromOrderID("team_bot_42_1700000000000")
	if !ok || user != "team_bot_42" {
		t.Fatalf("got (%q, %v); want team_bot_42", user, ok)
	}
}

func TestUserFromOrderID_Malformed(t *testing.T) {
	for _, in := range []string{"", "noseparator", "_123"} {
		if _, ok := UserFromOrderID(in); ok {
			t.Errorf("UserFromOrderID(%q) ok; want failure", in)
		}
	}
}

func TestRequestPayment_UnconfiguredGatewayDegrades(t *testing.T) {
	svc, _, _ := newPaymentHarness(t, &fakeGateway{configured: false})

	text, err := svc.RequestPayment(context.Background(), "u1", false)
	if err != nil {
		t.Fatalf("RequestPayment: %v", err)
	}
	if text != msgPaymentUnavailable {
		t.Fatalf("text = %q; want unavailable notice", text)
	}
}

func TestRequestPayment_RemainingQuotaDeclines(t *testing.T) {
	gw := &fakeGateway{configured: true}
	svc, _, _ := newPaymentHarness(t, gw)

	text, err := svc.RequestPayment(context.Background(), "u1", true)
	if err != nil {
		t.Fatalf("RequestPayment: %v", err)
	}
	if text != msgStillHasQuota {
		t.Fatalf("text = %q; want still-has-quota notice", text)
	}
	if len(gw.reserved) != 0 {
		t.Fatal("reserved despite remaining quota")
	}
}

func TestRequestPayment_ReservesAndMarksSession(t *testing.T) {
	gw := &fakeGateway{configured: true, paymentURL: "https://pay.example/c"}
	svc, sessions, _ := newPaymentHarness(t, gw)
	svc.SetClock(func() time.Time { return time.UnixMilli(1700000000000) })
	ctx := context.Background()

	text, err := svc.RequestPayment(ctx, "u1", false)
	if err != nil {
		t.Fatalf("RequestPayment: %v", err)
	}
	if !strings.Contains(text, "https://pay.example/c") {
		t.Fatalf("text = %q; want payment URL", text)
	}
	if len(gw.reserved) != 1 || gw.reserved[0] != "u1_1700000000000" {
		t.Fatalf("reserved = %v", gw.reserved)
	}

	rec, err := repo.GetReservationByOrder(ctx, svc.DB, "u1_1700000000000")
	if err != nil {
		t.Fatalf("reservation row: %v", err)
	}
	if rec.Status != domain.ReservationReserved || rec.UserID != "u1" || rec.Amount != 10 {
		t.Fatalf("row = %+v", rec)
	}

	s := sessions.Get("u1")
	if s == nil || !s.AwaitingUnlock || s.PaymentOrderID != "u1_1700000000000" {
		t.Fatalf("session = %+v", s)
	}
}

func TestHandleConfirm_GrantsEntitlementAndNotifies(t *testing.T) {
	gw := &fakeGateway{configured: true}
	svc, sessions, msgr := newPaymentHarness(t, gw)
	ctx := context.Background()

	if _, err := repo.CreateReservation(ctx, svc.DB, "u1_1700000000000", "u1", 10, "TWD"); err != nil {
		t.Fatalf("seed reservation: %v", err)
	}

	if err := svc.HandleConfirm(ctx, "txn9", "u1_1700000000000"); err != nil {
		t.Fatalf("HandleConfirm: %v", err)
	}

	if len(gw.confirmed) != 1 || gw.confirmed[0] != "txn9" {
		t.Fatalf("confirmed = %v", gw.confirmed)
	}
	rec, _ := repo.GetReservationByOrder(ctx, svc.DB, "u1_1700000000000")
	if rec.Status != domain.ReservationConfirmed || rec.TransactionID != "txn9" {
		t.Fatalf("row = %+v", rec)
	}

	// The user had no live session; one is created to hold the grant.
	s := sessions.Get("u1")
	if s == nil || !s.EntitlementGranted || s.AwaitingUnlock {
		t.Fatalf("session = %+v", s)
	}

	pushed := msgr.pushes["u1"]
	if len(pushed) != 1 {
		t.Fatalf("pushes = %d; want confirmation notice", len(pushed))
	}
	if tm, ok := pushed[0].(line.TextMessage); !ok || tm.Text != msgPaymentConfirmed {
		t.Fatalf("pushed %+v", pushed[0])
	}
}

func TestHandleConfirm_GatewayRejection(t *testing.T) {
	gw := &fakeGateway{configured: true, confirmCode: "1104"}
	svc, sessions, msgr := newPaymentHarness(t, gw)
	ctx := context.Background()

	if _, err := repo.CreateReservation(ctx, svc.DB, "u1_1", "u1", 10, "TWD"); err != nil {
		t.Fatalf("seed reservation: %v", err)
	}

	if err := svc.HandleConfirm(ctx, "txn9", "u1_1"); err == nil {
		t.Fatal("HandleConfirm succeeded on gateway rejection")
	}

	rec, _ := repo.GetReservationByOrder(ctx, svc.DB, "u1_1")
	if rec.Status != domain.ReservationReserved {
		t.Fatalf("row flipped on rejection: %+v", rec)
	}
	if s := sessions.Get("u1"); s != nil && s.EntitlementGranted {
		t.Fatal("entitlement granted on rejection")
	}
	// The user still hears about the failure.
	if len(msgr.pushes["u1"]) != 1 {
		t.Fatalf("pushes = %d; want failure notice", len(msgr.pushes["u1"]))
	}
}

func TestHandleConfirm_MalformedOrderID(t *testing.T) {
	svc, _, _ := newPaymentHarness(t, &fakeGateway{configured: true})
	if err := svc.HandleConfirm(context.Background(), "txn", "garbage"); err == nil {
		t.Fatal("HandleConfirm accepted a malformed order id")
	}
}

func TestConsumeEntitlement_FlipsRow(t *testing.T) {
	svc, _, _ := newPaymentHarness(t, &fakeGateway{configured: true})
	ctx := context.Background()

	if _, err := repo.CreateReservation(ctx, svc.DB, "o1", "u1", 10, "TWD"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := repo.ConfirmReservation(ctx, svc.DB, "o1", "txn1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	svc.ConsumeEntitlement(ctx, "u1")

	rec, _ := repo.GetReservationByOrder(ctx, svc.DB, "o1")
	if rec.Status != domain.ReservationConsumed {
		t.Fatalf("row = %+v", rec)
	}
}

func TestHandleConfirm_SlowCheckoutRestartsWindow(t *testing.T) {
	gw := &fakeGateway{configured: true, paymentURL: "https://pay.example/c"}
	svc, sessions, _ := newPaymentHarness(t, gw)
	ctx := context.Background()

	base := time.UnixMilli(1700000000000)
	now := base
	sessions.SetClock(func() time.Time { return now })
	svc.SetClock(func() time.Time { return now })

	if _, err := svc.RequestPayment(ctx, "u1", false); err != nil {
		t.Fatalf("RequestPayment: %v", err)
	}

	// Checkout eats almost the whole session window before the callback.
	now = base.Add(2*time.Minute + 50*time.Second)
	if err := svc.HandleConfirm(ctx, "txn1", "u1_1700000000000"); err != nil {
		t.Fatalf("HandleConfirm: %v", err)
	}

	// Past the reserve-time window: the grant must still be live because
	// confirmation started a fresh one.
	now = base.Add(3*time.Minute + 10*time.Second)
	s := sessions.Get("u1")
	if s == nil || !s.EntitlementGranted {
		t.Fatalf("entitlement gone right after confirmation: session = %+v", s)
	}

	// The restarted window still expires on its own schedule.
	now = base.Add(6 * time.Minute)
	if s := sessions.Get("u1"); s != nil {
		t.Fatalf("entitlement session outlived the restarted window: %+v", s)
	}
}

func TestHandleConfirm_CopiesStoredSession(t *testing.T) {
	gw := &fakeGateway{configured: true}
	svc, sessions, _ := newPaymentHarness(t, gw)
	ctx := context.Background()

	if _, err := repo.CreateReservation(ctx, svc.DB, "u1_1", "u1", 10, "TWD"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	prev := &session.Session{AwaitingUnlock: true, PaymentOrderID: "u1_1"}
	sessions.Put("u1", prev)

	if err := svc.HandleConfirm(ctx, "txn1", "u1_1"); err != nil {
		t.Fatalf("HandleConfirm: %v", err)
	}

	// The grant lands on a replacement session; readers holding the old
	// pointer never observe a concurrent write.
	if prev.EntitlementGranted || !prev.AwaitingUnlock {
		t.Fatalf("stored session mutated in place: %+v", prev)
	}
	cur := sessions.Get("u1")
	if cur == prev || cur == nil || !cur.EntitlementGranted {
		t.Fatalf("replacement session = %+v", cur)
	}
}

func TestInfoText_QuotesPriceAndLimit(t *testing.T) {
	svc, _, _ := newPaymentHarness(t, &fakeGateway{configured: true})
	got := svc.InfoText(1)
	if !strings.Contains(got, "10") || !strings.Contains(got, "TWD") {
		t.Fatalf("InfoText = %q", got)
	}
}
