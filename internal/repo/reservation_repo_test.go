package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/khliu/go-imagebot-backend/internal/domain"
)

func TestReservation_Lifecycle(t *testing.T) {
	db := newLedgerDB(t, &domain.PaymentReservation{})
	ctx := context.Background()

	rec, err := CreateReservation(ctx, db, "u1_1700000000000", "u1", 10, "TWD")
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
	if rec.ID == "" || rec.Status != domain.ReservationReserved {
		t.Fatalf("unexpected reservation: %+v", rec)
	}

	got, err := GetReservationByOrder(ctx, db, "u1_1700000000000")
	if err != nil {
		t.Fatalf("GetReservationByOrder: %v", err)
	}
	if got.UserID != "u1" || got.Amount != 10 || got.Currency != "TWD" {
		t.Fatalf("unexpected fields: %+v", got)
	}

	if err := ConfirmReservation(ctx, db, "u1_1700000000000", "txn123"); err != nil {
		t.Fatalf("ConfirmReservation: %v", err)
	}
	got, _ = GetReservationByOrder(ctx, db, "u1_1700000000000")
	if got.Status != domain.ReservationConfirmed || got.TransactionID != "txn123" {
		t.Fatalf("after confirm: %+v", got)
	}

	if err := ConsumeConfirmedReservation(ctx, db, "u1"); err != nil {
		t.Fatalf("ConsumeConfirmedReservation: %v", err)
	}
	got, _ = GetReservationByOrder(ctx, db, "u1_1700000000000")
	if got.Status != domain.ReservationConsumed {
		t.Fatalf("after consume: %+v", got)
	}
}

func TestConfirmReservation_Unknown_ReturnsNotFound(t *testing.T) {
	db := newLedgerDB(t, &domain.PaymentReservation{})
	err := ConfirmReservation(context.Background(), db, "missing", "txn")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v; want ErrNotFound", err)
	}
}

func TestConfirmReservation_AlreadyConfirmed_ReturnsNotFound(t *testing.T) {
	db := newLedgerDB(t, &domain.PaymentReservation{})
	ctx := context.Background()

	if _, err := CreateReservation(ctx, db, "o1", "u1", 10, "TWD"); err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
	if err := ConfirmReservation(ctx, db, "o1", "txn1"); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	// A replayed callback must not flip the row twice.
	if err := ConfirmReservation(ctx, db, "o1", "txn2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second confirm err = %v; want ErrNotFound", err)
	}
}

func TestConsumeConfirmedReservation_NoneLeft(t *testing.T) {
	db := newLedgerDB(t, &domain.PaymentReservation{})
	err := ConsumeConfirmedReservation(context.Background(), db, "u1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v; want ErrNotFound", err)
	}
}

func TestGetReservationByOrder_Missing(t *testing.T) {
	db := newLedgerDB(t, &domain.PaymentReservation{})
	_, err := GetReservationByOrder(context.Background(), db, "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v; want ErrNotFound", err)
	}
}
