// Package repo implements the data persistence layer for the durable
// ledgers, backed by GORM. This file provides repository functions for
// payment reservations, which double as the reservation→user lookup used by
// the out-of-band confirmation callback.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/khliu/go-imagebot-backend/internal/domain"
)

// CreateReservation inserts a RESERVED row for the given order.
func CreateReservation(ctx context.Context, db *gorm.DB, orderID, userID string, amount int, currency string) (*domain.PaymentReservation, error) {
	rec := &domain.PaymentReservation{
		ID:       uuid.NewString(),
		OrderID:  orderID,
		UserID:   userID,
		Status:   domain.ReservationReserved,
		Amount:   amount,
		Currency: currency,
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// GetReservationByOrder fetches a reservation by its order identifier.
func GetReservationByOrder(ctx context.Context, db *gorm.DB, orderID string) (*domain.PaymentReservation, error) {
	var rec domain.PaymentReservation
	err := db.WithContext(ctx).Where("order_id = ?", orderID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ConfirmReservation moves a RESERVED row to CONFIRMED, recording the
// gateway transaction id. Returns ErrNotFound when no RESERVED row exists
// for the order (already confirmed, consumed, or unknown).
func ConfirmReservation(ctx context.Context, db *gorm.DB, orderID, transactionID string) error {
	res := db.WithContext(ctx).Model(&domain.PaymentReservation{}).
		Where("order_id = ? AND status = ?", orderID, domain.ReservationReserved).
		Updates(map[string]any{
			"transaction_id": transactionID,
			"status":         domain.ReservationConfirmed,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeConfirmedReservation moves the oldest CONFIRMED reservation of the
// user to CONSUMED. Returns ErrNotFound when the user has none.
func ConsumeConfirmedReservation(ctx context.Context, db *gorm.DB, userID string) error {
	var rec domain.PaymentReservation
	err := db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, domain.ReservationConfirmed).
		Order("created_at ASC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Model(&domain.PaymentReservation{}).
		Where("id = ? AND status = ?", rec.ID, domain.ReservationConfirmed).
		Updates(map[string]any{
			"status":     domain.ReservationConsumed,
			"updated_at": time.Now().UTC(),
		}).Error
}
