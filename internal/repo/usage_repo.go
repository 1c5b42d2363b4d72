// Package repo implements the data persistence layer for the durable
// ledgers, backed by GORM. This file provides repository functions for the
// per-user, per-day usage counter.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only counter
// persistence.
//
// Concurrency note: TryConsumeUsage performs the check-and-increment as one
// guarded UPDATE, so two near-simultaneous events for the same user cannot
// both be authorized past the daily limit.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/khliu/go-imagebot-backend/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// UsageDay formats t as the calendar-day key used by the usage ledger.
func UsageDay(t time.Time) string { return t.UTC().Format("2006-01-02") }

// UsageCount returns the counter for (userID, day), or 0 when no row exists.
func UsageCount(ctx context.Context, db *gorm.DB, userID, day string) (int, error) {
	var rec domain.UsageRecord
	err := db.WithContext(ctx).
		Where("user_id = ? AND day = ?", userID, day).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rec.Count, nil
}

// IncrementUsage bumps the counter for (userID, day) unconditionally and
// returns the new count. The row is created lazily.
func IncrementUsage(ctx context.Context, db *gorm.DB, userID, day string) (int, error) {
	if err := ensureUsageRow(ctx, db, userID, day); err != nil {
		return 0, err
	}
	err := db.WithContext(ctx).Model(&domain.UsageRecord{}).
		Where("user_id = ? AND day = ?", userID, day).
		UpdateColumn("count", gorm.Expr("count + 1")).Error
	if err != nil {
		return 0, err
	}
	return UsageCount(ctx, db, userID, day)
}

// TryConsumeUsage atomically increments the counter for (userID, day) only
// while it is below limit. It reports whether the increment happened, i.e.
// whether the caller is authorized to run one generation against the free
// quota.
func TryConsumeUsage(ctx context.Context, db *gorm.DB, userID, day string, limit int) (bool, error) {
	if limit <= 0 {
		return false, nil
	}
	if err := ensureUsageRow(ctx, db, userID, day); err != nil {
		return false, err
	}
	res := db.WithContext(ctx).Model(&domain.UsageRecord{}).
		Where("user_id = ? AND day = ? AND count < ?", userID, day, limit).
		UpdateColumn("count", gorm.Expr("count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ensureUsageRow creates the zero-count row for (userID, day) if absent.
// A unique-constraint violation from a concurrent insert is not an error.
func ensureUsageRow(ctx context.Context, db *gorm.DB, userID, day string) error {
	rec := &domain.UsageRecord{
		ID:     uuid.NewString(),
		UserID: userID,
		Day:    day,
		Count:  0,
	}
	err := db.WithContext(ctx).Create(rec).Error
	if err == nil {
		return nil
	}
	// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
	low := strings.ToLower(err.Error())
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") {
		return nil
	}
	return err
}
