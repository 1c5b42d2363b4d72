// Package repo implements the data persistence layer for the durable
// ledgers, backed by GORM. This file provides repository helpers for the
// WebhookDelivery model used to drop redelivered event batches.
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

// ErrDuplicate indicates that a delivery with the same retry key was already
// recorded.
var ErrDuplicate = errors.New("duplicate")

// RecordDelivery inserts a delivery row for retryKey, returning ErrDuplicate
// when a non-expired row already exists. A single call therefore both checks
// and claims the key.
func RecordDelivery(ctx context.Context, db *gorm.DB, retryKey string, now time.Time, ttl time.Duration) error {
	rec := &domain.WebhookDelivery{
		ID:         uuid.NewString(),
		RetryKey:   retryKey,
		ReceivedAt: now.UTC(),
		ExpiresAt:  now.UTC().Add(ttl),
	}
	err := db.WithContext(ctx).Create(rec).Error
	if err == nil {
		return nil
	}
	low := strings.ToLower(err.Error())
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") {
		// An expired row under the same key can be reclaimed.
		res := db.WithContext(ctx).Model(&domain.WebhookDelivery{}).
			Where("retry_key = ? AND expires_at <= ?", retryKey, now.UTC()).
			Updates(map[string]any{
				"received_at": now.UTC(),
				"expires_at":  now.UTC().Add(ttl),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			return nil
		}
		return ErrDuplicate
	}
	return err
}
