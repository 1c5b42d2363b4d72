// Package services defines the business logic of the bot.
//
// This file implements the daily free-quota ledger. Counters are keyed by
// user × calendar day (UTC), created lazily, incremented once per authorized
// generation, and never decremented. Past days stay in the table but are
// functionally inert.
//
// The authorization step is TryConsume: a single guarded UPDATE, so two
// near-simultaneous events from the same user cannot both pass the check
// before either increments.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/khliu/go-imagebot-backend/internal/repo"
)

// QuotaService tracks per-user, per-day usage against a configured daily
// limit.
type QuotaService struct {
	DB *gorm.DB

	// DailyLimit is the number of free generations per user per day.
	DailyLimit int

	// now is an injectable clock for tests.
	now func() time.Time
}

// NewQuotaService constructs a QuotaService with the given limit.
func NewQuotaService(db *gorm.DB, dailyLimit int) *QuotaService {
	return &QuotaService{DB: db, DailyLimit: dailyLimit, now: time.Now}
}

// UsageToday returns the user's counter for the current day.
func (s *QuotaService) UsageToday(ctx context.Context, userID string) (int, error) {
	return repo.UsageCount(ctx, s.DB, userID, repo.UsageDay(s.now()))
}

// IncrementToday bumps the user's counter unconditionally and returns the
// new count. Prefer TryConsume for authorization; this exists for the
// entitlement-free ledger contract.
func (s *QuotaService) IncrementToday(ctx context.Context, userID string) (int, error) {
	return repo.IncrementUsage(ctx, s.DB, userID, repo.UsageDay(s.now()))
}

// HasFreeQuota reports whether the user's counter is below the daily limit.
func (s *QuotaService) HasFreeQuota(ctx context.Context, userID string) (bool, error) {
	n, err := s.UsageToday(ctx, userID)
	if err != nil {
		return false, err
	}
	return n < s.DailyLimit, nil
}

// TryConsume authorizes one generation against the free quota, atomically
// checking and incrementing the day's counter. It reports whether the
// attempt was authorized.
func (s *QuotaService) TryConsume(ctx context.Context, userID string) (bool, error) {
	return repo.TryConsumeUsage(ctx, s.DB, userID, repo.UsageDay(s.now()), s.DailyLimit)
}

// SetClock replaces the time source. Tests only.
func (s *QuotaService) SetClock(now func() time.Time) { s.now = now }
