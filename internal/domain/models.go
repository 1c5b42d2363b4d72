// Package domain defines the persistence models for the quota ledger,
// payment reservations, and webhook delivery dedupe. These types are mapped
// with GORM and form the durable data layer of the bot backend. Conversation
// sessions are deliberately not part of this package: they live in volatile
// memory (see internal/session).
package domain

import "time"

// UsageRecord counts authorized generations for one user on one calendar day.
// The counter is created lazily on first access, incremented by one per
// authorized generation, and never decremented. Rows for past days are kept
// but functionally inert.
//
// Day is the user's usage day in "2006-01-02" form (UTC).
type UsageRecord struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID    string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_usage_user_day,priority:1"`
	Day       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_usage_user_day,priority:2"`
	Count     int       `gorm:"type:INTEGER NOT NULL;default:0"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoUpdateTime"`
}

// TableName implements the GORM tabler interface.
func (UsageRecord) TableName() string { return "usage_records" }

// Reservation lifecycle states. A reservation moves strictly forward:
// reserved → confirmed → consumed.
const (
	ReservationReserved  = "RESERVED"
	ReservationConfirmed = "CONFIRMED"
	ReservationConsumed  = "CONSUMED"
)

// PaymentReservation records one outstanding or settled payment against the
// gateway. OrderID embeds the user id ("{userId}_{unixMillis}") so the
// out-of-band confirmation callback can be correlated back to a user; the row
// itself is the authoritative reservation→user lookup.
type PaymentReservation struct {
	ID            string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	OrderID       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_reservation_order"`
	UserID        string    `gorm:"type:TEXT NOT NULL;index"`
	TransactionID string    `gorm:"type:TEXT NOT NULL;default:''"`
	Status        string    `gorm:"type:TEXT NOT NULL;check:status IN ('RESERVED','CONFIRMED','CONSUMED')"`
	Amount        int       `gorm:"type:INTEGER NOT NULL"`
	Currency      string    `gorm:"type:TEXT NOT NULL"`
	CreatedAt     time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"type:DATETIME NOT NULL;autoUpdateTime"`
}

// TableName implements the GORM tabler interface.
func (PaymentReservation) TableName() string { return "payment_reservations" }

// WebhookDelivery remembers a processed webhook delivery so redelivered
// batches (the platform retries with the same retry key) are not handled
// twice. Expired rows are ignored by readers.
type WebhookDelivery struct {
	ID         string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	RetryKey   string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_delivery_retry_key"`
	ReceivedAt time.Time `gorm:"type:DATETIME NOT NULL"`
	ExpiresAt  time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (WebhookDelivery) TableName() string { return "webhook_deliveries" }
