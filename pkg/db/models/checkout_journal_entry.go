package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/enums"
)

// CheckoutJournalEntry is one recorded checkout attempt. The cart itself is
// never stored; only the figures needed to audit delivery.
type CheckoutJournalEntry struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	BusinessID        string                 `gorm:"column:business_id;not null" json:"business_id"`
	SessionID         string                 `gorm:"column:session_id;not null" json:"session_id"`
	Status            enums.SubmissionStatus `gorm:"column:status;type:text;not null" json:"status"`
	Total             decimal.Decimal        `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
	LineCount         int                    `gorm:"column:line_count;not null" json:"line_count"`
	CustomerName      string                 `gorm:"column:customer_name;not null" json:"customer_name"`
	TelegramMessageID *int64                 `gorm:"column:telegram_message_id" json:"telegram_message_id,omitempty"`
	FailureReason     *string                `gorm:"column:failure_reason" json:"failure_reason,omitempty"`
	CreatedAt         time.Time              `gorm:"column:created_at;not null" json:"created_at"`
}

func (CheckoutJournalEntry) TableName() string {
	return "checkout_journal"
}
