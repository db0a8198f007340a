package models

import (
	"time"

	"gorm.io/gorm"

	"nthanda/internal/domain"
)

// Transaction is the local record tracking one checkout session through to
// completion. Reference is written exactly once at creation and is the only
// key used to re-enter verification after the external redirect.
type Transaction struct {
	ID            uint                     `gorm:"primaryKey" json:"id"`
	Reference     string                   `gorm:"size:64;not null;uniqueIndex" json:"reference"`
	Gateway       domain.Gateway           `gorm:"size:20;not null;index" json:"gateway"`
	SessionID     string                   `gorm:"size:128" json:"session_id"`
	CustomerEmail string                   `gorm:"size:255" json:"customer_email,omitempty"`
	Status        domain.TransactionStatus `gorm:"size:20;not null;index" json:"status"`
	AmountMinor   int64                    `gorm:"not null" json:"amount_minor"`
	Currency      domain.Currency          `gorm:"size:3;not null" json:"currency"`
	Metadata      string                   `gorm:"type:text" json:"metadata,omitempty"` // JSON
	VerifiedAt    *time.Time               `json:"verified_at,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
	DeletedAt     gorm.DeletedAt           `gorm:"index" json:"-"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) Amount() domain.Money {
	return domain.NewMoney(t.AmountMinor, t.Currency)
}
