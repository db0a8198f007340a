package models

import (
	"time"

	"gorm.io/gorm"

	"nthanda/internal/domain"
)

// SubscriptionRecord holds one user's tier state. One row per user
// (user_uid unique), so "at most one ACTIVE subscription per user" holds
// structurally rather than by a conditional index.
type SubscriptionRecord struct {
	ID        uint                      `gorm:"primaryKey" json:"id"`
	UserUID   string                    `gorm:"size:64;not null;uniqueIndex" json:"user_uid"`
	Tier      domain.Tier               `gorm:"size:20;not null" json:"tier"`
	Status    domain.SubscriptionStatus `gorm:"size:20;not null;index" json:"status"`
	Gateway   domain.Gateway            `gorm:"size:20" json:"gateway,omitempty"`
	Reference string                    `gorm:"size:64;index" json:"reference,omitempty"` // verifying transaction
	CreatedAt time.Time                 `json:"created_at"`
	UpdatedAt time.Time                 `json:"updated_at"`
	DeletedAt gorm.DeletedAt            `gorm:"index" json:"-"`
}

func (SubscriptionRecord) TableName() string {
	return "subscription_records"
}

func (s *SubscriptionRecord) IsActive() bool {
	return s.Status == domain.SubscriptionActive
}
