package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nthanda/internal/domain"
	"nthanda/internal/models"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) GetByUserUID(userUID string) (*models.SubscriptionRecord, error) {
	var rec models.SubscriptionRecord
	err := r.db.Where("user_uid = ?", userUID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ActivateTier makes `tier` the user's single ACTIVE subscription, superseding
// whatever was there before. The row is locked inside one transaction so two
// concurrent confirmations cannot both read-then-write; the unique index on
// user_uid resolves the create/create race to one row.
func (r *SubscriptionRepository) ActivateTier(userUID string, tier domain.Tier, gateway domain.Gateway, reference string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var rec models.SubscriptionRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_uid = ?", userUID).
			First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&models.SubscriptionRecord{
				UserUID:   userUID,
				Tier:      tier,
				Status:    domain.SubscriptionActive,
				Gateway:   gateway,
				Reference: reference,
			}).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&rec).Updates(map[string]interface{}{
			"tier":      tier,
			"status":    domain.SubscriptionActive,
			"gateway":   gateway,
			"reference": reference,
		}).Error
	})
}

// CancelActive flips ACTIVE to CANCELED. The status guard in the WHERE makes
// the call a no-op (false) when nothing was active.
func (r *SubscriptionRepository) CancelActive(userUID string) (bool, error) {
	res := r.db.Model(&models.SubscriptionRecord{}).
		Where("user_uid = ? AND status = ?", userUID, domain.SubscriptionActive).
		Update("status", domain.SubscriptionCanceled)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
