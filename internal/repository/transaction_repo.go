package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"nthanda/internal/domain"
	"nthanda/internal/models"
)

var ErrTransactionNotFound = errors.New("transaction not found")

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(t *models.Transaction) error {
	return r.db.Create(t).Error
}

func (r *TransactionRepository) GetByReference(reference string) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.Where("reference = ?", reference).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateStatusFrom moves a transaction to a new status only if its current
// status is one of the expected prior states. Returns false when no row
// matched, which is how concurrent verifies lose the race without ever
// regressing a terminal state.
func (r *TransactionRepository) UpdateStatusFrom(reference string, from []domain.TransactionStatus, to domain.TransactionStatus, verifiedAt *time.Time) (bool, error) {
	updates := map[string]interface{}{"status": to}
	if verifiedAt != nil {
		updates["verified_at"] = verifiedAt
	}
	res := r.db.Model(&models.Transaction{}).
		Where("reference = ? AND status IN ?", reference, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListStalePending returns non-terminal transactions created before the
// cutoff, for the expiry sweep.
func (r *TransactionRepository) ListStalePending(olderThan time.Duration, limit int) ([]models.Transaction, error) {
	cutoff := time.Now().Add(-olderThan)
	var out []models.Transaction
	err := r.db.
		Where("status IN ? AND created_at < ?", []domain.TransactionStatus{domain.StatusCreated, domain.StatusRedirected}, cutoff).
		Order("created_at").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
