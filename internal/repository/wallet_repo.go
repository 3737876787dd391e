package repository

import (
	"errors"

	"likesio/internal/models"

	"gorm.io/gorm"
)

var ErrInsufficientBalance = errors.New("insufficient wallet balance")

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) GetByUserID(userID uint) (*models.Wallet, error) {
	var w models.Wallet
	if err := r.db.Where("user_id = ?", userID).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WalletRepository) GetOrCreate(userID uint) (*models.Wallet, error) {
	w, err := r.GetByUserID(userID)
	if err == nil {
		return w, nil
	}
	w = &models.Wallet{UserID: userID, BalanceCents: 0, Currency: "USD"}
	if err := r.db.Create(w).Error; err != nil {
		return nil, err
	}
	return w, nil
}

// Adjust applies a signed balance change and writes the ledger row in one transaction.
// This is the one multi-step path in the system that is wrapped transactionally.
func (r *WalletRepository) Adjust(userID uint, amountCents int64, txType, reference, note string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var w models.Wallet
		if err := tx.Where("user_id = ?", userID).First(&w).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			w = models.Wallet{UserID: userID, Currency: "USD"}
			if err := tx.Create(&w).Error; err != nil {
				return err
			}
		}
		if w.BalanceCents+amountCents < 0 {
			return ErrInsufficientBalance
		}
		w.BalanceCents += amountCents
		if err := tx.Model(&w).Update("balance_cents", w.BalanceCents).Error; err != nil {
			return err
		}
		return tx.Create(&models.WalletTransaction{
			UserID:      userID,
			AmountCents: amountCents,
			Type:        txType,
			Reference:   reference,
			Note:        note,
		}).Error
	})
}

func (r *WalletRepository) ListTransactions(userID uint, page, limit int) ([]models.WalletTransaction, int64, error) {
	q := r.db.Model(&models.WalletTransaction{})
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var total int64
	q.Count(&total)
	var list []models.WalletTransaction
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&list).Error
	return list, total, err
}
