package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"teenpatti-service/internal/model"
	appErr "teenpatti-service/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) GetWallet(ctx context.Context, userID int64) (*model.Wallet, error) {
	var wallet model.Wallet
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.Wallet{UserID: userID}, nil
		}
		return nil, err
	}
	return &wallet, nil
}

func (s *Service) GetBalance(ctx context.Context, userID int64) (int64, error) {
	wallet, err := s.GetWallet(ctx, userID)
	if err != nil {
		return 0, err
	}
	return wallet.BalanceAvailable, nil
}

// AdjustBalance applies a signed delta and books it, refusing to take
// the wallet negative.
func (s *Service) AdjustBalance(ctx context.Context, userID, delta int64, reason string) (*model.Wallet, error) {
	var wallet model.Wallet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&wallet).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			wallet = model.Wallet{UserID: userID}
		}

		if wallet.BalanceAvailable+delta < 0 {
			return fmt.Errorf("%w: balance %d, delta %d", appErr.ErrInsufficientBalance, wallet.BalanceAvailable, delta)
		}
		wallet.BalanceAvailable += delta
		wallet.UpdatedAt = time.Now()

		if err := tx.Save(&wallet).Error; err != nil {
			return err
		}
		return tx.Create(&model.BillingLog{
			UserID:       userID,
			Type:         "adjust",
			Delta:        delta,
			BalanceAfter: wallet.BalanceAvailable,
			MetaJSON:     []byte(fmt.Sprintf(`{"reason":%q}`, reason)),
			CreatedAt:    time.Now(),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

type LedgerResult struct {
	Items []model.BillingLog
	Total int64
}

// Ledger pages through a user's billing history, newest first.
func (s *Service) Ledger(ctx context.Context, userID int64, page, size int) (*LedgerResult, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	var total int64
	if err := s.db.WithContext(ctx).
		Model(&model.BillingLog{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, err
	}

	var items []model.BillingLog
	if total > 0 {
		offset := (page - 1) * size
		if err := s.db.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("id DESC").
			Limit(size).
			Offset(offset).
			Find(&items).Error; err != nil {
			return nil, err
		}
	}

	return &LedgerResult{Items: items, Total: total}, nil
}
