package game

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"teenpatti-service/internal/config"
	"teenpatti-service/internal/model"
	appErr "teenpatti-service/pkg/errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettlementResult struct {
	GameID     int64          `json:"gameId"`
	Pot        int64          `json:"pot"`
	Commission int64          `json:"commission"`
	Winnings   int64          `json:"winnings"`
	Credits    []WinnerCredit `json:"credits"`
	Losses     []PlayerLoss   `json:"losses"`
	HandRank   string         `json:"handRank"`
}

type WinnerCredit struct {
	UserID int64 `json:"userId"`
	Amount int64 `json:"amount"`
}

type PlayerLoss struct {
	UserID int64 `json:"userId"`
	Amount int64 `json:"amount"`
}

// SettleRound applies the payout of a completed round exactly once.
// The pot was funded by per-action wallet debits, so settlement only
// credits the winners, books the commission, and records losses for
// the ledger. Safe to retry: the row lock plus the SettledAt guard make
// a second call fail with ErrAlreadySettled instead of paying twice.
func (s *Service) SettleRound(ctx context.Context, r *Round) (*SettlementResult, error) {
	if r == nil || r.Status != StatusCompleted || len(r.WinnerIDs) == 0 {
		return nil, appErr.ErrSettlementValidation
	}

	now := time.Now()
	var result *SettlementResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec model.GameRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&rec, r.ID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return appErr.ErrGameNotFound
			}
			return err
		}
		if rec.SettledAt != nil {
			return appErr.ErrAlreadySettled
		}

		rate := s.commissionRate(tx, rec.StakeLevelID)
		commission := int64(math.Floor(float64(r.Pot) * rate))
		winnings := r.Pot - commission

		winners := make(map[int64]bool, len(r.WinnerIDs))
		for _, id := range r.WinnerIDs {
			winners[id] = true
		}
		share := winnings / int64(len(r.WinnerIDs))
		remainder := winnings % int64(len(r.WinnerIDs))

		wallets := newWalletBook(tx)
		billingLogs := make([]model.BillingLog, 0, len(r.Players)+1)
		credits := make([]WinnerCredit, 0, len(r.WinnerIDs))
		losses := make([]PlayerLoss, 0, len(r.Players))

		// WinnerIDs are in seat order, so the split remainder goes to
		// the earliest seat.
		for i, winnerID := range r.WinnerIDs {
			amount := share
			if i == 0 {
				amount += remainder
			}
			wallet, err := wallets.Ensure(winnerID)
			if err != nil {
				return err
			}
			wallet.BalanceAvailable += amount
			wallet.TotalWin += amount

			meta := map[string]interface{}{
				"gameId":   rec.ID,
				"pot":      r.Pot,
				"handRank": r.WinningHandRank.String(),
			}
			billingLogs = append(billingLogs, model.BillingLog{
				UserID:       winnerID,
				Type:         "win",
				Delta:        amount,
				BalanceAfter: wallet.BalanceAvailable,
				GameID:       &rec.ID,
				MetaJSON:     mustJSON(meta),
				CreatedAt:    now,
			})
			credits = append(credits, WinnerCredit{UserID: winnerID, Amount: amount})
		}

		if commission > 0 {
			billingLogs = append(billingLogs, model.BillingLog{
				UserID:       0,
				Type:         "commission",
				Delta:        commission,
				BalanceAfter: 0,
				GameID:       &rec.ID,
				MetaJSON:     mustJSON(map[string]interface{}{"gameId": rec.ID, "rate": rate}),
				CreatedAt:    now,
			})
		}

		for _, p := range r.Players {
			if winners[p.UserID] || p.TotalBet == 0 {
				continue
			}
			// Informational only: the chips already left the wallet with
			// each bet, so no balance change here.
			wallet, err := wallets.Ensure(p.UserID)
			if err != nil {
				return err
			}
			wallet.TotalLoss += p.TotalBet
			billingLogs = append(billingLogs, model.BillingLog{
				UserID:       p.UserID,
				Type:         "lose",
				Delta:        -p.TotalBet,
				BalanceAfter: wallet.BalanceAvailable,
				GameID:       &rec.ID,
				MetaJSON:     mustJSON(map[string]interface{}{"gameId": rec.ID, "recordOnly": true}),
				CreatedAt:    now,
			})
			losses = append(losses, PlayerLoss{UserID: p.UserID, Amount: p.TotalBet})
		}

		if err := wallets.SaveAll(now); err != nil {
			return err
		}
		if len(billingLogs) > 0 {
			if err := tx.Create(&billingLogs).Error; err != nil {
				return err
			}
		}

		result = &SettlementResult{
			GameID:     rec.ID,
			Pot:        r.Pot,
			Commission: commission,
			Winnings:   winnings,
			Credits:    credits,
			Losses:     losses,
			HandRank:   r.WinningHandRank.String(),
		}

		rec.Status = string(StatusCompleted)
		rec.Pot = r.Pot
		rec.PlayersJSON = mustJSON(r.Players)
		rec.HistoryJSON = mustJSON(r.History)
		rec.ResultJSON = mustJSON(result)
		rec.EndedAt = &now
		rec.SettledAt = &now
		return tx.Save(&rec).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) commissionRate(tx *gorm.DB, stakeLevelID int64) float64 {
	rate := defaultCommissionRate
	if config.GlobalConfig != nil && config.GlobalConfig.Game.CommissionRate > 0 {
		rate = config.GlobalConfig.Game.CommissionRate
	}
	if stakeLevelID != 0 {
		var stake model.StakeLevel
		// Find avoids the RecordNotFound log when the stake row is gone.
		if err := tx.Limit(1).Find(&stake, stakeLevelID).Error; err == nil && stake.ID != 0 && stake.CommissionRate > 0 {
			rate = stake.CommissionRate
		}
	}
	return rate
}

const defaultCommissionRate = 0.03

func mustJSON(v interface{}) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("{}")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}

type walletBook struct {
	tx      *gorm.DB
	entries map[int64]*walletEntry
}

type walletEntry struct {
	wallet *model.Wallet
	exists bool
	dirty  bool
}

func newWalletBook(tx *gorm.DB) *walletBook {
	return &walletBook{
		tx:      tx,
		entries: make(map[int64]*walletEntry),
	}
}

func (wb *walletBook) Ensure(userID int64) (*model.Wallet, error) {
	if entry, ok := wb.entries[userID]; ok {
		entry.dirty = true
		return entry.wallet, nil
	}

	wallet := &model.Wallet{}
	err := wb.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(wallet).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
		wallet = &model.Wallet{UserID: userID}
	}

	entry := &walletEntry{
		wallet: wallet,
		exists: err == nil,
		dirty:  true,
	}
	wb.entries[userID] = entry
	return wallet, nil
}

func (wb *walletBook) SaveAll(now time.Time) error {
	for _, entry := range wb.entries {
		if !entry.dirty {
			continue
		}
		entry.wallet.UpdatedAt = now
		var err error
		if entry.exists {
			err = wb.tx.Save(entry.wallet).Error
		} else {
			err = wb.tx.Create(entry.wallet).Error
			if err == nil {
				entry.exists = true
			}
		}
		if err != nil {
			return err
		}
		entry.dirty = false
	}
	return nil
}
