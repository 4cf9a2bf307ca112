package game_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"teenpatti-service/internal/model"
	"teenpatti-service/internal/service/game"
	appErr "teenpatti-service/pkg/errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newSettleHarness(t *testing.T) (*gorm.DB, *game.Service) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.Wallet{}, &model.BillingLog{}, &model.StakeLevel{}, &model.GameRecord{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db, game.NewService(db, nil)
}

// completedRound seeds a game record and returns a round frozen in the
// completed state, ready for settlement.
func completedRound(t *testing.T, db *gorm.DB, code string, stakeRate float64, pot int64, bets map[int64]int64, winners []int64) *game.Round {
	t.Helper()
	ctx := context.Background()

	stake := model.StakeLevel{
		Name:           "test " + code,
		SeatCount:      6,
		MinBet:         10,
		MaxBet:         1000,
		CommissionRate: stakeRate,
	}
	if err := db.WithContext(ctx).Create(&stake).Error; err != nil {
		t.Fatalf("seed stake failed: %v", err)
	}

	rec := model.GameRecord{
		Code:         code,
		StakeLevelID: stake.ID,
		Status:       string(game.StatusActive),
		CreatedAt:    time.Now(),
	}
	if err := db.WithContext(ctx).Create(&rec).Error; err != nil {
		t.Fatalf("seed game record failed: %v", err)
	}

	r := game.NewRound(game.RoundConfig{
		ID:       rec.ID,
		Code:     code,
		MaxSeats: 6,
		MinBet:   10,
		MaxBet:   1000,
	}, rand.New(rand.NewSource(1)))
	for userID, bet := range bets {
		p, err := r.Join(userID, "", 1000)
		if err != nil {
			t.Fatalf("join %d failed: %v", userID, err)
		}
		p.TotalBet = bet
	}
	r.Status = game.StatusCompleted
	r.Pot = pot
	r.WinnerIDs = winners
	r.WinningHandRank = game.Pair
	return r
}

func loadWallet(t *testing.T, db *gorm.DB, userID int64) model.Wallet {
	t.Helper()
	var w model.Wallet
	if err := db.Where("user_id = ?", userID).First(&w).Error; err != nil {
		t.Fatalf("load wallet %d failed: %v", userID, err)
	}
	return w
}

func countBilling(t *testing.T, db *gorm.DB, userID int64, typ string) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&model.BillingLog{}).Where("user_id = ? AND type = ?", userID, typ).Count(&n).Error; err != nil {
		t.Fatalf("count billing failed: %v", err)
	}
	return n
}

func TestSettleRoundPaysWinner(t *testing.T) {
	ctx := context.Background()
	db, svc := newSettleHarness(t)

	r := completedRound(t, db, "ST0001", 0.03, 100, map[int64]int64{101: 50, 102: 50}, []int64{101})

	result, err := svc.SettleRound(ctx, r)
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if result.Commission != 3 {
		t.Fatalf("expected commission 3, got %d", result.Commission)
	}
	if result.Winnings != 97 {
		t.Fatalf("expected winnings 97, got %d", result.Winnings)
	}
	if len(result.Credits) != 1 || result.Credits[0].UserID != 101 || result.Credits[0].Amount != 97 {
		t.Fatalf("unexpected credits: %+v", result.Credits)
	}
	if len(result.Losses) != 1 || result.Losses[0].UserID != 102 || result.Losses[0].Amount != 50 {
		t.Fatalf("unexpected losses: %+v", result.Losses)
	}

	winner := loadWallet(t, db, 101)
	if winner.BalanceAvailable != 97 || winner.TotalWin != 97 {
		t.Fatalf("winner wallet not credited: %+v", winner)
	}
	loser := loadWallet(t, db, 102)
	if loser.BalanceAvailable != 0 {
		t.Fatalf("loss records must not move chips: %+v", loser)
	}
	if loser.TotalLoss != 50 {
		t.Fatalf("expected total loss 50, got %d", loser.TotalLoss)
	}

	if n := countBilling(t, db, 101, "win"); n != 1 {
		t.Fatalf("expected 1 win log, got %d", n)
	}
	if n := countBilling(t, db, 102, "lose"); n != 1 {
		t.Fatalf("expected 1 lose log, got %d", n)
	}
	if n := countBilling(t, db, 0, "commission"); n != 1 {
		t.Fatalf("expected 1 commission log, got %d", n)
	}

	var rec model.GameRecord
	if err := db.First(&rec, r.ID).Error; err != nil {
		t.Fatalf("load record failed: %v", err)
	}
	if rec.SettledAt == nil || rec.Status != string(game.StatusCompleted) || rec.Pot != 100 {
		t.Fatalf("record not finalized: %+v", rec)
	}
}

func TestSettleRoundIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, svc := newSettleHarness(t)

	r := completedRound(t, db, "ST0002", 0.03, 100, map[int64]int64{111: 50, 112: 50}, []int64{111})

	if _, err := svc.SettleRound(ctx, r); err != nil {
		t.Fatalf("first settle failed: %v", err)
	}
	if _, err := svc.SettleRound(ctx, r); !errors.Is(err, appErr.ErrAlreadySettled) {
		t.Fatalf("expected ErrAlreadySettled, got %v", err)
	}

	// The retry must not double-pay.
	winner := loadWallet(t, db, 111)
	if winner.BalanceAvailable != 97 {
		t.Fatalf("winner paid twice: %+v", winner)
	}
}

func TestSettleSmallPotHasNoCommission(t *testing.T) {
	ctx := context.Background()
	db, svc := newSettleHarness(t)

	// floor(20 * 0.03) = 0
	r := completedRound(t, db, "ST0003", 0.03, 20, map[int64]int64{121: 10, 122: 10}, []int64{122})

	result, err := svc.SettleRound(ctx, r)
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if result.Commission != 0 {
		t.Fatalf("expected no commission on tiny pot, got %d", result.Commission)
	}
	if result.Winnings != 20 {
		t.Fatalf("expected winnings 20, got %d", result.Winnings)
	}
	if n := countBilling(t, db, 0, "commission"); n != 0 {
		t.Fatalf("expected no commission log, got %d", n)
	}
}

func TestSettleSplitPotRemainderToEarliestSeat(t *testing.T) {
	ctx := context.Background()
	db, svc := newSettleHarness(t)

	// pot 110, commission floor(3.3)=3, winnings 107 -> 54 + 53.
	r := completedRound(t, db, "ST0004", 0.03, 110, map[int64]int64{131: 55, 132: 55}, []int64{131, 132})

	result, err := svc.SettleRound(ctx, r)
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if len(result.Credits) != 2 {
		t.Fatalf("expected 2 credits, got %+v", result.Credits)
	}
	if result.Credits[0].Amount != 54 || result.Credits[1].Amount != 53 {
		t.Fatalf("remainder should go to the earliest seat: %+v", result.Credits)
	}
	if result.Credits[0].Amount+result.Credits[1].Amount+result.Commission != r.Pot {
		t.Fatal("settlement must conserve the pot")
	}
	if len(result.Losses) != 0 {
		t.Fatalf("tied winners are not losers: %+v", result.Losses)
	}
}

func TestSettleRejectsUnfinishedRound(t *testing.T) {
	ctx := context.Background()
	db, svc := newSettleHarness(t)

	r := completedRound(t, db, "ST0005", 0.03, 100, map[int64]int64{141: 50, 142: 50}, []int64{141})
	r.Status = game.StatusActive
	if _, err := svc.SettleRound(ctx, r); !errors.Is(err, appErr.ErrSettlementValidation) {
		t.Fatalf("expected ErrSettlementValidation for active round, got %v", err)
	}

	r.Status = game.StatusCompleted
	r.WinnerIDs = nil
	if _, err := svc.SettleRound(ctx, r); !errors.Is(err, appErr.ErrSettlementValidation) {
		t.Fatalf("expected ErrSettlementValidation without winners, got %v", err)
	}

	if _, err := svc.SettleRound(ctx, nil); !errors.Is(err, appErr.ErrSettlementValidation) {
		t.Fatalf("expected ErrSettlementValidation for nil round, got %v", err)
	}
}
