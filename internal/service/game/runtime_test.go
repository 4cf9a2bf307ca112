package game_test

import (
	"context"
	"testing"
	"time"

	"teenpatti-service/internal/model"
	"teenpatti-service/internal/service/game"
	"teenpatti-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newRuntimeHarness builds a live runtime with three seated players,
// backed by an in-memory database and a silent logger.
func newRuntimeHarness(t *testing.T) *game.GameRuntime {
	t.Helper()

	if logger.Log == nil {
		logger.Log = zap.NewNop()
	}

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.Wallet{}, &model.BillingLog{}, &model.StakeLevel{}, &model.GameRecord{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	ctx := context.Background()
	svc := game.NewService(db, nil)

	stake := model.StakeLevel{
		Name:      "runtime test",
		SeatCount: 6,
		MinBet:    10,
		MaxBet:    1000,
	}
	if err := db.WithContext(ctx).Create(&stake).Error; err != nil {
		t.Fatalf("seed stake failed: %v", err)
	}

	rt, err := svc.CreateGame(ctx, &stake)
	if err != nil {
		t.Fatalf("create game failed: %v", err)
	}
	for i := int64(1); i <= 3; i++ {
		if _, err := rt.Join(ctx, i, "", 1000); err != nil {
			t.Fatalf("join %d failed: %v", i, err)
		}
	}
	return rt
}

func TestLeaveDuringRoundRearmsTurnClock(t *testing.T) {
	rt := newRuntimeHarness(t)
	ctx := context.Background()

	if err := rt.HandleAction(ctx, 1, "start", nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if got := rt.View(2).CurrentTurn; got != 1 {
		t.Fatalf("expected seat 1 to act first, got %d", got)
	}

	// Let part of seat 1's clock run down before they walk away.
	time.Sleep(1500 * time.Millisecond)
	before := rt.View(2).Countdown

	if err := rt.HandleAction(ctx, 1, "leave", nil); err != nil {
		t.Fatalf("leave failed: %v", err)
	}

	v := rt.View(2)
	if v.CurrentTurn != 2 {
		t.Fatalf("turn should pass over the leaver to 2, got %d", v.CurrentTurn)
	}
	if v.Countdown <= before {
		t.Fatalf("seat 2 inherited the leaver's clock: countdown %d, was %d before the leave", v.Countdown, before)
	}
}
