package table_test

import (
	"context"
	"errors"
	"testing"

	"teenpatti-service/internal/model"
	"teenpatti-service/internal/service/table"
	appErr "teenpatti-service/pkg/errors"
	"teenpatti-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTableService(t *testing.T) (*gorm.DB, *table.Service) {
	t.Helper()

	if logger.Log == nil {
		logger.Log = zap.NewNop()
	}
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.StakeLevel{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db, table.NewService(db)
}

func TestEnsureDefaultStakeSeedsOnce(t *testing.T) {
	ctx := context.Background()
	db, svc := newTableService(t)

	if err := svc.EnsureDefaultStake(ctx); err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	if err := svc.EnsureDefaultStake(ctx); err != nil {
		t.Fatalf("second ensure failed: %v", err)
	}

	var count int64
	if err := db.Model(&model.StakeLevel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one seeded stake, got %d", count)
	}

	var stake model.StakeLevel
	if err := db.First(&stake).Error; err != nil {
		t.Fatalf("load stake failed: %v", err)
	}
	if stake.MinBet != 10 || stake.MaxBet != 1000 || stake.Status != "enabled" {
		t.Fatalf("unexpected default stake: %+v", stake)
	}
}

func TestGetStakeLevel(t *testing.T) {
	ctx := context.Background()
	db, svc := newTableService(t)

	enabled := model.StakeLevel{Name: "mid", SeatCount: 6, MinBet: 50, MaxBet: 5000, Status: "enabled"}
	disabled := model.StakeLevel{Name: "retired", SeatCount: 6, MinBet: 100, MaxBet: 9000, Status: "disabled"}
	if err := db.WithContext(ctx).Create(&enabled).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := db.WithContext(ctx).Create(&disabled).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	stake, err := svc.GetStakeLevel(ctx, enabled.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stake.Name != "mid" {
		t.Fatalf("unexpected stake: %+v", stake)
	}

	if _, err := svc.GetStakeLevel(ctx, disabled.ID); !errors.Is(err, appErr.ErrStakeNotFound) {
		t.Fatalf("disabled stake should read as missing, got %v", err)
	}
	if _, err := svc.GetStakeLevel(ctx, 99999); !errors.Is(err, appErr.ErrStakeNotFound) {
		t.Fatalf("expected ErrStakeNotFound, got %v", err)
	}
}

func TestListStakeLevelsFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	db, svc := newTableService(t)

	if err := db.WithContext(ctx).Where("1 = 1").Delete(&model.StakeLevel{}).Error; err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	seed := []model.StakeLevel{
		{Name: "high", SeatCount: 6, MinBet: 500, MaxBet: 50000, Status: "enabled"},
		{Name: "low", SeatCount: 6, MinBet: 10, MaxBet: 1000, Status: "enabled"},
		{Name: "hidden", SeatCount: 6, MinBet: 50, MaxBet: 5000, Status: "disabled"},
	}
	if err := db.WithContext(ctx).Create(&seed).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	stakes, err := svc.ListStakeLevels(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(stakes) != 2 {
		t.Fatalf("expected 2 enabled stakes, got %d", len(stakes))
	}
	if stakes[0].Name != "low" || stakes[1].Name != "high" {
		t.Fatalf("stakes not ordered by min bet: %+v", stakes)
	}
}
