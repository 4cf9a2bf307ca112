package table

import (
	"context"
	"errors"

	"teenpatti-service/internal/model"
	appErr "teenpatti-service/pkg/errors"
	"teenpatti-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service exposes stake levels: the table configurations (seat count,
// bet bounds, commission rate) that games are opened at.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) ListStakeLevels(ctx context.Context) ([]model.StakeLevel, error) {
	var stakes []model.StakeLevel
	err := s.db.WithContext(ctx).
		Where("status = ?", "enabled").
		Order("min_bet ASC").
		Find(&stakes).Error
	if err != nil {
		return nil, err
	}
	return stakes, nil
}

func (s *Service) GetStakeLevel(ctx context.Context, id int64) (*model.StakeLevel, error) {
	var stake model.StakeLevel
	if err := s.db.WithContext(ctx).First(&stake, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrStakeNotFound
		}
		return nil, err
	}
	if stake.Status != "enabled" {
		return nil, appErr.ErrStakeNotFound
	}
	return &stake, nil
}

// EnsureDefaultStake seeds one playable stake level on first boot.
func (s *Service) EnsureDefaultStake(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.StakeLevel{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	stake := model.StakeLevel{
		Name:           "Classic 10/1000",
		SeatCount:      6,
		MinBet:         10,
		MaxBet:         1000,
		CommissionRate: 0.03,
		Status:         "enabled",
	}
	if err := s.db.WithContext(ctx).Create(&stake).Error; err != nil {
		return err
	}
	logger.Log.Info("seeded default stake level", zap.Int64("stakeLevelID", stake.ID))
	return nil
}
