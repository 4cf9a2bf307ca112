package user

import (
	"context"
	"errors"
	"strings"

	"teenpatti-service/internal/model"
	appErr "teenpatti-service/pkg/errors"

	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

type UpdateProfileRequest struct {
	Nickname *string
	Avatar   *string
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) GetProfile(ctx context.Context, userID int64) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (*model.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Nickname != nil {
		updates["nickname"] = strings.TrimSpace(*req.Nickname)
	}
	if req.Avatar != nil {
		updates["avatar"] = strings.TrimSpace(*req.Avatar)
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, err
	}
	return user, nil
}
