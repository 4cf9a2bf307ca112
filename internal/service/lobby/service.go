package lobby

import (
	"context"
	"errors"
	"fmt"
	"time"

	"teenpatti-service/internal/service/game"
	"teenpatti-service/internal/service/table"
	appErr "teenpatti-service/pkg/errors"
	"teenpatti-service/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Config struct {
	JoinLockTTL time.Duration
}

func defaultConfig() Config {
	return Config{JoinLockTTL: 10 * time.Second}
}

// Service hands out seats: quick-join finds the oldest open game at a
// stake level or opens a new one.
type Service struct {
	rdb   *redis.Client
	games *game.Service
	table *table.Service
	cfg   Config
}

func NewService(rdb *redis.Client, games *game.Service, tableSvc *table.Service) *Service {
	return &Service{
		rdb:   rdb,
		games: games,
		table: tableSvc,
		cfg:   defaultConfig(),
	}
}

func (s *Service) Join(ctx context.Context, req JoinRequest) (*JoinResult, error) {
	stake, err := s.table.GetStakeLevel(ctx, req.StakeLevelID)
	if err != nil {
		return nil, err
	}

	// One join in flight per user; a second request bounces instead of
	// racing the first into two seats.
	lockKey := buildJoinLockKey(req.UserID)
	gotLock, err := s.rdb.SetNX(ctx, lockKey, stake.ID, s.cfg.JoinLockTTL).Result()
	if err != nil {
		return nil, err
	}
	if !gotLock {
		return nil, appErr.ErrLobbyProcessing
	}
	defer s.rdb.Del(ctx, lockKey)

	if req.GameID != 0 {
		p, err := s.games.JoinGame(ctx, req.GameID, req.UserID)
		if err != nil {
			return nil, err
		}
		return &JoinResult{GameID: req.GameID, Position: p.Position}, nil
	}

	if gameID := s.games.FindOpenGame(ctx, stake.ID); gameID != 0 {
		p, err := s.games.JoinGame(ctx, gameID, req.UserID)
		if err == nil {
			logger.Log.Info("lobby seated player",
				zap.Int64("userID", req.UserID),
				zap.Int64("gameID", gameID),
			)
			return &JoinResult{GameID: gameID, Position: p.Position}, nil
		}
		// The open game can fill or start between index read and join;
		// fall through and open a fresh one.
		if !errors.Is(err, appErr.ErrGameFull) && !errors.Is(err, appErr.ErrGameInProgress) && !errors.Is(err, appErr.ErrGameNotFound) {
			return nil, err
		}
	}

	rt, err := s.games.CreateGame(ctx, stake)
	if err != nil {
		return nil, err
	}
	view := rt.View(req.UserID)
	p, err := s.games.JoinGame(ctx, view.GameID, req.UserID)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("lobby opened game",
		zap.Int64("userID", req.UserID),
		zap.Int64("gameID", view.GameID),
		zap.Int64("stakeLevelID", stake.ID),
	)
	return &JoinResult{GameID: view.GameID, Code: view.Code, Position: p.Position, Created: true}, nil
}

func (s *Service) Leave(ctx context.Context, userID, gameID int64) error {
	if gameID == 0 {
		return appErr.ErrGameNotFound
	}
	return s.games.LeaveGame(ctx, gameID, userID)
}

func buildJoinLockKey(userID int64) string {
	return fmt.Sprintf("lobby:lock:%d", userID)
}
