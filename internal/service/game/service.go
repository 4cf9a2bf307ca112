package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"teenpatti-service/internal/config"
	"teenpatti-service/internal/model"
	appErr "teenpatti-service/pkg/errors"
	"teenpatti-service/pkg/logger"
	"teenpatti-service/pkg/utils/random"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service manages per-game runtimes and the persistence boundary.
type Service struct {
	db  *gorm.DB
	rdb *redis.Client

	runtimes sync.Map // gameID -> *GameRuntime
}

func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{db: db, rdb: rdb}
}

// CreateGame opens a fresh waiting game at the given stake level and
// registers it in the open-game index so the lobby can hand out seats.
func (s *Service) CreateGame(ctx context.Context, stake *model.StakeLevel) (*GameRuntime, error) {
	if stake == nil || stake.ID == 0 {
		return nil, appErr.ErrInvalidStake
	}

	rec := model.GameRecord{
		Code:         random.Code(6),
		StakeLevelID: stake.ID,
		Status:       string(StatusWaiting),
		CreatedAt:    time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, err
	}

	seats := stake.SeatCount
	if seats <= 0 {
		seats = maxPlayersDefault()
	}
	round := NewRound(RoundConfig{
		ID:       rec.ID,
		Code:     rec.Code,
		MaxSeats: seats,
		MinBet:   stake.MinBet,
		MaxBet:   stake.MaxBet,
	}, rand.New(rand.NewSource(time.Now().UnixNano())))

	rt := newGameRuntime(s, round)
	s.runtimes.Store(rec.ID, rt)

	if s.rdb != nil {
		if err := s.rdb.ZAdd(ctx, buildOpenGamesKey(stake.ID), redis.Z{
			Score:  float64(time.Now().UnixMilli()),
			Member: rec.ID,
		}).Err(); err != nil {
			logger.Log.Warn("open game index add failed", zap.Int64("gameID", rec.ID), zap.Error(err))
		}
	}

	logger.Log.Info("game created",
		zap.Int64("gameID", rec.ID),
		zap.String("code", rec.Code),
		zap.Int64("stakeLevelID", stake.ID),
	)
	return rt, nil
}

// GetRuntime returns the live runtime for a game. Games only exist in
// memory while they run; a record without a runtime is over.
func (s *Service) GetRuntime(ctx context.Context, gameID int64) (*GameRuntime, error) {
	if v, ok := s.runtimes.Load(gameID); ok {
		return v.(*GameRuntime), nil
	}

	var rec model.GameRecord
	if err := s.db.WithContext(ctx).First(&rec, gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrGameNotFound
		}
		return nil, err
	}
	switch Status(rec.Status) {
	case StatusCompleted:
		return nil, appErr.ErrAlreadyCompleted
	default:
		return nil, appErr.ErrGameNotFound
	}
}

// JoinGame resolves the player's alias and balance and seats them.
func (s *Service) JoinGame(ctx context.Context, gameID, userID int64) (*Player, error) {
	rt, err := s.GetRuntime(ctx, gameID)
	if err != nil {
		return nil, err
	}

	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrUserNotFound
		}
		return nil, err
	}
	alias := user.Nickname
	if alias == "" {
		alias = fmt.Sprintf("player%d", userID)
	}

	balance, err := s.loadBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance < rt.round.MinBet {
		return nil, fmt.Errorf("%w: need at least %d", appErr.ErrInsufficientBalance, rt.round.MinBet)
	}

	return rt.Join(ctx, userID, alias, balance)
}

// LeaveGame removes or folds a player depending on game status.
func (s *Service) LeaveGame(ctx context.Context, gameID, userID int64) error {
	rt, err := s.GetRuntime(ctx, gameID)
	if err != nil {
		return err
	}
	return rt.HandleAction(ctx, userID, "leave", nil)
}

// ValidateGameAccess checks the user holds a seat in the game.
func (s *Service) ValidateGameAccess(ctx context.Context, userID, gameID int64) error {
	if userID == 0 {
		return appErr.ErrUnauthorized
	}
	rt, err := s.GetRuntime(ctx, gameID)
	if err != nil {
		return err
	}
	if !rt.Seated(userID) {
		return appErr.ErrGameAccessDenied
	}
	return nil
}

// StateView returns the redacted snapshot for HTTP polling clients.
func (s *Service) StateView(ctx context.Context, gameID, viewerID int64) (*GameView, error) {
	rt, err := s.GetRuntime(ctx, gameID)
	if err != nil {
		return nil, err
	}
	view := rt.View(viewerID)
	return &view, nil
}

// FindOpenGame picks the oldest waiting game at a stake level with a
// free seat, or zero when the lobby should create one.
func (s *Service) FindOpenGame(ctx context.Context, stakeLevelID int64) int64 {
	if s.rdb == nil {
		return 0
	}
	key := buildOpenGamesKey(stakeLevelID)
	ids, err := s.rdb.ZRange(ctx, key, 0, 15).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Log.Warn("open game index read failed", zap.Int64("stakeLevelID", stakeLevelID), zap.Error(err))
		}
		return 0
	}
	for _, idStr := range ids {
		var gameID int64
		if _, err := fmt.Sscan(idStr, &gameID); err != nil {
			continue
		}
		v, ok := s.runtimes.Load(gameID)
		if !ok {
			// Stale index entry, runtime is gone.
			s.rdb.ZRem(ctx, key, idStr)
			continue
		}
		rt := v.(*GameRuntime)
		rt.mu.Lock()
		open := rt.round.Status == StatusWaiting && len(rt.round.Players) < rt.round.MaxSeats
		rt.mu.Unlock()
		if open {
			return gameID
		}
	}
	return 0
}

func (s *Service) deregisterOpenGame(ctx context.Context, gameID int64) {
	if s.rdb == nil {
		return
	}
	var stakeID int64
	var rec model.GameRecord
	if err := s.db.WithContext(ctx).Select("stake_level_id").Limit(1).Find(&rec, gameID).Error; err == nil {
		stakeID = rec.StakeLevelID
	}
	if stakeID == 0 {
		return
	}
	s.rdb.ZRem(ctx, buildOpenGamesKey(stakeID), gameID)
}

// afterLeave cancels an emptied waiting game so it stops taking seats.
func (s *Service) afterLeave(ctx context.Context, rt *GameRuntime, userID int64) {
	if rt.round.Status == StatusWaiting && len(rt.round.Players) == 0 {
		rt.round.Status = StatusCancelled
		rt.round.EndedAt = time.Now()
		rt.saveRecordLocked(ctx)
		s.deregisterOpenGame(ctx, rt.gameID)
		s.dropRuntime(rt.gameID)
		logger.Log.Info("empty waiting game cancelled", zap.Int64("gameID", rt.gameID))
	}
}

func (s *Service) dropRuntime(gameID int64) {
	s.runtimes.Delete(gameID)
}

// saveRecord snapshots the round onto its persisted record.
func (s *Service) saveRecord(ctx context.Context, r *Round) error {
	updates := map[string]interface{}{
		"status":       string(r.Status),
		"pot":          r.Pot,
		"players_json": mustJSON(r.Players),
		"history_json": mustJSON(r.History),
	}
	if !r.StartedAt.IsZero() {
		updates["started_at"] = r.StartedAt
	}
	if !r.EndedAt.IsZero() {
		updates["ended_at"] = r.EndedAt
	}
	return s.db.WithContext(ctx).
		Model(&model.GameRecord{}).
		Where("id = ?", r.ID).
		Updates(updates).Error
}

// debitBet moves a validated bet out of the wallet and books it.
func (s *Service) debitBet(ctx context.Context, userID, gameID, amount int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var wallet model.Wallet
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&wallet).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return appErr.ErrInsufficientBalance
			}
			return err
		}
		if wallet.BalanceAvailable < amount {
			return fmt.Errorf("%w: need %d, have %d", appErr.ErrInsufficientBalance, amount, wallet.BalanceAvailable)
		}

		wallet.BalanceAvailable -= amount
		wallet.UpdatedAt = time.Now()
		if err := tx.Save(&wallet).Error; err != nil {
			return err
		}

		return tx.Create(&model.BillingLog{
			UserID:       userID,
			Type:         "bet",
			Delta:        -amount,
			BalanceAfter: wallet.BalanceAvailable,
			GameID:       &gameID,
			MetaJSON:     mustJSON(map[string]interface{}{"gameId": gameID}),
			CreatedAt:    time.Now(),
		}).Error
	})
}

func (s *Service) loadBalance(ctx context.Context, userID int64) (int64, error) {
	var wallet model.Wallet
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return wallet.BalanceAvailable, nil
}

func maxPlayersDefault() int {
	if config.GlobalConfig != nil && config.GlobalConfig.Game.MaxPlayers > 0 {
		return config.GlobalConfig.Game.MaxPlayers
	}
	return 6
}

func buildOpenGamesKey(stakeLevelID int64) string {
	return fmt.Sprintf("games:open:%d", stakeLevelID)
}
