package service

import (
	"context"

	"teenpatti-service/internal/service/auth"
	"teenpatti-service/internal/service/game"
	"teenpatti-service/internal/service/lobby"
	"teenpatti-service/internal/service/table"
	"teenpatti-service/internal/service/user"
	"teenpatti-service/internal/service/wallet"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Auth   *auth.Service
	User   *user.Service
	Wallet *wallet.Service
	Table  *table.Service
	Game   *game.Service
	Lobby  *lobby.Service
}

func NewContainer(db *gorm.DB, rdb *redis.Client) *Container {
	games := game.NewService(db, rdb)
	tables := table.NewService(db)
	return &Container{
		Auth:   auth.NewService(db, rdb),
		User:   user.NewService(db),
		Wallet: wallet.NewService(db),
		Table:  tables,
		Game:   games,
		Lobby:  lobby.NewService(rdb, games, tables),
	}
}

func (c *Container) Start(ctx context.Context) error {
	return c.Table.EnsureDefaultStake(ctx)
}
