package model

import (
	"time"

	"gorm.io/datatypes"
)

// Users & wallets

type User struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Phone     string `gorm:"unique;not null"`
	Nickname  string
	Avatar    string
	Status    string `gorm:"default:normal;not null"` // normal/banned
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Wallet struct {
	UserID           int64 `gorm:"primaryKey"`
	BalanceAvailable int64
	TotalWin         int64
	TotalLoss        int64
	TotalCommission  int64
	UpdatedAt        time.Time
}

// BillingLog is the append-only ledger. One row per settlement instruction
// and one per in-round bet; rows are never updated.
type BillingLog struct {
	ID           int64 `gorm:"primaryKey;autoIncrement"`
	UserID       int64
	Type         string // bet/win/lose/commission/adjust
	Delta        int64
	BalanceAfter int64
	GameID       *int64
	MetaJSON     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time
}

// Stakes & games

type StakeLevel struct {
	ID             int64 `gorm:"primaryKey;autoIncrement"`
	Name           string
	SeatCount      int
	MinBet         int64
	MaxBet         int64
	CommissionRate float64 `gorm:"default:0.03"`
	Status         string  `gorm:"default:enabled"` // enabled/disabled
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type GameRecord struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Code         string `gorm:"unique"`
	StakeLevelID int64
	Status       string // waiting/active/completed/cancelled
	Pot          int64
	PlayersJSON  datatypes.JSON `gorm:"type:jsonb"`
	HistoryJSON  datatypes.JSON `gorm:"type:jsonb"`
	ResultJSON   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time
	StartedAt    *time.Time
	EndedAt      *time.Time
	SettledAt    *time.Time
}
