package repo

import (
	"log"

	"teenpatti-service/internal/config"
	"teenpatti-service/internal/model"
	"teenpatti-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB() {
	dsn := config.GlobalConfig.Database.DSN
	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Log.Fatal("Failed to connect to database",
			zap.Error(err),
		)
	}

	models := []interface{}{
		&model.User{},
		&model.Wallet{},
		&model.BillingLog{},
		&model.StakeLevel{},
		&model.GameRecord{},
	}

	if err := DB.AutoMigrate(models...); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
}
