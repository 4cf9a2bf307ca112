package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire int    `mapstructure:"expire"` // hours
}

type GameConfig struct {
	MaxPlayers     int     `mapstructure:"maxPlayers"`
	MinBet         int64   `mapstructure:"minBet"`
	MaxBet         int64   `mapstructure:"maxBet"`
	CommissionRate float64 `mapstructure:"commissionRate"`
	TurnSeconds    int     `mapstructure:"turnSeconds"`
}

var GlobalConfig *Config

func LoadConfig(path string) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	viper.SetDefault("game.maxPlayers", 6)
	viper.SetDefault("game.minBet", 10)
	viper.SetDefault("game.maxBet", 1000)
	viper.SetDefault("game.commissionRate", 0.03)
	viper.SetDefault("game.turnSeconds", 20)

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
	GlobalConfig = &cfg
}
