package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	ListenAddr             string `mapstructure:"LISTEN_ADDR"`
	DatabaseURL            string `mapstructure:"DATABASE_URL"`
	JWTSecret              string `mapstructure:"JWT_SECRET"`
	UserServiceURL         string `mapstructure:"USER_SERVICE_URL"`
	NotificationServiceURL string `mapstructure:"NOTIFICATION_SERVICE_URL"`
	RedisAddr              string `mapstructure:"REDIS_ADDR"`
	RedisPassword          string `mapstructure:"REDIS_PASSWORD"`
}

var AppConfig *Config

// LoadConfig loads the configuration from a .env file and environment variables.
func LoadConfig() {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.SetDefault("LISTEN_ADDR", ":8080")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("Warning: .env file not found, loading from environment variables")
	}

	err := viper.Unmarshal(&AppConfig)
	if err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
}
