package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DB       DBConfig
	Telegram TelegramConfig
	API      APIConfig
	UI       UIConfig
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type TelegramConfig struct {
	Token string
}

type APIConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

type UIConfig struct {
	// Seconds the order-confirmation screen stays up before the bot
	// returns the user to the menu.
	ConfirmRedirectSeconds int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	timeout, _ := strconv.Atoi(getEnv("HTTP_TIMEOUT_SECONDS", "30"))
	redirect, _ := strconv.Atoi(getEnv("CONFIRM_REDIRECT_SECONDS", "4"))

	return &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", ""),
			Port:     port,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "shiv"),
		},
		Telegram: TelegramConfig{
			Token: getEnv("TOKEN", ""),
		},
		API: APIConfig{
			BaseURL:        getEnv("API_BASE_URL", "https://shiv-fast-food-backend-wuq9.onrender.com/api/v1"),
			TimeoutSeconds: timeout,
		},
		UI: UIConfig{
			ConfirmRedirectSeconds: redirect,
		},
	}, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
