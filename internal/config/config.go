package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"daily-leaderboard/internal/constants"
	"daily-leaderboard/internal/domain"
	"daily-leaderboard/internal/logger"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	DataLocation string
	PeriodKey    string // "YYYY-MM"
	Window       domain.Window
	Timezone     string
	Location     *time.Location
	Currency     domain.Currency
	TopN         int
	ServerPort   string
	LogLevel     string
	DBPath       string
}

func Load(log zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DataLocation: strings.TrimRight(getEnv("DATA_LOCATION", "./data"), "/"),
		Timezone:     getEnv("TIMEZONE", "UTC"),
		Currency: domain.Currency{
			Symbol: getEnv("CURRENCY_SYMBOL", "$"),
			Code:   getEnv("CURRENCY_CODE", "USD"),
		},
		ServerPort: getEnv("SERVER_PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		DBPath:     getEnv("DB_PATH", "leaderboard.db"),
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	cfg.PeriodKey = getEnv("PERIOD_KEY", time.Now().In(loc).Format("2006-01"))
	monthWindow, err := domain.MonthWindow(cfg.PeriodKey)
	if err != nil {
		return nil, fmt.Errorf("invalid PERIOD_KEY: %w", err)
	}

	cfg.Window = domain.Window{
		Start: domain.CalendarDate(getEnv("EVENT_START_DATE", string(monthWindow.Start))),
		End:   domain.CalendarDate(getEnv("EVENT_END_DATE", string(monthWindow.End))),
	}
	if err := cfg.Window.Validate(); err != nil {
		return nil, fmt.Errorf("invalid event window: %w", err)
	}

	cfg.TopN, err = strconv.Atoi(getEnv("TOP_N", strconv.Itoa(constants.DefaultTopN)))
	if err != nil || cfg.TopN <= 0 {
		return nil, fmt.Errorf("TOP_N must be a positive integer")
	}

	level := logger.SetLevel(cfg.LogLevel)

	log.Info().
		Str("data_location", cfg.DataLocation).
		Str("period_key", cfg.PeriodKey).
		Str("window_start", string(cfg.Window.Start)).
		Str("window_end", string(cfg.Window.End)).
		Str("timezone", cfg.Timezone).
		Str("currency", cfg.Currency.Code).
		Int("top_n", cfg.TopN).
		Str("server_port", cfg.ServerPort).
		Str("log_level", level.String()).
		Str("db_path", cfg.DBPath).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
