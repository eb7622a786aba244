package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // NOTIFICATION_TIMEZONE must resolve on hosts without a zone database

	"github.com/joho/godotenv"

	"github.com/example/flashcards/internal/database"
)

// Default reminder window, overridable with NOTIFICATION_START_HOUR / NOTIFICATION_END_HOUR
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// Config holds the settings of the whole application
type Config struct {
	Database database.Config

	RedisAddr     string // empty disables the progress cache
	RedisCacheTTL time.Duration

	HTTPAddr        string // empty disables the review API
	ShutdownTimeout time.Duration

	TelegramToken string // empty disables the bot
	AdminUserIDs  []int64

	SchedulerEnabled      bool
	NotificationStartHour int
	NotificationEndHour   int
	NotificationZone      *time.Location // zone of notification hours, UTC by default

	LogMode  string
	SeedFile string // optional deck file imported on startup
	SeedDeck string
}

// Load reads the configuration from the environment, after loading .env if present
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a lookup function
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(k, fallback string) string {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		Database: database.Config{
			Type: get("DB_TYPE", database.TypeSQLite),
		},
		RedisAddr:     get("REDIS_ADDR", ""),
		HTTPAddr:      get("HTTP_ADDR", ":8080"),
		TelegramToken: get("TELEGRAM_BOT_TOKEN", ""),
		LogMode:       get("LOG_MODE", "development"),
		SeedFile:      get("SEED_FILE", ""),
		SeedDeck:      get("SEED_DECK", "General"),

		SchedulerEnabled: get("ENABLE_SCHEDULER", "true") != "false",
	}

	switch cfg.Database.Type {
	case database.TypePostgres:
		cfg.Database.DSN = get("DATABASE_URL", "")
		if cfg.Database.DSN == "" {
			return nil, fmt.Errorf("config: DATABASE_URL is required when DB_TYPE=postgres")
		}
	case database.TypeSQLite:
		cfg.Database.DSN = get("SQLITE_PATH", "data/flashcards.db")
	default:
		return nil, fmt.Errorf("config: unsupported DB_TYPE %q", cfg.Database.Type)
	}

	var err error
	if cfg.RedisCacheTTL, err = parseDuration(get("REDIS_CACHE_TTL", "0s"), "REDIS_CACHE_TTL"); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = parseDuration(get("SHUTDOWN_TIMEOUT", "5s"), "SHUTDOWN_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.NotificationStartHour, err = parseHour(get("NOTIFICATION_START_HOUR", ""), DefaultNotificationStartHour, "NOTIFICATION_START_HOUR"); err != nil {
		return nil, err
	}
	if cfg.NotificationEndHour, err = parseHour(get("NOTIFICATION_END_HOUR", ""), DefaultNotificationEndHour, "NOTIFICATION_END_HOUR"); err != nil {
		return nil, err
	}
	if cfg.NotificationZone, err = parseLocation(get("NOTIFICATION_TIMEZONE", "UTC")); err != nil {
		return nil, err
	}
	if cfg.AdminUserIDs, err = parseIDs(get("ADMIN_USER_IDS", "")); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseDuration(v, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not a valid duration: %w", key, v, err)
	}
	return d, nil
}

func parseHour(v string, fallback int, key string) (int, error) {
	if v == "" {
		return fallback, nil
	}
	h, err := strconv.Atoi(v)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("config: %s=%q must be an hour between 0 and 23", key, v)
	}
	return h, nil
}

func parseLocation(v string) (*time.Location, error) {
	loc, err := time.LoadLocation(v)
	if err != nil {
		return nil, fmt.Errorf("config: NOTIFICATION_TIMEZONE=%q is not a known time zone: %w", v, err)
	}
	return loc, nil
}

func parseIDs(v string) ([]int64, error) {
	if v == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(v, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("config: invalid admin user ID %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
