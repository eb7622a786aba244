package config

import (
	"testing"
	"time"

	"github.com/example/flashcards/internal/database"
)

func env(vals map[string]string) func(string) string {
	return func(k string) string { return vals[k] }
}

func TestDefaults(t *testing.T) {
	cfg, err := FromEnv(env(nil))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Database.Type != database.TypeSQLite || cfg.Database.DSN != "data/flashcards.db" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if !cfg.SchedulerEnabled {
		t.Error("scheduler disabled by default")
	}
	if cfg.NotificationStartHour != DefaultNotificationStartHour || cfg.NotificationEndHour != DefaultNotificationEndHour {
		t.Errorf("hours = %d-%d", cfg.NotificationStartHour, cfg.NotificationEndHour)
	}
	if cfg.NotificationZone != time.UTC {
		t.Errorf("NotificationZone = %v, want UTC", cfg.NotificationZone)
	}
	if cfg.ShutdownTimeout != 5*time.Second || cfg.HTTPAddr != ":8080" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestOverrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"DB_TYPE":                 "postgres",
		"DATABASE_URL":            "postgres://localhost/flashcards?sslmode=disable",
		"ENABLE_SCHEDULER":        "false",
		"NOTIFICATION_START_HOUR": "6",
		"ADMIN_USER_IDS":          "1, 2,3",
		"REDIS_ADDR":              "localhost:6379",
		"REDIS_CACHE_TTL":         "24h",
		"NOTIFICATION_TIMEZONE":   "Europe/Berlin",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Database.Type != database.TypePostgres || cfg.Database.DSN == "" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.SchedulerEnabled || cfg.NotificationStartHour != 6 {
		t.Errorf("scheduler settings = %v %d", cfg.SchedulerEnabled, cfg.NotificationStartHour)
	}
	if len(cfg.AdminUserIDs) != 3 || cfg.AdminUserIDs[1] != 2 {
		t.Errorf("AdminUserIDs = %v", cfg.AdminUserIDs)
	}
	if cfg.NotificationZone == nil || cfg.NotificationZone.String() != "Europe/Berlin" {
		t.Errorf("NotificationZone = %v", cfg.NotificationZone)
	}
	if cfg.RedisCacheTTL != 24*time.Hour {
		t.Errorf("RedisCacheTTL = %v", cfg.RedisCacheTTL)
	}
}

func TestInvalidValues(t *testing.T) {
	cases := []map[string]string{
		{"DB_TYPE": "postgres"},
		{"DB_TYPE": "mysql"},
		{"NOTIFICATION_END_HOUR": "25"},
		{"SHUTDOWN_TIMEOUT": "soon"},
		{"ADMIN_USER_IDS": "1,x"},
		{"NOTIFICATION_TIMEZONE": "Mars/Olympus_Mons"},
	}
	for _, c := range cases {
		if _, err := FromEnv(env(c)); err == nil {
			t.Errorf("FromEnv(%v) succeeded", c)
		}
	}
}
