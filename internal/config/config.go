// Package config reads the process configuration from the environment.
package config

import (
	"os"
	"strings"
	"time"

	"go-catalogue-ws/internal/remote"
	"go-catalogue-ws/internal/upload"
	"go-catalogue-ws/pkg/database"
	"go-catalogue-ws/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Row backends selectable through ROW_BACKEND.
const (
	BackendFacade   = "facade"
	BackendSheets   = "sheets"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendNone     = "none"
)

type Config struct {
	Port          string
	Log           logger.Config
	RowBackend    string
	Facade        remote.FacadeConfig
	Sheets        remote.SheetsConfig
	Database      database.Config
	SQLitePath    string
	RedisAddr     string
	CacheTTL      time.Duration
	ImageKit      upload.ImageKitConfig
	SnowflakeNode int64
	ResolveWait   time.Duration
	AdminEmail    string
	AdminPassword string
}

// LoadEnv loads .env into the process environment when present. The
// error is returned for the caller to log once its logger exists.
func LoadEnv() error {
	return godotenv.Load()
}

// Load builds the configuration from the environment. Unparseable numbers
// and durations fall back to their defaults.
func Load() Config {
	timeout := durationEnv("HTTP_TIMEOUT", 15*time.Second)
	rateLimit := cast.ToFloat64(os.Getenv("ROW_RATE_LIMIT"))

	cfg := Config{
		Port: envOr("PORT", "3000"),
		Log: logger.Config{
			Level:       envOr("LOG_LEVEL", "info"),
			Development: strings.EqualFold(os.Getenv("APP_ENV"), "development"),
			File:        os.Getenv("LOG_FILE"),
		},
		Facade: remote.FacadeConfig{
			URL:       os.Getenv("ROW_SERVICE_URL"),
			APIKey:    os.Getenv("ROW_SERVICE_KEY"),
			Timeout:   timeout,
			RateLimit: rateLimit,
		},
		Sheets: remote.SheetsConfig{
			SheetID:             os.Getenv("GOOGLE_SHEET_ID"),
			APIKey:              os.Getenv("GOOGLE_SHEETS_API_KEY"),
			ServiceAccountEmail: os.Getenv("GOOGLE_SERVICE_ACCOUNT_EMAIL"),
			PrivateKeyPEM:       os.Getenv("GOOGLE_SERVICE_ACCOUNT_PRIVATE_KEY"),
			Timeout:             timeout,
			RateLimit:           rateLimit,
		},
		Database: database.Config{
			DSN:      os.Getenv("DATABASE_URL"),
			Host:     os.Getenv("DB_HOST"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			Port:     envOr("DB_PORT", "5432"),
			Verbose:  cast.ToBool(os.Getenv("DB_DEBUG")),
		},
		SQLitePath: os.Getenv("SQLITE_PATH"),
		RedisAddr:  os.Getenv("REDIS_ADDR"),
		CacheTTL:   durationEnv("ROW_CACHE_TTL", time.Minute),
		ImageKit: upload.ImageKitConfig{
			PrivateKey:  os.Getenv("IMAGEKIT_PRIVATE_KEY"),
			PublicKey:   os.Getenv("IMAGEKIT_PUBLIC_KEY"),
			URLEndpoint: os.Getenv("IMAGEKIT_URL_ENDPOINT"),
			Timeout:     timeout,
		},
		SnowflakeNode: cast.ToInt64(os.Getenv("SNOWFLAKE_NODE")),
		ResolveWait:   durationEnv("IDENTITY_RESOLVE_WAIT", 3*time.Second),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}
	cfg.RowBackend = cfg.detectBackend(strings.ToLower(strings.TrimSpace(os.Getenv("ROW_BACKEND"))))
	return cfg
}

// detectBackend honours an explicit ROW_BACKEND, otherwise picks the first
// backend whose credentials are present.
func (c Config) detectBackend(explicit string) string {
	switch explicit {
	case BackendFacade, BackendSheets, BackendPostgres, BackendSQLite, BackendNone:
		return explicit
	}
	switch {
	case c.Facade.URL != "":
		return BackendFacade
	case c.Sheets.SheetID != "":
		return BackendSheets
	case c.Database.DSN != "" || c.Database.Host != "":
		return BackendPostgres
	case c.SQLitePath != "":
		return BackendSQLite
	}
	return BackendNone
}

// Configured reports whether the selected row backend has the credentials
// it needs. An unconfigured process runs in guest mode.
func (c Config) Configured() bool {
	switch c.RowBackend {
	case BackendFacade:
		return c.Facade.URL != ""
	case BackendSheets:
		return c.Sheets.SheetID != "" &&
			(c.Sheets.APIKey != "" || (c.Sheets.ServiceAccountEmail != "" && c.Sheets.PrivateKeyPEM != ""))
	case BackendPostgres:
		return c.Database.DSN != "" || c.Database.Host != ""
	case BackendSQLite:
		return c.SQLitePath != ""
	}
	return false
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// durationEnv accepts Go durations ("15s") and plain seconds ("15").
func durationEnv(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if secs, err := cast.ToInt64E(raw); err == nil {
		if secs <= 0 {
			return def
		}
		return time.Duration(secs) * time.Second
	}
	d, err := cast.ToDurationE(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
