package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

type DatabaseConfig struct {
	Driver     string
	SQLitePath string
	Postgres   PostgresConfig
}

type PostgresConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
}

type RedisConfig struct {
	Enabled     bool
	URL         string
	Addr        string
	Password    string
	DB          int
	MaxRetries  int
	PoolSize    int
	DialTimeout int
	Timeout     int
	Prefix      string
}

type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
	Prefix          string
	URLTTLMinutes   int
}

type ReportConfig struct {
	CurrencySymbol    string
	Location          *time.Location
	HistoryTTLMinutes int
}

// ArchiveConfig selects where generated files are kept: "" (nowhere),
// "local" or "s3".
type ArchiveConfig struct {
	Backend           string
	ExportDir         string
	FilesPublicPrefix string
	ExternalURL       string
	S3                S3Config
}

type AppConfig struct {
	Port      string
	AppName   string
	LogLevel  string
	JWTSecret string
	Database  DatabaseConfig
	Redis     RedisConfig
	Report    ReportConfig
	Archive   ArchiveConfig
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int value %q: %v", s, err)
	}
	return i
}

func mustBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		log.Fatalf("invalid bool value %q: %v", s, err)
	}
	return b
}

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Fatalf("invalid timezone %q: %v", name, err)
	}
	return loc
}

func Load() AppConfig {
	return AppConfig{
		Port:      getenv("APP_PORT", "8010"),
		AppName:   getenv("APP_NAME", "registry"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		JWTSecret: getenv("JWT_SECRET", ""),
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getenv("DB_DRIVER", "pgx")),
			SQLitePath: getenv("SQLITE_PATH", "registry.db"),
			Postgres: PostgresConfig{
				Host:         getenv("PG_HOST", "127.0.0.1"),
				Port:         mustAtoi(getenv("PG_PORT", "5432")),
				User:         getenv("PG_USER", "registry"),
				Password:     getenv("PG_PASSWORD", ""),
				DBName:       getenv("PG_DB", "registry"),
				SSLMode:      getenv("PG_SSLMODE", "disable"),
				MaxOpenConns: mustAtoi(getenv("PG_MAX_OPEN_CONNS", "10")),
			},
		},
		Redis: RedisConfig{
			Enabled:     mustBool(getenv("REDIS_ENABLED", "true")),
			URL:         getenv("REDIS_URL", ""),
			Addr:        getenv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:    getenv("REDIS_PASSWORD", ""),
			DB:          mustAtoi(getenv("REDIS_DB", "0")),
			MaxRetries:  mustAtoi(getenv("REDIS_MAX_RETRIES", "5")),
			PoolSize:    mustAtoi(getenv("REDIS_POOL_SIZE", "10")),
			DialTimeout: mustAtoi(getenv("REDIS_DIAL_TIMEOUT", "10")),
			Timeout:     mustAtoi(getenv("REDIS_TIMEOUT", "5")),
			Prefix:      getenv("REDIS_PREFIX", "registry_report:"),
		},
		Report: ReportConfig{
			CurrencySymbol:    getenv("REPORT_CURRENCY_SYMBOL", "$"),
			Location:          mustLocation(getenv("REPORT_TIMEZONE", "UTC")),
			HistoryTTLMinutes: mustAtoi(getenv("REPORT_HISTORY_TTL_MINUTES", "1440")),
		},
		Archive: ArchiveConfig{
			Backend:           strings.ToLower(getenv("ARCHIVE_BACKEND", "")),
			ExportDir:         getenv("EXPORT_DIR", "./exports"),
			FilesPublicPrefix: getenv("FILES_PUBLIC_PREFIX", "/files"),
			ExternalURL:       getenv("EXTERNAL_URL", ""),
			S3: S3Config{
				Endpoint:        getenv("S3_ENDPOINT", "localhost:9000"),
				AccessKeyID:     getenv("S3_ACCESS_KEY", ""),
				SecretAccessKey: getenv("S3_SECRET_KEY", ""),
				Bucket:          getenv("S3_BUCKET", "reports"),
				Region:          getenv("S3_REGION", "us-east-1"),
				UseSSL:          mustBool(getenv("S3_USE_SSL", "false")),
				Prefix:          getenv("S3_PREFIX", "reports/"),
				URLTTLMinutes:   mustAtoi(getenv("S3_URL_TTL_MINUTES", "30")),
			},
		},
	}
}
