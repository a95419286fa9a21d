package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"APP_PORT", "DB_DRIVER", "REPORT_TIMEZONE", "ARCHIVE_BACKEND", "REPORT_CURRENCY_SYMBOL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8010", cfg.Port)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, "UTC", cfg.Report.Location.String())
	assert.Equal(t, "$", cfg.Report.CurrencySymbol)
	assert.Equal(t, "", cfg.Archive.Backend)
	assert.Equal(t, 1440, cfg.Report.HistoryTTLMinutes)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/registry.db")
	t.Setenv("REPORT_TIMEZONE", "Pacific/Fiji")
	t.Setenv("REPORT_CURRENCY_SYMBOL", "FJ$")
	t.Setenv("ARCHIVE_BACKEND", "S3")
	t.Setenv("S3_USE_SSL", "true")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/registry.db", cfg.Database.SQLitePath)
	assert.Equal(t, "Pacific/Fiji", cfg.Report.Location.String())
	assert.Equal(t, "FJ$", cfg.Report.CurrencySymbol)
	assert.Equal(t, "s3", cfg.Archive.Backend)
	assert.True(t, cfg.Archive.S3.UseSSL)
}
