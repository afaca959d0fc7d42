package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_CallLogConfig(t *testing.T) {
	// Setup environment variables
	os.Setenv("CALLLOG_API_URL", "https://calls.example.com")
	os.Setenv("CALLLOG_API_TOKEN", "test-token")
	os.Setenv("CALLLOG_PAGE_SIZE", "50")
	defer func() {
		os.Unsetenv("CALLLOG_API_URL")
		os.Unsetenv("CALLLOG_API_TOKEN")
		os.Unsetenv("CALLLOG_PAGE_SIZE")
	}()

	// Load config
	cfg, err := Load()
	assert.NoError(t, err)

	// Verify call-log config
	assert.Equal(t, "https://calls.example.com", cfg.CallLog.BaseURL)
	assert.Equal(t, "test-token", cfg.CallLog.APIToken)
	assert.Equal(t, 50, cfg.CallLog.PageSize)
}

func TestLoad_Defaults(t *testing.T) {
	// Ensure env vars are cleared
	os.Unsetenv("CALLLOG_API_URL")
	os.Unsetenv("CALLLOG_API_TOKEN")
	os.Unsetenv("PIPELINE_PROCESS_INTERVAL")

	cfg, err := Load()
	assert.NoError(t, err)

	// Verify defaults
	assert.Equal(t, "http://localhost:8055", cfg.CallLog.BaseURL)
	assert.Equal(t, "", cfg.CallLog.APIToken)
	assert.Equal(t, 30*time.Second, cfg.CallLog.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.ProcessInterval)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
}

func TestLoad_PipelineInterval(t *testing.T) {
	os.Setenv("PIPELINE_PROCESS_INTERVAL", "2m")
	defer os.Unsetenv("PIPELINE_PROCESS_INTERVAL")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.Pipeline.ProcessInterval)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "svc",
		Password: "secret",
		Database: "carevoice",
		SSLMode:  "require",
	}
	assert.Equal(t, "host=db port=5433 user=svc password=secret dbname=carevoice sslmode=require", cfg.DatabaseDSN())
}
