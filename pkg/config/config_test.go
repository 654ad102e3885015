package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "compliance-portal", cfg.ServiceName)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "compliance_portal", cfg.DB.DBName)
	assert.Equal(t, "disable", cfg.DB.SSLMode)
	assert.Equal(t, time.Hour, cfg.DB.ConnMaxLifetime)
	assert.Equal(t, 24, cfg.JWT.ExpirationHours)
	assert.Equal(t, "compliance_portal", cfg.Metrics.Prefix)

	assert.Equal(t, []string{"insurance@columbia.edu", "riskmanagement@columbia.edu"}, cfg.Notify.Recipients)
	assert.Equal(t, "dev-notification-key", cfg.Notify.APIKey)
	assert.Equal(t, 10*time.Second, cfg.Notify.SendTimeout)

	assert.Equal(t, "https://api.brokermatic.ai/v1", cfg.Brokermatic.BaseURL)
	assert.Equal(t, "mock_webhook_secret", cfg.Brokermatic.WebhookSecret)
	assert.True(t, cfg.Brokermatic.UseMock())

	assert.Equal(t, "noreply@columbia.edu", cfg.Mail.From)
	assert.False(t, cfg.Mail.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_NAME", "compliance_test")
	t.Setenv("NOTIFICATION_RECIPIENTS", "risk@columbia.edu, facilities@columbia.edu")
	t.Setenv("NOTIFICATION_SEND_TIMEOUT", "5s")
	t.Setenv("BROKERMATIC_API_KEY", "bk_live_abc123")
	t.Setenv("EMAIL_SERVICE_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "compliance_test", cfg.DB.DBName)
	assert.Equal(t, []string{"risk@columbia.edu", "facilities@columbia.edu"}, cfg.Notify.Recipients)
	assert.Equal(t, 5*time.Second, cfg.Notify.SendTimeout)
	assert.False(t, cfg.Brokermatic.UseMock())
	assert.True(t, cfg.Mail.Enabled)
}

func TestMockKeyUsesMockClient(t *testing.T) {
	t.Setenv("BROKERMATIC_API_KEY", "mock_api_key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Brokermatic.UseMock())
}

func TestGetDSN(t *testing.T) {
	db := DBConfig{
		Host:     "db.internal",
		Port:     "5433",
		User:     "portal",
		Password: "secret",
		DBName:   "compliance",
		SSLMode:  "require",
	}
	assert.Equal(t,
		"host=db.internal port=5433 user=portal password=secret dbname=compliance sslmode=require",
		db.GetDSN())
}
