package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("ACCOUNT_ID", "9900001")
	t.Setenv("USERNAME", "APIkey")
	t.Setenv("PASSWORD", "secret")
	t.Setenv("PHONE_NUMBER", "+19195551234")
	t.Setenv("RTC_URL", "http://localhost:7880")
	t.Setenv("SIP_URI", "sip:voicebridge.sip.livekit.cloud")
	t.Setenv("SECRET", "")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("CONFIG_ENV", "test-none")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9900001", cfg.AccountID)
	assert.Equal(t, "APIkey", cfg.Username)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, ":5000", cfg.Addr())
	assert.Equal(t, "sip:voicebridge.sip.livekit.cloud", cfg.SipURI)
	assert.Equal(t, 6*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 5*time.Second, cfg.SubscribeTimeout)
	assert.Equal(t, 0, cfg.MaxParticipants)
	assert.Equal(t, 5, cfg.IncomingCallLimit)
	assert.Equal(t, time.Minute, cfg.IncomingCallWindow)
	assert.False(t, cfg.OtelEnabled)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("CONFIG_ENV", "test-none")
	t.Setenv("PORT", "8080")
	t.Setenv("SUBSCRIBE_TIMEOUT", "2s")
	t.Setenv("MAX_PARTICIPANTS", "4")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://otel:4318")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.SubscribeTimeout)
	assert.Equal(t, 4, cfg.MaxParticipants)
	assert.True(t, cfg.OtelEnabled)
	assert.Equal(t, "http://otel:4318", cfg.OtelEndpoint)
}

func TestLoadMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("CONFIG_ENV", "test-none")
	t.Setenv("ACCOUNT_ID", "")
	t.Setenv("PASSWORD", "")
	t.Setenv("SIP_URI", "")

	_, err := Load()
	require.Error(t, err)

	var missing *MissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"ACCOUNT_ID", "PASSWORD", "SIP_URI"}, missing.Vars)
	assert.Contains(t, err.Error(), "ACCOUNT_ID, PASSWORD, SIP_URI")
}

func TestLoadRejectsNonSipURI(t *testing.T) {
	setRequired(t)
	t.Setenv("CONFIG_ENV", "test-none")
	t.Setenv("SIP_URI", "https://voicebridge.sip.livekit.cloud")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SIP_URI")
}

func TestLoadCookieSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("CONFIG_ENV", "test-none")

	first, err := Load()
	require.NoError(t, err)
	second, err := Load()
	require.NoError(t, err)
	assert.Len(t, first.Secret, 32)
	assert.NotEqual(t, first.Secret, second.Secret)

	t.Setenv("SECRET", "from-env")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Secret)
}
