package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string `mapstructure:"mode"`
	Port       int    `mapstructure:"port"`
	StaticPath string `mapstructure:"static_path"`
	Secret     string `mapstructure:"secret"`
	LogLevel   string `mapstructure:"log_level"`

	// Voice API account and the number callers dial
	AccountID   string `mapstructure:"account_id"`
	PhoneNumber string `mapstructure:"phone_number"`
	// LiveKit SIP endpoint calls are transferred to, e.g.
	// sip:<project>.sip.livekit.cloud. The conference name is put in the
	// user part, so the inbound trunk needs a callee dispatch rule.
	SipURI string `mapstructure:"sip_uri"`

	// RTC vendor credentials
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	RTCURL   string        `mapstructure:"rtc_url"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`

	SubscribeTimeout    time.Duration `mapstructure:"subscribe_timeout"`
	MaxParticipants     int           `mapstructure:"max_participants"`
	IncomingCallLimit   int           `mapstructure:"incoming_call_limit"`
	IncomingCallWindow  time.Duration `mapstructure:"incoming_call_window"`
	SyncInterval        time.Duration `mapstructure:"sync_interval"`
	StaleParticipantTTL time.Duration `mapstructure:"stale_participant_ttl"`

	OtelEnabled  bool   `mapstructure:"otel_enabled"`
	OtelEndpoint string `mapstructure:"otel_endpoint"`
}

// MissingError lists required settings that were not provided.
type MissingError struct {
	Vars []string
}

func (e *MissingError) Error() string {
	return "please set the " + strings.Join(e.Vars, ", ") + " environment variables before running this app"
}

var required = []string{"account_id", "username", "password", "phone_number", "rtc_url", "sip_uri"}

var envNames = map[string]string{
	"mode":                  "MODE",
	"port":                  "PORT",
	"static_path":           "STATIC_PATH",
	"secret":                "SECRET",
	"log_level":             "LOG_LEVEL",
	"account_id":            "ACCOUNT_ID",
	"phone_number":          "PHONE_NUMBER",
	"sip_uri":               "SIP_URI",
	"username":              "USERNAME",
	"password":              "PASSWORD",
	"rtc_url":               "RTC_URL",
	"token_ttl":             "TOKEN_TTL",
	"subscribe_timeout":     "SUBSCRIBE_TIMEOUT",
	"max_participants":      "MAX_PARTICIPANTS",
	"incoming_call_limit":   "INCOMING_CALL_LIMIT",
	"incoming_call_window":  "INCOMING_CALL_WINDOW",
	"sync_interval":         "SYNC_INTERVAL",
	"stale_participant_ttl": "STALE_PARTICIPANT_TTL",
	"otel_enabled":          "OTEL_ENABLED",
	"otel_endpoint":         "OTEL_EXPORTER_OTLP_ENDPOINT",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 5000)
	v.SetDefault("static_path", "./web")
	v.SetDefault("log_level", "info")
	v.SetDefault("token_ttl", "6h")
	v.SetDefault("subscribe_timeout", "5s")
	v.SetDefault("max_participants", 0)
	v.SetDefault("incoming_call_limit", 5)
	v.SetDefault("incoming_call_window", "1m")
	v.SetDefault("sync_interval", "30s")
	v.SetDefault("stale_participant_ttl", "10m")
	v.SetDefault("otel_enabled", false)

	for key, name := range envNames {
		if err := v.BindEnv(key, name); err != nil {
			return nil, fmt.Errorf("bind %s: %w", name, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		log.Debug().Str("module", "config").Str("file", fileName).Msg("config file not found, using env and defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Secret == "" {
		// cookies (and with them client tokens) do not survive a restart
		key := securecookie.GenerateRandomKey(32)
		if key == nil {
			return nil, errors.New("generate cookie secret")
		}
		cfg.Secret = string(key)
		log.Warn().Str("module", "config").Msg("SECRET not set, using a random cookie secret")
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("static", cfg.StaticPath).Msg("config ready")
	return &cfg, nil
}

// Validate reports every required setting that is empty.
func (c *Config) Validate() error {
	values := map[string]string{
		"account_id":   c.AccountID,
		"username":     c.Username,
		"password":     c.Password,
		"phone_number": c.PhoneNumber,
		"rtc_url":      c.RTCURL,
		"sip_uri":      c.SipURI,
	}
	var missing []string
	for _, key := range required {
		if strings.TrimSpace(values[key]) == "" {
			missing = append(missing, envNames[key])
		}
	}
	if len(missing) > 0 {
		return &MissingError{Vars: missing}
	}
	if !strings.HasPrefix(c.SipURI, "sip:") && !strings.HasPrefix(c.SipURI, "sips:") {
		return fmt.Errorf("SIP_URI must be a sip: or sips: URI, got %q", c.SipURI)
	}
	if c.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
