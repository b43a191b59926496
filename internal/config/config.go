package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/verent/callsig/internal/domain"
)

type Config struct {
	ServerURL    string `mapstructure:"server_url"`
	Token        string `mapstructure:"token"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	CallerName   string `mapstructure:"caller_name"`
	CallerNumber string `mapstructure:"caller_number"`
	Ringtone     string `mapstructure:"ringtone"`
	RingbackTone string `mapstructure:"ringback_tone"`
	Mode         string `mapstructure:"mode"`
	APIPort      int    `mapstructure:"api_port"`
	APIToken     string `mapstructure:"api_token"`
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

	v.SetEnvPrefix("callsig")
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("api_port", 8320)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults and env")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the server URL and the credential union before any
// network activity. Exactly one of token or user/password must be set.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("%w: server_url is required", domain.ErrConfigInvalid)
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return fmt.Errorf("%w: server_url must be a ws:// or wss:// URL", domain.ErrConfigInvalid)
	}
	hasToken := c.Token != ""
	hasPassword := c.User != "" || c.Password != ""
	switch {
	case hasToken && hasPassword:
		return fmt.Errorf("%w: token and user/password are mutually exclusive", domain.ErrConfigInvalid)
	case !hasToken && !hasPassword:
		return fmt.Errorf("%w: either token or user/password is required", domain.ErrConfigInvalid)
	case hasPassword && (c.User == "" || c.Password == ""):
		return fmt.Errorf("%w: user and password must both be set", domain.ErrConfigInvalid)
	}
	return nil
}

// Credential returns the configured login identity. Call Validate first.
func (c *Config) Credential() domain.Credential {
	if c.Token != "" {
		return domain.TokenAuth{Token: c.Token}
	}
	return domain.PasswordAuth{User: c.User, Password: c.Password}
}
