package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Auction AuctionConfig `mapstructure:"auction"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Events  EventsConfig  `mapstructure:"events"`
}

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Seed            bool          `mapstructure:"seed"`
}

// LogConfig controls logrus
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// AuctionConfig holds bidding rules
type AuctionConfig struct {
	DefaultDuration  time.Duration `mapstructure:"default_duration"`
	SuggestedRaise   float64       `mapstructure:"suggested_raise"`
	CountdownRefresh time.Duration `mapstructure:"countdown_refresh"`
}

// AuthConfig holds session and otp settings
type AuthConfig struct {
	OTPTTL       time.Duration `mapstructure:"otp_ttl"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
}

// UploadConfig holds image upload settings
type UploadConfig struct {
	Dir           string `mapstructure:"dir"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	MaxBytes      int64  `mapstructure:"max_bytes"`
}

// EventsConfig selects the bid event broker. An empty NATSURL disables publishing.
type EventsConfig struct {
	NATSURL string `mapstructure:"nats_url"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ShutdownTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Auction: AuctionConfig{
			DefaultDuration:  7 * 24 * time.Hour,
			SuggestedRaise:   5,
			CountdownRefresh: time.Second,
		},
		Auth: AuthConfig{
			OTPTTL:     10 * time.Minute,
			SessionTTL: 24 * time.Hour,
		},
		Upload: UploadConfig{
			Dir:           "uploads",
			PublicBaseURL: "http://localhost:8080",
			MaxBytes:      5 << 20,
		},
	}
}

// SetDefaults registers every default with viper so env vars and config files can override them
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("server.shutdown_timeout", defaults.Server.ShutdownTimeout)
	v.SetDefault("server.seed", defaults.Server.Seed)

	v.SetDefault("log.level", defaults.Log.Level)

	v.SetDefault("auction.default_duration", defaults.Auction.DefaultDuration)
	v.SetDefault("auction.suggested_raise", defaults.Auction.SuggestedRaise)
	v.SetDefault("auction.countdown_refresh", defaults.Auction.CountdownRefresh)

	v.SetDefault("auth.otp_ttl", defaults.Auth.OTPTTL)
	v.SetDefault("auth.session_ttl", defaults.Auth.SessionTTL)
	v.SetDefault("auth.cookie_secure", defaults.Auth.CookieSecure)

	v.SetDefault("upload.dir", defaults.Upload.Dir)
	v.SetDefault("upload.public_base_url", defaults.Upload.PublicBaseURL)
	v.SetDefault("upload.max_bytes", defaults.Upload.MaxBytes)

	v.SetDefault("events.nats_url", defaults.Events.NATSURL)
}

// New returns a viper instance wired for defaults, an optional config file and
// environment variables such as SERVER_PORT or EVENTS_NATS_URL.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// PORT is honoured for platforms that inject it
	if err := v.BindEnv("server.port", "SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("bind port env: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}
	return v, nil
}

// Load unmarshals the viper state into a Config and validates it
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("config: server.port must be set")
	}
	if c.Auction.DefaultDuration <= 0 {
		return fmt.Errorf("config: auction.default_duration must be positive")
	}
	if c.Auction.SuggestedRaise < 0 {
		return fmt.Errorf("config: auction.suggested_raise must not be negative")
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("config: upload.max_bytes must be positive")
	}
	return nil
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%s", strings.TrimPrefix(c.Server.Port, ":"))
}
