package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port           int      `mapstructure:"port"`
	DatabasePath   string   `mapstructure:"database_path"`
	LogLevel       string   `mapstructure:"log_level"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	DevMode        bool     `mapstructure:"dev_mode"` // error responses carry detail; never enable in production

	AuthJWTSecret string `mapstructure:"auth_jwt_secret"` // HS256 secret for bearer tokens
	CSRFSecret    string `mapstructure:"csrf_secret"`     // HMAC secret for CSRF tokens
	CSRFTTLSec    int    `mapstructure:"csrf_ttl_sec"`    // CSRF token lifetime; default 1h

	RateLimitWindowSec   int    `mapstructure:"rate_limit_window_sec"` // window size; default 60s
	RateLimitAPIPerWin   int    `mapstructure:"rate_limit_api"`        // public API quota per window
	RateLimitAdminPerWin int    `mapstructure:"rate_limit_admin"`      // admin API quota per window
	RateLimitBulkPerWin  int    `mapstructure:"rate_limit_admin_bulk"` // bulk admin quota per window
	RateLimitFailOpen    bool   `mapstructure:"rate_limit_fail_open"`  // admit when the distributed store is down; admin classes always fail closed
	RedisAddr            string `mapstructure:"redis_addr"`            // empty = in-process store
	RedisPassword        string `mapstructure:"redis_password"`
	RedisDB              int    `mapstructure:"redis_db"`
	StoreTimeoutMs       int    `mapstructure:"store_timeout_ms"` // bound on distributed store calls

	RequestTimeoutSec  int `mapstructure:"request_timeout_sec"`
	ShutdownTimeoutSec int `mapstructure:"shutdown_timeout_sec"`
	AuthTimeoutSec     int `mapstructure:"auth_timeout_sec"` // bound on principal lookup
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/benefits/")
	viper.AddConfigPath("$HOME/.benefits")
	viper.AddConfigPath(".")

	// Defaults
	viper.SetDefault("port", 8080)
	viper.SetDefault("database_path", "./benefits.db")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("allowed_origins", []string{"*"})
	viper.SetDefault("dev_mode", false)
	viper.SetDefault("auth_jwt_secret", "")
	viper.SetDefault("csrf_secret", "")
	viper.SetDefault("csrf_ttl_sec", 3600)
	viper.SetDefault("rate_limit_window_sec", 60)
	viper.SetDefault("rate_limit_api", 60)
	viper.SetDefault("rate_limit_admin", 30)
	viper.SetDefault("rate_limit_admin_bulk", 10)
	viper.SetDefault("rate_limit_fail_open", false)
	viper.SetDefault("redis_addr", "")
	viper.SetDefault("redis_password", "")
	viper.SetDefault("redis_db", 0)
	viper.SetDefault("store_timeout_ms", 500)
	viper.SetDefault("request_timeout_sec", 30)
	viper.SetDefault("shutdown_timeout_sec", 15)
	viper.SetDefault("auth_timeout_sec", 5)

	// Environment variables
	viper.SetEnvPrefix("BENEFITS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; using defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
