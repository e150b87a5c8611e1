package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Env            string   `mapstructure:"ENV"`
	ContentDir     string   `mapstructure:"CONTENT_DIR"`
	TickSeconds    int      `mapstructure:"TICK_INTERVAL_SECONDS"`
	DatabaseURL    string   `mapstructure:"DATABASE_URL"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST"`
	DebriefFont    string   `mapstructure:"DEBRIEF_FONT"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("CONTENT_DIR", "./content")
	v.SetDefault("TICK_INTERVAL_SECONDS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("CONTENT_DIR")
	v.BindEnv("TICK_INTERVAL_SECONDS")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("DEBRIEF_FONT")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// TickInterval returns the simulation tick period. Values below one
// second are treated as misconfiguration and fall back to the default.
func (c *Config) TickInterval() time.Duration {
	if c.TickSeconds < 1 {
		return 5 * time.Second
	}
	return time.Duration(c.TickSeconds) * time.Second
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if c.ContentDir == "" {
		return fmt.Errorf("CONTENT_DIR is required")
	}
	if c.TickSeconds < 0 {
		return fmt.Errorf("TICK_INTERVAL_SECONDS must not be negative, got %d", c.TickSeconds)
	}
	return nil
}
