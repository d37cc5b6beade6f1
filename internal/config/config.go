// Package config provides configuration management for the Bowl Mania toolkit.
package config

import "time"

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app" validate:"required"`
	CFBD     CFBDConfig     `mapstructure:"cfbd" validate:"required"`
	Model    ModelConfig    `mapstructure:"model" validate:"required"`
	Betting  BettingConfig  `mapstructure:"betting" validate:"required"`
	Metrics  MetricsConfig  `mapstructure:"metrics" validate:"required"`
	Schedule ScheduleConfig `mapstructure:"schedule" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// CFBDConfig represents CollegeFootballData API configuration
type CFBDConfig struct {
	BaseURL         string `mapstructure:"base_url" validate:"required,url"`
	APIKey          string `mapstructure:"api_key"`
	CacheDir        string `mapstructure:"cache_dir" validate:"required"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries      int    `mapstructure:"max_retries" validate:"gte=0"`
	RateLimit       float64 `mapstructure:"rate_limit" validate:"required,gt=0"`
	CacheTTLMinutes int    `mapstructure:"cache_ttl_minutes" validate:"required,gt=0"`
	Years           []int  `mapstructure:"years" validate:"required,min=1,seasons"`
	SecretName      string `mapstructure:"secret_name"`
	SecretRegion    string `mapstructure:"secret_region"`
}

// ModelConfig represents regression model configuration
type ModelConfig struct {
	Kind         string  `mapstructure:"kind" validate:"required,oneof=point bayesian"`
	Normalize    bool    `mapstructure:"normalize"`
	SpreadStd    float64 `mapstructure:"spread_std" validate:"required,gt=0"`
	Hierarchical bool    `mapstructure:"hierarchical"`
	Draws        int     `mapstructure:"draws" validate:"required,gt=0"`
	Tune         int     `mapstructure:"tune" validate:"required,gt=0"`
	Chains       int     `mapstructure:"chains" validate:"required,gt=0"`
	ProposalStd  float64 `mapstructure:"proposal_std" validate:"gte=0"`
	Seed         uint64  `mapstructure:"seed"`
	OutputDir    string  `mapstructure:"output_dir" validate:"required"`
}

// BettingConfig represents bet simulation configuration
type BettingConfig struct {
	Threshold    float64 `mapstructure:"threshold" validate:"required,gt=0,lte=1"`
	BetSize      float64 `mapstructure:"bet_size" validate:"required,gt=0"`
	TestFraction float64 `mapstructure:"test_fraction" validate:"required,gt=0,lt=1"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// ScheduleConfig represents cache refresh scheduling
type ScheduleConfig struct {
	RefreshCron string `mapstructure:"refresh_cron" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// HTTPTimeout returns the CFBD request timeout as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.CFBD.TimeoutSeconds) * time.Second
}

// CacheTTL returns the in-memory response cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CFBD.CacheTTLMinutes) * time.Minute
}
