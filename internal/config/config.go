// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Betting    BettingConfig    `mapstructure:"betting"`
	Conversion ConversionConfig `mapstructure:"conversion"`
	Rewards    RewardsConfig    `mapstructure:"rewards"`
	Settlement SettlementConfig `mapstructure:"settlement"`
}

// ServerConfig holds the public HTTP API configuration.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AdminToken      string        `mapstructure:"admin_token"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// KafkaConfig holds the domain-event publisher configuration.
// Publishing is disabled when Brokers is empty.
type KafkaConfig struct {
	Brokers          string `mapstructure:"brokers"`
	TopicBetPlaced   string `mapstructure:"topic_bet_placed"`
	TopicBetSettled  string `mapstructure:"topic_bet_settled"`
	TopicConversions string `mapstructure:"topic_conversions"`
}

// Enabled reports whether event publishing is configured.
func (k *KafkaConfig) Enabled() bool { return k.Brokers != "" }

// RedisConfig holds the leaderboard cache configuration.
// The cache is disabled when Addr is empty.
type RedisConfig struct {
	Addr           string `mapstructure:"addr"`
	Password       string `mapstructure:"password"`
	DB             int    `mapstructure:"db"`
	LeaderboardKey string `mapstructure:"leaderboard_key"`
}

// Enabled reports whether the redis cache is configured.
func (r *RedisConfig) Enabled() bool { return r.Addr != "" }

// MetricsConfig holds the metrics sidecar server configuration.
type MetricsConfig struct {
	Port int `mapstructure:"port"`
}

// BettingConfig holds placement rules.
type BettingConfig struct {
	MinStakeTokens   float64 `mapstructure:"min_stake_tokens"`
	MinStakeDiamonds float64 `mapstructure:"min_stake_diamonds"`
	BonusRate        float64 `mapstructure:"bonus_rate"`
	MaxComboLegs     int     `mapstructure:"max_combo_legs"`
}

// MinStake returns the minimum stake for the given currency as a decimal.
func (b *BettingConfig) MinStake(diamonds bool) decimal.Decimal {
	if diamonds {
		return decimal.NewFromFloat(b.MinStakeDiamonds)
	}
	return decimal.NewFromFloat(b.MinStakeTokens)
}

// BonusRateDecimal returns the token-profit-to-diamond bonus rate.
func (b *BettingConfig) BonusRateDecimal() decimal.Decimal {
	return decimal.NewFromFloat(b.BonusRate)
}

// ConversionConfig holds the fixed token-to-diamond exchange rule.
type ConversionConfig struct {
	Rate      float64 `mapstructure:"rate"`
	MinTokens float64 `mapstructure:"min_tokens"`
}

// RateDecimal returns the diamonds-per-token rate.
func (c *ConversionConfig) RateDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.Rate)
}

// MinTokensDecimal returns the minimum conversion block size.
func (c *ConversionConfig) MinTokensDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinTokens)
}

// RewardsConfig holds tap-to-earn and referral reward rules.
type RewardsConfig struct {
	TokensPerTap    float64 `mapstructure:"tokens_per_tap"`
	MaxTapsPerDay   int64   `mapstructure:"max_taps_per_day"`
	MaxTapsPerCall  int64   `mapstructure:"max_taps_per_call"`
	ReferralBonus   float64 `mapstructure:"referral_bonus"`
	InitialTokens   float64 `mapstructure:"initial_tokens"`
	InitialDiamonds float64 `mapstructure:"initial_diamonds"`
}

// SettlementConfig holds the settlement sweep schedule.
type SettlementConfig struct {
	SweepEnabled bool   `mapstructure:"sweep_enabled"`
	SweepCron    string `mapstructure:"sweep_cron"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the given directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. DATABASE_HOST, SERVER_PORT, KAFKA_BROKERS.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - env vars can provide all config.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "eazybet")
	v.SetDefault("database.name", "eazybet")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic_bet_placed", "bet_placed")
	v.SetDefault("kafka.topic_bet_settled", "bet_settled")
	v.SetDefault("kafka.topic_conversions", "wallet_conversions")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.leaderboard_key", "leaderboard:diamonds")

	v.SetDefault("metrics.port", 9095)

	v.SetDefault("betting.min_stake_tokens", 10)
	v.SetDefault("betting.min_stake_diamonds", 1)
	v.SetDefault("betting.bonus_rate", 0.01)
	v.SetDefault("betting.max_combo_legs", 10)

	v.SetDefault("conversion.rate", 0.01)
	v.SetDefault("conversion.min_tokens", 100)

	v.SetDefault("rewards.tokens_per_tap", 1)
	v.SetDefault("rewards.max_taps_per_day", 100)
	v.SetDefault("rewards.max_taps_per_call", 10)
	v.SetDefault("rewards.referral_bonus", 10)
	v.SetDefault("rewards.initial_tokens", 1000)
	v.SetDefault("rewards.initial_diamonds", 0)

	v.SetDefault("settlement.sweep_enabled", true)
	v.SetDefault("settlement.sweep_cron", "0 * * * * *")
}
