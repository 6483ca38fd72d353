package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Roles    RolesConfig    `mapstructure:"roles"`
	Economy  EconomyConfig  `mapstructure:"economy"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Stream   string `mapstructure:"stream"` // domain event stream key
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

// RolesConfig seeds the privileged role-holders on first boot. After that the
// role table is authoritative and these values are ignored.
type RolesConfig struct {
	CEO   string `mapstructure:"ceo"`
	CFO   string `mapstructure:"cfo"`
	COO   string `mapstructure:"coo"`
	Owner string `mapstructure:"owner"`
}

// Validate rejects an incomplete role set. Every privileged address must be
// assigned before boot; an empty address can never authenticate, which would
// leave that role permanently unusable.
func (r RolesConfig) Validate() error {
	roles := []struct {
		key  string
		addr string
	}{
		{"roles.ceo", r.CEO},
		{"roles.cfo", r.CFO},
		{"roles.coo", r.COO},
		{"roles.owner", r.Owner},
	}
	for _, role := range roles {
		if role.addr == "" {
			return fmt.Errorf("%s must be set", role.key)
		}
	}
	return nil
}

// EconomyConfig seeds the knob table on first boot.
type EconomyConfig struct {
	PackPrice       int64 `mapstructure:"pack_price"`
	CardsPerPack    int   `mapstructure:"cards_per_pack"`
	SeasonPackLimit int64 `mapstructure:"season_pack_limit"` // negative = unlimited
	MaxCardTypes    int   `mapstructure:"max_card_types"`
	AscendPrice     int64 `mapstructure:"ascend_price"`
	TransmogrifyFee int64 `mapstructure:"transmogrify_fee"`
	OwnerCutBps     int   `mapstructure:"owner_cut_bps"`
	RewardThreshold int64 `mapstructure:"reward_threshold"`
	RewardUnit      int64 `mapstructure:"reward_unit"`
	PackPriceDrem   int64 `mapstructure:"pack_price_drem"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: CCX_ (Collectible Card
// Exchange). Nested keys use underscore: CCX_DATABASE_HOST, CCX_JWT_SECRET, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "card_exchange")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "card-events")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "card-exchange")
	v.SetDefault("roles.ceo", "")
	v.SetDefault("roles.cfo", "")
	v.SetDefault("roles.coo", "")
	v.SetDefault("roles.owner", "")
	v.SetDefault("economy.pack_price", 20000)
	v.SetDefault("economy.cards_per_pack", 3)
	v.SetDefault("economy.season_pack_limit", -1)
	v.SetDefault("economy.max_card_types", 8)
	v.SetDefault("economy.ascend_price", 10000)
	v.SetDefault("economy.transmogrify_fee", 2000)
	v.SetDefault("economy.owner_cut_bps", 375)
	v.SetDefault("economy.reward_threshold", 10)
	v.SetDefault("economy.reward_unit", 1)
	v.SetDefault("economy.pack_price_drem", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: CCX_DATABASE_HOST -> database.host
	v.SetEnvPrefix("CCX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required — env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
