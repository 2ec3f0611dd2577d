package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	LockLocal = "local"
	LockRedis = "redis"

	// MaxBatchLimit is the hard ceiling on keys generated per request.
	MaxBatchLimit = 100
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	Auth      AuthConfig
	License   LicenseConfig
	Storage   StorageConfig
	Activity  ActivityConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	ShutdownPeriod time.Duration `mapstructure:"shutdownPeriod"`
	AllowOrigins   []string      `mapstructure:"allowOrigins"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
	AutoMigrate     bool          `mapstructure:"autoMigrate"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwtSecret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"tokenTTL"`
}

type LicenseConfig struct {
	DefaultPrefix       string `mapstructure:"defaultPrefix"`
	MaxBatch            int    `mapstructure:"maxBatch"`
	MaxGenerateAttempts int    `mapstructure:"maxGenerateAttempts"`
	SegmentBytes        int    `mapstructure:"segmentBytes"`
}

type StorageConfig struct {
	Driver  string        `mapstructure:"driver"`
	Lock    string        `mapstructure:"lock"`
	LockTTL time.Duration `mapstructure:"lockTTL"`
}

type ActivityConfig struct {
	Async       bool   `mapstructure:"async"`
	Queue       string `mapstructure:"queue"`
	Concurrency int    `mapstructure:"concurrency"`
}

type RateLimitConfig struct {
	ActivationsPerMinute int `mapstructure:"activationsPerMinute"`
	ActivationBurst      int `mapstructure:"activationBurst"`
}

func LoadConfig(configPath string) (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables and config file")
	}

	v := viper.New()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 10*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.shutdownPeriod", 15*time.Second)
	v.SetDefault("server.allowOrigins", []string{"http://localhost:5000"})

	v.SetDefault("database.url", "")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 25)
	v.SetDefault("database.connMaxLifetime", 5*time.Minute)
	v.SetDefault("database.autoMigrate", true)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", "0")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.issuer", "license-dashboard")
	v.SetDefault("auth.tokenTTL", 24*time.Hour)

	v.SetDefault("license.defaultPrefix", "TWITCH")
	v.SetDefault("license.maxBatch", MaxBatchLimit)
	v.SetDefault("license.maxGenerateAttempts", 10)
	v.SetDefault("license.segmentBytes", 2)

	v.SetDefault("storage.driver", StorageMemory)
	v.SetDefault("storage.lock", LockLocal)
	v.SetDefault("storage.lockTTL", 10*time.Second)

	v.SetDefault("activity.async", false)
	v.SetDefault("activity.queue", "activity")
	v.SetDefault("activity.concurrency", 5)

	v.SetDefault("rateLimit.activationsPerMinute", 10)
	v.SetDefault("rateLimit.activationBurst", 5)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			log.Printf("Warning: could not read config file: %s. Error: %v\n", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("database.url is required for the postgres storage driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}

	switch c.Storage.Lock {
	case LockLocal:
	case LockRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr is required for the redis lock"))
		}
		if c.Storage.LockTTL <= 0 {
			errs = append(errs, errors.New("storage.lockTTL must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.lock %q", c.Storage.Lock))
	}

	if c.Activity.Async && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when activity.async is enabled"))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwtSecret is required"))
	}

	if c.License.MaxBatch < 1 || c.License.MaxBatch > MaxBatchLimit {
		errs = append(errs, fmt.Errorf("license.maxBatch must be within [1,%d]", MaxBatchLimit))
	}
	if c.License.MaxGenerateAttempts < 1 {
		errs = append(errs, errors.New("license.maxGenerateAttempts must be at least 1"))
	}
	if c.License.SegmentBytes < 2 {
		errs = append(errs, errors.New("license.segmentBytes must be at least 2"))
	}

	if c.RateLimit.ActivationsPerMinute < 1 || c.RateLimit.ActivationBurst < 1 {
		errs = append(errs, errors.New("rateLimit values must be positive"))
	}

	return errors.Join(errs...)
}

// UsesRedis reports whether any configured component needs a redis client.
func (c *Config) UsesRedis() bool {
	return c.Storage.Lock == LockRedis || c.Activity.Async
}
