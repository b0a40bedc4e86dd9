package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	API       APIConfig
	Poller    PollerConfig
	Plan      PlanConfig
	Log       LogConfig
	Server    ServerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
}

type APIConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type PollerConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

type PlanConfig struct {
	SavePolicy string
}

type LogConfig struct {
	Level string
}

type ServerConfig struct {
	Port string
	Env  string
}

// RedisConfig is used by the dev server. An empty Addr keeps everything in
// memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type RateLimitConfig struct {
	UploadPerHour int
}

// Load reads config.yaml (optional) from . or ./config, then the
// environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	return load(v)
}

// LoadFile reads the given config file, then the environment.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("INGEST_API_TOKEN")
	readSecret("JWT_SECRET")
	readSecret("REDIS_PASSWORD")

	// Environment variables
	v.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = v.BindEnv("api.base_url", "INGEST_API_URL")
	_ = v.BindEnv("api.token", "INGEST_API_TOKEN")
	_ = v.BindEnv("api.timeout", "INGEST_API_TIMEOUT")
	_ = v.BindEnv("poller.interval_ms", "POLL_INTERVAL_MS")
	_ = v.BindEnv("poller.timeout_ms", "POLL_TIMEOUT_MS")
	_ = v.BindEnv("plan.save_policy", "PLAN_SAVE_POLICY")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.env", "SERVER_ENV")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("jwt.secret", "JWT_SECRET")
	_ = v.BindEnv("ratelimit.upload_per_hour", "RATELIMIT_UPLOAD_PER_HOUR")

	// Defaults
	v.SetDefault("api.base_url", "http://localhost:5001")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout", 30)
	v.SetDefault("poller.interval_ms", 1500)
	v.SetDefault("poller.timeout_ms", 120000)
	v.SetDefault("plan.save_policy", "reject")
	v.SetDefault("log.level", "info")
	v.SetDefault("server.port", "5001")
	v.SetDefault("server.env", "development")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("ratelimit.upload_per_hour", 50)

	// Try to read config file (optional)
	if v.ConfigFileUsed() == "" {
		_ = v.ReadInConfig()
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL: v.GetString("api.base_url"),
			Token:   v.GetString("api.token"),
			Timeout: time.Duration(v.GetInt("api.timeout")) * time.Second,
		},
		Poller: PollerConfig{
			Interval: time.Duration(v.GetInt("poller.interval_ms")) * time.Millisecond,
			Timeout:  time.Duration(v.GetInt("poller.timeout_ms")) * time.Millisecond,
		},
		Plan: PlanConfig{
			SavePolicy: v.GetString("plan.save_policy"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
		Server: ServerConfig{
			Port: v.GetString("server.port"),
			Env:  v.GetString("server.env"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
		},
		RateLimit: RateLimitConfig{
			UploadPerHour: v.GetInt("ratelimit.upload_per_hour"),
		},
	}

	return cfg, nil
}
