package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         string   `yaml:"port"`
		CORSOrigins  []string `yaml:"cors_origins"`
		ReadTimeout  string   `yaml:"read_timeout"`
		WriteTimeout string   `yaml:"write_timeout"`
	} `yaml:"server"`
	Storage struct {
		// Driver is memory, mongo or postgres.
		Driver string `yaml:"driver"`
	} `yaml:"storage"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	RabbitMQ struct {
		URI      string `yaml:"uri"`
		Exchange string `yaml:"exchange"`
	} `yaml:"rabbitmq"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		TokenTTL  string `yaml:"token_ttl"`
	} `yaml:"auth"`
	Quiz struct {
		QuestionLimit     int    `yaml:"question_limit"`
		AttemptTTL        string `yaml:"attempt_ttl"`
		CacheTTL          string `yaml:"cache_ttl"`
		CertificatePrefix string `yaml:"certificate_prefix"`
		// RequireAttempt refuses answer sheets without a served attempt id.
		RequireAttempt bool `yaml:"require_attempt"`
	} `yaml:"quiz"`
	Certificate struct {
		Brand     string `yaml:"brand"`
		Tagline   string `yaml:"tagline"`
		Team      string `yaml:"team"`
		VerifyURL string `yaml:"verify_url"`
	} `yaml:"certificate"`
	Log struct {
		Mode string `yaml:"mode"`
	} `yaml:"log"`
	Telemetry struct {
		Enabled      bool    `yaml:"enabled"`
		ServiceName  string  `yaml:"service_name"`
		Environment  string  `yaml:"environment"`
		OTLPEndpoint string  `yaml:"otlp_endpoint"`
		Insecure     bool    `yaml:"insecure"`
		SampleRatio  float64 `yaml:"sample_ratio"`
	} `yaml:"telemetry"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Server.ReadTimeout = "15s"
	cfg.Server.WriteTimeout = "15s"
	cfg.Storage.Driver = "memory"
	cfg.Mongo.Database = "assessment"
	cfg.Redis.TTL = "10m"
	cfg.RabbitMQ.Exchange = "assessment.events"
	cfg.Auth.TokenTTL = "24h"
	cfg.Quiz.QuestionLimit = 10
	cfg.Quiz.AttemptTTL = "30m"
	cfg.Quiz.CacheTTL = "10m"
	cfg.Quiz.CertificatePrefix = "MTX"
	cfg.Log.Mode = "dev"
	cfg.Telemetry.ServiceName = "assessment-service"
	cfg.Telemetry.SampleRatio = 0.1
	return cfg
}

// Load reads a .env file if present, then YAML config from path over the
// defaults, then environment overrides. A missing config file is not an error.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.Server.Port, "PORT")
	set(&cfg.Storage.Driver, "STORAGE_DRIVER")
	set(&cfg.Mongo.URI, "MONGO_URI")
	set(&cfg.Mongo.Database, "MONGO_DATABASE")
	set(&cfg.Postgres.URL, "POSTGRES_URL")
	set(&cfg.Redis.Addr, "REDIS_ADDR")
	set(&cfg.Redis.Password, "REDIS_PASSWORD")
	set(&cfg.RabbitMQ.URI, "RABBITMQ_URI")
	set(&cfg.RabbitMQ.Exchange, "RABBITMQ_EXCHANGE")
	set(&cfg.Auth.JWTSecret, "JWT_SECRET")
	set(&cfg.Log.Mode, "LOG_MODE")
	set(&cfg.Telemetry.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	if v := strings.TrimSpace(os.Getenv("QUIZ_REQUIRE_ATTEMPT")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Quiz.RequireAttempt = b
		}
	}
	if v := strings.TrimSpace(os.Getenv("OTEL_ENABLED")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Telemetry.Enabled = b
		}
	}
	cfg.Storage.Driver = strings.ToLower(cfg.Storage.Driver)
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
