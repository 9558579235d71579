package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL string
	DBMaxConns  int

	RedisURL string

	KafkaBrokers       []string
	KafkaConsumerGroup string
	KafkaIngestTopic   string
	KafkaDLQTopic      string

	JWTSecret string

	MinUsersPerExposure   int
	MaxCandidateExposures int

	ResultCacheTTL       time.Duration
	IdempotencyTTL       time.Duration
	EventDedupTTL        time.Duration
	ConsumerPollInterval time.Duration
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Storage struct {
		DatabaseURL string `yaml:"database_url"`
		MaxConns    int    `yaml:"max_conns"`
		RedisURL    string `yaml:"redis_url"`
	} `yaml:"storage"`
	Events struct {
		Brokers       []string `yaml:"brokers"`
		ConsumerGroup string   `yaml:"consumer_group"`
		IngestTopic   string   `yaml:"ingest_topic"`
		DLQTopic      string   `yaml:"dlq_topic"`
	} `yaml:"events"`
	Mining struct {
		MinUsersPerExposure   int `yaml:"min_users_per_exposure"`
		MaxCandidateExposures int `yaml:"max_candidate_exposures"`
	} `yaml:"mining"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:             "Insight-Mining-Service",
		HTTPPort:              8080,
		GRPCPort:              9090,
		DBMaxConns:            10,
		KafkaConsumerGroup:    "insight-mining-service",
		KafkaIngestTopic:      "analytics.canonical.v1",
		KafkaDLQTopic:         "analytics.canonical.dlq.v1",
		MinUsersPerExposure:   5,
		MaxCandidateExposures: 200,
		ResultCacheTTL:        10 * time.Minute,
		IdempotencyTTL:        7 * 24 * time.Hour,
		EventDedupTTL:         7 * 24 * time.Hour,
		ConsumerPollInterval:  2 * time.Second,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		cfg.DatabaseURL = f.Storage.DatabaseURL
		if f.Storage.MaxConns > 0 {
			cfg.DBMaxConns = f.Storage.MaxConns
		}
		cfg.RedisURL = f.Storage.RedisURL
		if len(f.Events.Brokers) > 0 {
			cfg.KafkaBrokers = f.Events.Brokers
		}
		if f.Events.ConsumerGroup != "" {
			cfg.KafkaConsumerGroup = f.Events.ConsumerGroup
		}
		if f.Events.IngestTopic != "" {
			cfg.KafkaIngestTopic = f.Events.IngestTopic
		}
		if f.Events.DLQTopic != "" {
			cfg.KafkaDLQTopic = f.Events.DLQTopic
		}
		if f.Mining.MinUsersPerExposure > 0 {
			cfg.MinUsersPerExposure = f.Mining.MinUsersPerExposure
		}
		if f.Mining.MaxCandidateExposures > 0 {
			cfg.MaxCandidateExposures = f.Mining.MaxCandidateExposures
		}
	}

	cfg.DatabaseURL = envOrDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitCSV(brokers)
	}
	cfg.KafkaConsumerGroup = envOrDefault("KAFKA_CONSUMER_GROUP", cfg.KafkaConsumerGroup)
	cfg.KafkaIngestTopic = envOrDefault("KAFKA_INGEST_TOPIC", cfg.KafkaIngestTopic)
	cfg.KafkaDLQTopic = envOrDefault("KAFKA_DLQ_TOPIC", cfg.KafkaDLQTopic)
	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.DBMaxConns = envInt("DB_MAX_CONNS", cfg.DBMaxConns)
	cfg.MinUsersPerExposure = envInt("MIN_USERS_PER_EXPOSURE", cfg.MinUsersPerExposure)
	cfg.MaxCandidateExposures = envInt("MAX_CANDIDATE_EXPOSURES", cfg.MaxCandidateExposures)
	cfg.ResultCacheTTL = time.Duration(envInt("RESULT_CACHE_TTL_SECONDS", int(cfg.ResultCacheTTL.Seconds()))) * time.Second
	cfg.IdempotencyTTL = time.Duration(envInt("IDEMPOTENCY_TTL_HOURS", int(cfg.IdempotencyTTL.Hours()))) * time.Hour
	cfg.EventDedupTTL = time.Duration(envInt("EVENT_DEDUP_TTL_HOURS", int(cfg.EventDedupTTL.Hours()))) * time.Hour
	cfg.ConsumerPollInterval = time.Duration(envInt("CONSUMER_POLL_SECONDS", int(cfg.ConsumerPollInterval.Seconds()))) * time.Second

	return cfg, nil
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
