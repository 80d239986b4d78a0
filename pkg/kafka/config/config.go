package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Brokers []string

	EventsTopic string
	AlertsTopic string
	DLQTopic    string

	ProducerCompression  string
	ProducerRequireAcks  int
	ProducerMaxAttempts  int
	ProducerBatchTimeout time.Duration
	ProducerAsync        bool
}

// Load reads Kafka settings from the environment. Returns nil when no
// brokers are configured; event publishing is optional and the engine runs
// without it.
func Load() *Config {
	brokers := getEnvStr(EnvKafkaBrokers, "")
	if brokers == "" {
		return nil
	}

	return &Config{
		Brokers: splitAndTrim(brokers),

		EventsTopic: getEnvStr(EnvKafkaEventsTopic, DefaultEventsTopic),
		AlertsTopic: getEnvStr(EnvKafkaAlertsTopic, DefaultAlertsTopic),
		DLQTopic:    getEnvStr(EnvKafkaDLQTopic, DefaultDLQTopic),

		ProducerCompression:  getEnvStr(EnvKafkaProducerCompression, DefaultProducerCompression),
		ProducerRequireAcks:  getEnvNum(EnvKafkaProducerRequireAcks, DefaultProducerRequireAcks),
		ProducerMaxAttempts:  getEnvNum(EnvKafkaProducerMaxAttempts, DefaultProducerMaxAttempts),
		ProducerBatchTimeout: getEnvDuration(EnvKafkaProducerBatchTimeout, DefaultProducerBatchTimeout),
		ProducerAsync:        getEnvBool(EnvKafkaProducerAsync, DefaultProducerAsync),
	}
}

func (cfg *Config) Validate() error {
	if len(cfg.Brokers) == 0 {
		return fmt.Errorf("at least one Kafka broker is required")
	}
	if cfg.EventsTopic == "" {
		return fmt.Errorf("events topic cannot be empty")
	}
	if cfg.AlertsTopic == "" {
		return fmt.Errorf("alerts topic cannot be empty")
	}
	if cfg.ProducerMaxAttempts <= 0 {
		return fmt.Errorf("producer max attempts must be positive, got: %d", cfg.ProducerMaxAttempts)
	}
	if cfg.ProducerBatchTimeout <= 0 {
		return fmt.Errorf("producer batch timeout must be positive, got: %s", cfg.ProducerBatchTimeout)
	}
	return nil
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
