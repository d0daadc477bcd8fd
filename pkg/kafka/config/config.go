package kafka_config

import (
	"fmt"
	"time"

	"fleetsched/pkg/logger"
)

// Config holds the broker list plus one section per Kafka role: the
// delivery.assigned publisher and the assignment request worker.
type Config struct {
	Brokers []string

	Publisher PublisherConfig
	Worker    WorkerConfig

	// EnableMiddleware attaches the logging and metrics middleware.
	EnableMiddleware bool
}

// PublisherConfig tunes the writer that announces committed assignments.
type PublisherConfig struct {
	MaxAttempts  int
	BatchTimeout time.Duration
	RequireAcks  int    // -1 = all, 1 = leader only
	Compression  string // "none", "gzip", "snappy", "lz4", "zstd"
	Async        bool
}

// WorkerConfig tunes the assignment request reader and its in-place retries.
type WorkerConfig struct {
	StartOffset       int64 // -1 = newest, -2 = oldest
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	CommitInterval    time.Duration // 0 commits synchronously
	HeartbeatInterval time.Duration
	SessionTimeout    time.Duration
	RebalanceTimeout  time.Duration
	MaxRetries        int
	RetryBackoff      time.Duration
}

// RetryBudget is the longest a worker sleeps between attempts on a single
// request before handing it to the DLQ.
func (w WorkerConfig) RetryBudget() time.Duration {
	var total time.Duration
	for attempt := 0; attempt < w.MaxRetries; attempt++ {
		total += w.RetryBackoff * time.Duration(1<<min(attempt, maxBackoffShift))
	}
	return total
}

// Load reads KAFKA_* environment variables over the defaults. Values that do
// not parse are reported alongside the validation errors.
func Load() (*Config, error) {
	env := &envReader{}

	cfg := &Config{
		Brokers: env.list(EnvKafkaBrokers, DefaultKafkaBrokers),

		Publisher: PublisherConfig{
			MaxAttempts:  env.integer(EnvKafkaProducerMaxAttempts, DefaultProducerMaxAttempts),
			BatchTimeout: env.duration(EnvKafkaProducerBatchTimeout, DefaultProducerBatchTimeout),
			RequireAcks:  env.integer(EnvKafkaProducerRequireAcks, DefaultProducerRequireAcks),
			Compression:  env.str(EnvKafkaProducerCompression, DefaultProducerCompression),
			Async:        env.flag(EnvKafkaProducerAsync, DefaultProducerAsync),
		},

		Worker: WorkerConfig{
			StartOffset:       env.integer64(EnvKafkaConsumerStartOffset, DefaultConsumerStartOffset),
			MinBytes:          env.integer(EnvKafkaConsumerMinBytes, DefaultConsumerMinBytes),
			MaxBytes:          env.integer(EnvKafkaConsumerMaxBytes, DefaultConsumerMaxBytes),
			MaxWait:           env.duration(EnvKafkaConsumerMaxWait, DefaultConsumerMaxWait),
			CommitInterval:    env.duration(EnvKafkaConsumerCommitInterval, DefaultConsumerCommitInterval),
			HeartbeatInterval: env.duration(EnvKafkaConsumerHeartbeatInterval, DefaultConsumerHeartbeatInterval),
			SessionTimeout:    env.duration(EnvKafkaConsumerSessionTimeout, DefaultConsumerSessionTimeout),
			RebalanceTimeout:  env.duration(EnvKafkaConsumerRebalanceTimeout, DefaultConsumerRebalanceTimeout),
			MaxRetries:        env.integer(EnvKafkaConsumerMaxRetries, DefaultConsumerMaxRetries),
			RetryBackoff:      env.duration(EnvKafkaConsumerRetryBackoff, DefaultConsumerRetryBackoff),
		},

		EnableMiddleware: env.flag(EnvKafkaEnableMiddleware, DefaultEnableMiddleware),
	}

	if err := cfg.validate(env.malformed); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) Validate() error {
	return cfg.validate(nil)
}

func (cfg *Config) validate(errors []string) error {
	if len(cfg.Brokers) == 0 {
		errors = append(errors, "At least one Kafka broker is required")
	}
	for i, broker := range cfg.Brokers {
		if broker == "" {
			errors = append(errors, fmt.Sprintf("Broker %d cannot be empty", i))
		}
	}

	errors = append(errors, cfg.Publisher.problems()...)
	errors = append(errors, cfg.Worker.problems()...)

	if len(errors) > 0 {
		errMsg := "Kafka configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (p PublisherConfig) problems() []string {
	var errors []string

	if p.MaxAttempts <= 0 {
		errors = append(errors, fmt.Sprintf("Publisher.MaxAttempts must be positive, got: %d", p.MaxAttempts))
	}
	if p.BatchTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("Publisher.BatchTimeout must be positive, got: %s", p.BatchTimeout))
	}

	switch p.Compression {
	case "none", "gzip", "snappy", "lz4", "zstd":
	default:
		errors = append(errors, fmt.Sprintf("Publisher.Compression must be one of [none, gzip, snappy, lz4, zstd], got: %s", p.Compression))
	}

	// An unacknowledged delivery.assigned can vanish while the assignment
	// itself is already committed.
	if p.RequireAcks != -1 && p.RequireAcks != 1 {
		errors = append(errors, fmt.Sprintf("Publisher.RequireAcks must be -1 or 1, got: %d", p.RequireAcks))
	}

	return errors
}

func (w WorkerConfig) problems() []string {
	var errors []string

	if w.StartOffset < -2 || w.StartOffset == 0 {
		errors = append(errors, fmt.Sprintf("Worker.StartOffset must be -1 (newest) or -2 (oldest), got: %d", w.StartOffset))
	}
	if w.MinBytes <= 0 {
		errors = append(errors, fmt.Sprintf("Worker.MinBytes must be positive, got: %d", w.MinBytes))
	}
	if w.MaxBytes < w.MinBytes {
		errors = append(errors, fmt.Sprintf("Worker.MaxBytes (%d) cannot be below MinBytes (%d)", w.MaxBytes, w.MinBytes))
	}
	if w.MaxWait <= 0 {
		errors = append(errors, fmt.Sprintf("Worker.MaxWait must be positive, got: %s", w.MaxWait))
	}
	if w.CommitInterval < 0 {
		errors = append(errors, fmt.Sprintf("Worker.CommitInterval cannot be negative, got: %s", w.CommitInterval))
	}
	if w.HeartbeatInterval <= 0 || w.HeartbeatInterval >= w.SessionTimeout {
		errors = append(errors, fmt.Sprintf("Worker.HeartbeatInterval (%s) must be positive and below SessionTimeout (%s)", w.HeartbeatInterval, w.SessionTimeout))
	}
	if w.RebalanceTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("Worker.RebalanceTimeout must be positive, got: %s", w.RebalanceTimeout))
	}
	if w.MaxRetries < 0 {
		errors = append(errors, fmt.Sprintf("Worker.MaxRetries cannot be negative, got: %d", w.MaxRetries))
	}
	if w.RetryBackoff < 0 {
		errors = append(errors, fmt.Sprintf("Worker.RetryBackoff cannot be negative, got: %s", w.RetryBackoff))
	}

	// A worker still retrying one request when a rebalance starts holds up the
	// whole group.
	if budget := w.RetryBudget(); w.RebalanceTimeout > 0 && budget >= w.RebalanceTimeout {
		errors = append(errors, fmt.Sprintf("Worker retry budget (%s) must stay below RebalanceTimeout (%s)", budget, w.RebalanceTimeout))
	}

	return errors
}

func (cfg *Config) LogConfiguration(log *logger.Logger) {
	log.Info("Kafka configuration loaded successfully",
		"brokers", cfg.Brokers,
		"publisher_max_attempts", cfg.Publisher.MaxAttempts,
		"publisher_batch_timeout", cfg.Publisher.BatchTimeout,
		"publisher_require_acks", cfg.Publisher.RequireAcks,
		"publisher_compression", cfg.Publisher.Compression,
		"publisher_async", cfg.Publisher.Async,
		"worker_start_offset", cfg.Worker.StartOffset,
		"worker_max_wait", cfg.Worker.MaxWait,
		"worker_commit_interval", cfg.Worker.CommitInterval,
		"worker_session_timeout", cfg.Worker.SessionTimeout,
		"worker_max_retries", cfg.Worker.MaxRetries,
		"worker_retry_backoff", cfg.Worker.RetryBackoff,
		"worker_retry_budget", cfg.Worker.RetryBudget(),
		"enable_middleware", cfg.EnableMiddleware,
	)
}
