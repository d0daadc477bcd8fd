package kafka_config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, "kafka-1:9092, kafka-2:9092")
	t.Setenv(EnvKafkaConsumerMaxRetries, "5")
	t.Setenv(EnvKafkaConsumerRetryBackoff, "1s")
	t.Setenv(EnvKafkaProducerCompression, "zstd")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Brokers) != 2 || cfg.Brokers[1] != "kafka-2:9092" {
		t.Errorf("brokers = %v", cfg.Brokers)
	}
	if cfg.Worker.MaxRetries != 5 || cfg.Worker.RetryBackoff != time.Second {
		t.Errorf("retries = %d backoff = %s", cfg.Worker.MaxRetries, cfg.Worker.RetryBackoff)
	}
	if cfg.Publisher.Compression != "zstd" {
		t.Errorf("compression = %s", cfg.Publisher.Compression)
	}
}

func TestLoad_MalformedValueFails(t *testing.T) {
	t.Setenv(EnvKafkaConsumerMaxRetries, "three")
	t.Setenv(EnvKafkaConsumerSessionTimeout, "30")

	_, err := Load()
	if err == nil {
		t.Fatal("expected malformed values to fail Load")
	}
	for _, want := range []string{EnvKafkaConsumerMaxRetries, EnvKafkaConsumerSessionTimeout} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not name %s", err, want)
		}
	}
}

func TestWorkerConfig_RetryBudget(t *testing.T) {
	tests := []struct {
		name    string
		retries int
		backoff time.Duration
		want    time.Duration
	}{
		{name: "no retries", retries: 0, backoff: time.Second, want: 0},
		{name: "defaults", retries: 3, backoff: 200 * time.Millisecond, want: 1400 * time.Millisecond},
		{name: "doubling caps at 64x", retries: 9, backoff: time.Millisecond, want: (1 + 2 + 4 + 8 + 16 + 32 + 64 + 64 + 64) * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := WorkerConfig{MaxRetries: tt.retries, RetryBackoff: tt.backoff}
			if got := w.RetryBudget(); got != tt.want {
				t.Errorf("RetryBudget() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(cfg *Config) {}},
		{
			name:    "empty broker",
			mutate:  func(cfg *Config) { cfg.Brokers = []string{"kafka-1:9092", ""} },
			wantErr: "Broker 1 cannot be empty",
		},
		{
			name:    "unknown compression",
			mutate:  func(cfg *Config) { cfg.Publisher.Compression = "brotli" },
			wantErr: "Publisher.Compression",
		},
		{
			name:    "fire and forget acks",
			mutate:  func(cfg *Config) { cfg.Publisher.RequireAcks = 0 },
			wantErr: "Publisher.RequireAcks",
		},
		{
			name:    "negative retries",
			mutate:  func(cfg *Config) { cfg.Worker.MaxRetries = -1 },
			wantErr: "Worker.MaxRetries",
		},
		{
			name:    "explicit offset",
			mutate:  func(cfg *Config) { cfg.Worker.StartOffset = 42 },
			wantErr: "Worker.StartOffset",
		},
		{
			name:    "heartbeat not below session timeout",
			mutate:  func(cfg *Config) { cfg.Worker.HeartbeatInterval = cfg.Worker.SessionTimeout },
			wantErr: "Worker.HeartbeatInterval",
		},
		{
			name: "retries outlast rebalance",
			mutate: func(cfg *Config) {
				cfg.Worker.MaxRetries = 6
				cfg.Worker.RetryBackoff = time.Second
			},
			wantErr: "retry budget",
		},
		{
			name:   "synchronous commits allowed",
			mutate: func(cfg *Config) { cfg.Worker.CommitInterval = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			if err != nil {
				t.Fatalf("defaults should be valid: %v", err)
			}
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
