package kafka_middleware

import (
	"context"
	"sync/atomic"
	"time"

	"fleetsched/pkg/kafka"
	"fleetsched/pkg/logger"
)

// Metrics counts messages and handler time. Each producer or consumer gets its
// own instance; the zero value is ready to use.
type Metrics struct {
	succeeded     atomic.Int64
	failed        atomic.Int64
	totalDuration atomic.Int64
}

type MetricsSnapshot struct {
	Succeeded   int64
	Failed      int64
	AvgDuration time.Duration
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	succeeded := m.succeeded.Load()
	failed := m.failed.Load()

	var avg time.Duration
	if total := succeeded + failed; total > 0 {
		avg = time.Duration(m.totalDuration.Load() / total)
	}

	return MetricsSnapshot{
		Succeeded:   succeeded,
		Failed:      failed,
		AvgDuration: avg,
	}
}

// Log writes the current counters under msg.
func (m *Metrics) Log(log *logger.Logger, msg string) {
	s := m.Snapshot()
	log.Info(msg,
		"succeeded", s.Succeeded,
		"failed", s.Failed,
		"avg_duration", s.AvgDuration,
	)
}

func (m *Metrics) observe(start time.Time, err error) {
	m.totalDuration.Add(int64(time.Since(start)))
	if err != nil {
		m.failed.Add(1)
	} else {
		m.succeeded.Add(1)
	}
}

func MetricsProducerMiddleware(m *Metrics) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		m.observe(start, err)
		return err
	}
}

func MetricsConsumerMiddleware(m *Metrics) kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		m.observe(start, err)
		return err
	}
}
