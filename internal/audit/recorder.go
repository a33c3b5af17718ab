package audit

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"account-service/internal/client"
	"account-service/internal/util"
)

// LoginEvent is the analytics projection of one authentication attempt.
// The durable audit row lives in the credential store; this export feeds
// dashboards and stream consumers and is best effort.
type LoginEvent struct {
	AuditID   string    `json:"audit_id"`
	UserID    string    `json:"user_id"`
	IsSuccess bool      `json:"is_success"`
	ErrorCode string    `json:"error_code,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Recorder fans login events out to ClickHouse and Kafka.
type Recorder struct {
	clickhouse *client.ClickHouseClient
	producer   *client.KafkaProducer
	topic      string
}

func NewRecorder(clickhouse *client.ClickHouseClient, producer *client.KafkaProducer, topic string) *Recorder {
	return &Recorder{
		clickhouse: clickhouse,
		producer:   producer,
		topic:      topic,
	}
}

// RecordLogin exports one event to both sinks concurrently. A failed export
// is logged and swallowed; authentication must not depend on analytics.
func (r *Recorder) RecordLogin(ctx context.Context, event LoginEvent) {
	exportCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	g, exportCtx := errgroup.WithContext(exportCtx)

	if r.clickhouse != nil {
		g.Go(func() error {
			return r.clickhouse.Exec(exportCtx, `
                INSERT INTO login_events (audit_id, user_id, is_success, error_code, timestamp)
                VALUES (?, ?, ?, ?, ?)`,
				event.AuditID, event.UserID, event.IsSuccess, event.ErrorCode, event.Timestamp)
		})
	}

	if r.producer != nil {
		g.Go(func() error {
			payload, err := json.Marshal(event)
			if err != nil {
				return err
			}
			return r.producer.Publish(exportCtx, r.topic, []byte(event.UserID), payload)
		})
	}

	if err := g.Wait(); err != nil {
		util.Warn("login event export failed",
			zap.String("audit_id", event.AuditID),
			zap.String("user_id", event.UserID),
			zap.Error(err))
	}
}
