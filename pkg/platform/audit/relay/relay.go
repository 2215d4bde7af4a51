// Package relay publishes outbox rows to Kafka. It is the second half of the
// transactional outbox: domain writes land in the outbox table atomically and
// the relay moves them to the topic, marking rows published only after the
// broker acknowledges.
package relay

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	// DefaultTopic receives every audit event.
	DefaultTopic = "auditafolha.audit"

	defaultBatchSize = 100
	defaultInterval  = time.Second
)

// Relay polls the outbox table and produces unpublished rows.
type Relay struct {
	db     *sql.DB
	client *kgo.Client
	log    *slog.Logger

	topic     string
	batchSize int
	interval  time.Duration
}

// Option configures a Relay.
type Option func(*Relay)

func WithTopic(topic string) Option {
	return func(r *Relay) { r.topic = topic }
}

func WithBatchSize(n int) Option {
	return func(r *Relay) { r.batchSize = n }
}

func WithInterval(d time.Duration) Option {
	return func(r *Relay) { r.interval = d }
}

func New(db *sql.DB, client *kgo.Client, log *slog.Logger, opts ...Option) *Relay {
	r := &Relay{
		db:        db,
		client:    client,
		log:       log,
		topic:     DefaultTopic,
		batchSize: defaultBatchSize,
		interval:  defaultInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls until the context is cancelled. Transient publish failures are
// logged and retried on the next tick; rows keep their order per aggregate
// because the aggregate id is the partition key.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.drain(ctx); err != nil {
				r.log.Error("falha ao publicar outbox", "error", err)
			}
		}
	}
}

type outboxRow struct {
	id          string
	aggregateID string
	eventType   string
	payload     []byte
}

func (r *Relay) drain(ctx context.Context) error {
	const query = `
		SELECT id, aggregate_id, event_type, payload
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, r.batchSize)
	if err != nil {
		return fmt.Errorf("select outbox: %w", err)
	}
	defer rows.Close()

	var pending []outboxRow
	for rows.Next() {
		var row outboxRow
		if err := rows.Scan(&row.id, &row.aggregateID, &row.eventType, &row.payload); err != nil {
			return fmt.Errorf("scan outbox row: %w", err)
		}
		pending = append(pending, row)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate outbox: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	for _, row := range pending {
		record := &kgo.Record{
			Topic: r.topic,
			Key:   []byte(row.aggregateID),
			Value: row.payload,
		}
		if err := r.client.ProduceSync(ctx, record).FirstErr(); err != nil {
			return fmt.Errorf("produce outbox row %s: %w", row.id, err)
		}
		if err := r.markPublished(ctx, row.id); err != nil {
			return err
		}
	}

	r.log.Debug("outbox publicado", "rows", len(pending), "topic", r.topic)
	return nil
}

func (r *Relay) markPublished(ctx context.Context, id string) error {
	const query = `UPDATE outbox SET published_at = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, time.Now(), id); err != nil {
		return fmt.Errorf("mark outbox row published: %w", err)
	}
	return nil
}
