package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/m04kA/SMC-BeautyBooking/pkg/tracing"
)

const (
	defaultInterval  = 2 * time.Second
	defaultBatchSize = 50

	headerEventID   = "event_id"
	headerEventType = "event_type"
)

// WriterConfig настройки продюсера Kafka
type WriterConfig struct {
	Brokers []string
	Topic   string
}

// NewWriter создает продюсера Kafka.
// Ключ сообщения это ID бронирования, поэтому события одного бронирования
// попадают в одну партицию и читаются по порядку.
func NewWriter(cfg WriterConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

// SplitBrokers разбирает список брокеров через запятую
func SplitBrokers(raw string) []string {
	brokers := make([]string, 0)
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// PublisherConfig настройки публикации outbox
type PublisherConfig struct {
	Interval  time.Duration
	BatchSize int
}

// Publisher переносит события жизненного цикла из outbox в Kafka.
// Доставка "как минимум один раз": потребители отбрасывают дубли по event_id.
type Publisher struct {
	writer       MessageWriter
	repo         OutboxRepository
	txManager    TransactionManager
	timeProvider TimeProvider
	metrics      MetricsCollector
	logger       Logger
	interval     time.Duration
	batchSize    int
}

// NewPublisher создает публикатор outbox
func NewPublisher(
	writer MessageWriter,
	repo OutboxRepository,
	txManager TransactionManager,
	timeProvider TimeProvider,
	metrics MetricsCollector,
	logger Logger,
	cfg PublisherConfig,
) *Publisher {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	return &Publisher{
		writer:       writer,
		repo:         repo,
		txManager:    txManager,
		timeProvider: timeProvider,
		metrics:      metrics,
		logger:       logger,
		interval:     cfg.Interval,
		batchSize:    cfg.BatchSize,
	}
}

// Run публикует пачки с заданным интервалом до отмены контекста
func (p *Publisher) Run(ctx context.Context) {
	p.logger.Info("OutboxPublisher: started, interval=%s, batch=%d", p.interval, p.batchSize)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("OutboxPublisher: stopped")
			return
		case <-ticker.C:
			if _, err := p.PublishBatch(ctx); err != nil {
				p.logger.Error("OutboxPublisher: %v", err)
			}
		}
	}
}

// PublishBatch публикует одну пачку неопубликованных событий и возвращает их число.
// Строки outbox остаются заблокированными до подтверждения брокера.
func (p *Publisher) PublishBatch(ctx context.Context) (int, error) {
	var (
		published int
		writeErr  error
	)

	err := p.txManager.Do(ctx, func(txCtx context.Context) error {
		pending, err := p.repo.FetchPending(txCtx, p.batchSize)
		if err != nil {
			return fmt.Errorf("%w: fetch pending: %v", ErrOutbox, err)
		}
		if len(pending) == 0 {
			return nil
		}

		ids := make([]int64, len(pending))
		messages := make([]kafka.Message, len(pending))
		for i, m := range pending {
			ids[i] = m.ID

			msgCtx := tracing.Extract(ctx, m.TraceParent, m.TraceState)
			msgCtx, span := tracing.Start(msgCtx, "outbox.publish",
				attribute.String("event_type", m.EventType),
				attribute.String("booking_id", m.AggregateID.String()),
			)

			headers := &headerCarrier{headers: []kafka.Header{
				{Key: headerEventID, Value: []byte(m.EventID.String())},
				{Key: headerEventType, Value: []byte(m.EventType)},
			}}
			otel.GetTextMapPropagator().Inject(msgCtx, headers)
			span.End()

			messages[i] = kafka.Message{
				Key:     []byte(m.AggregateID.String()),
				Value:   m.Payload,
				Headers: headers.headers,
				Time:    m.CreatedAt,
			}
		}

		if err := p.writer.WriteMessages(ctx, messages...); err != nil {
			writeErr = fmt.Errorf("%w: %v", ErrPublish, err)
			if markErr := p.repo.MarkFailed(txCtx, ids, err.Error()); markErr != nil {
				return fmt.Errorf("%w: mark failed: %v", ErrOutbox, markErr)
			}
			return nil
		}

		if err := p.repo.MarkPublished(txCtx, ids, p.timeProvider.Now()); err != nil {
			return fmt.Errorf("%w: mark published: %v", ErrOutbox, err)
		}
		published = len(ids)
		return nil
	})
	if err != nil {
		p.metrics.ObserveOutboxPublish("error", 1)
		return 0, err
	}
	if writeErr != nil {
		p.metrics.ObserveOutboxPublish("failed", 1)
		return 0, writeErr
	}

	if published > 0 {
		p.metrics.ObserveOutboxPublish("published", published)
		p.logger.Info("OutboxPublisher: published %d events", published)
	}
	return published, nil
}

// Close закрывает продюсера
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// headerCarrier заголовки Kafka как носитель контекста трейса
type headerCarrier struct {
	headers []kafka.Header
}

func (c *headerCarrier) Get(key string) string {
	for _, h := range c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Set(key, value string) {
	for i := range c.headers {
		if c.headers[i].Key == key {
			c.headers[i].Value = []byte(value)
			return
		}
	}
	c.headers = append(c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.headers))
	for _, h := range c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}
