package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	"github.com/m04kA/SMC-BeautyBooking/internal/infra/storage/memory"
	"github.com/m04kA/SMC-BeautyBooking/pkg/clock"
	"github.com/m04kA/SMC-BeautyBooking/pkg/logger"
	"github.com/m04kA/SMC-BeautyBooking/pkg/metrics"
	"github.com/m04kA/SMC-BeautyBooking/pkg/tracing"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func appendEvent(t *testing.T, ctx context.Context, store *memory.Store, to domain.BookingStatus) domain.LifecycleEvent {
	t.Helper()

	b := &domain.Booking{
		ID:         uuid.New(),
		ProviderID: 1,
		ClientID:   2,
		Date:       time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		Time:       600,
		Status:     to,
	}
	event := domain.NewLifecycleEvent(b, "", domain.Actor{UserID: 2, Role: domain.RoleClient}, time.Now())
	require.NoError(t, store.Outbox().Append(ctx, event))
	return event
}

func newPublisher(store *memory.Store, writer MessageWriter, m MetricsCollector) *Publisher {
	return NewPublisher(
		writer,
		store.Outbox(),
		store.TxManager(),
		clock.Fixed{At: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)},
		m,
		logger.Nop(),
		PublisherConfig{BatchSize: 10},
	)
}

func TestPublishBatch_PublishesAndMarks(t *testing.T) {
	store := memory.NewStore()
	writer := &fakeWriter{}
	ctx := context.Background()

	first := appendEvent(t, ctx, store, domain.StatusPending)
	appendEvent(t, ctx, store, domain.StatusConfirmed)

	p := newPublisher(store, writer, metrics.Noop{})

	n, err := p.PublishBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, writer.messages, 2)
	msg := writer.messages[0]
	assert.Equal(t, first.BookingID.String(), string(msg.Key))
	assert.Equal(t, first.EventID.String(), header(msg, headerEventID))
	assert.Equal(t, "booking.created", header(msg, headerEventType))
	assert.Contains(t, string(msg.Value), first.BookingID.String())

	n, err = p.PublishBatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, writer.messages, 2)
}

func TestPublishBatch_WriteFailureKeepsPending(t *testing.T) {
	store := memory.NewStore()
	writer := &fakeWriter{err: errors.New("broker down")}
	ctx := context.Background()
	m := metrics.New("test")

	appendEvent(t, ctx, store, domain.StatusPending)
	p := newPublisher(store, writer, m)

	_, err := p.PublishBatch(ctx)
	require.ErrorIs(t, err, ErrPublish)

	events := store.Outbox().Events(ctx)
	require.Len(t, events, 1)
	assert.Equal(t, 1, events[0].Attempts)

	writer.err = nil
	n, err := p.PublishBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPublishBatch_CarriesTraceContext(t *testing.T) {
	_, err := tracing.Setup(context.Background(), tracing.Config{Enabled: false})
	require.NoError(t, err)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	store := memory.NewStore()
	writer := &fakeWriter{}
	appendEvent(t, ctx, store, domain.StatusPending)

	_, err = newPublisher(store, writer, metrics.Noop{}).PublishBatch(context.Background())
	require.NoError(t, err)

	require.Len(t, writer.messages, 1)
	assert.Contains(t, header(writer.messages[0], "traceparent"), traceID.String())
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, SplitBrokers(" a:9092, ,b:9092 "))
	assert.Empty(t, SplitBrokers(""))
}

func TestNewWriter(t *testing.T) {
	w := NewWriter(WriterConfig{Brokers: []string{"a:9092"}, Topic: "booking.lifecycle"})
	assert.Equal(t, "booking.lifecycle", w.Topic)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
}
