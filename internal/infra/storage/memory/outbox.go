package memory

import (
	"context"
	"time"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	outboxRepo "github.com/m04kA/SMC-BeautyBooking/internal/infra/storage/outbox"
	"github.com/m04kA/SMC-BeautyBooking/pkg/tracing"
)

// OutboxRepository outbox событий в памяти
type OutboxRepository struct {
	store *Store
}

func (r *OutboxRepository) Append(ctx context.Context, event domain.LifecycleEvent) error {
	s := r.store
	tx, release := s.acquire(ctx)
	defer release()

	payload, err := outboxRepo.EncodeEvent(event)
	if err != nil {
		return err
	}
	traceParent, traceState := tracing.Inject(ctx)

	s.outboxSeq++
	row := &outboxRow{msg: domain.OutboxMessage{
		ID:          s.outboxSeq,
		EventID:     event.EventID,
		EventType:   event.EventType(),
		AggregateID: event.BookingID,
		Payload:     payload,
		TraceParent: traceParent,
		TraceState:  traceState,
		CreatedAt:   s.now(),
	}}
	s.outbox = append(s.outbox, row)

	n := len(s.outbox)
	tx.onRollback(func() {
		s.outbox = s.outbox[:n-1]
		s.outboxSeq--
	})

	return nil
}

func (r *OutboxRepository) FetchPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	s := r.store
	_, release := s.acquire(ctx)
	defer release()

	messages := make([]domain.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.publishedAt != nil {
			continue
		}
		messages = append(messages, row.msg)
		if limit > 0 && len(messages) == limit {
			break
		}
	}
	return messages, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, ids []int64, at time.Time) error {
	s := r.store
	tx, release := s.acquire(ctx)
	defer release()

	for _, row := range r.rowsByID(ids) {
		row := row
		published := at
		row.publishedAt = &published
		tx.onRollback(func() { row.publishedAt = nil })
	}
	return nil
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, ids []int64, reason string) error {
	s := r.store
	tx, release := s.acquire(ctx)
	defer release()

	for _, row := range r.rowsByID(ids) {
		row := row
		prevAttempts, prevError := row.msg.Attempts, row.lastError
		row.msg.Attempts++
		row.lastError = reason
		tx.onRollback(func() {
			row.msg.Attempts = prevAttempts
			row.lastError = prevError
		})
	}
	return nil
}

// Events возвращает все записанные события, включая опубликованные
func (r *OutboxRepository) Events(ctx context.Context) []domain.OutboxMessage {
	s := r.store
	_, release := s.acquire(ctx)
	defer release()

	messages := make([]domain.OutboxMessage, len(s.outbox))
	for i, row := range s.outbox {
		messages[i] = row.msg
	}
	return messages
}

func (r *OutboxRepository) rowsByID(ids []int64) []*outboxRow {
	wanted := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	rows := make([]*outboxRow, 0, len(ids))
	for _, row := range r.store.outbox {
		if _, ok := wanted[row.msg.ID]; ok {
			rows = append(rows, row)
		}
	}
	return rows
}
