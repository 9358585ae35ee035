package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	"github.com/m04kA/SMC-BeautyBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-BeautyBooking/pkg/psqlbuilder"
	"github.com/m04kA/SMC-BeautyBooking/pkg/tracing"
)

// Repository транзакционный outbox событий жизненного цикла
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория outbox
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Append записывает событие в outbox в рамках текущей транзакции.
// Вместе с событием сохраняется контекст трейса запроса.
func (r *Repository) Append(ctx context.Context, event domain.LifecycleEvent) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	payload, err := EncodeEvent(event)
	if err != nil {
		return err
	}
	traceParent, traceState := tracing.Inject(ctx)

	query, args, err := psqlbuilder.Insert("outbox_events").
		Columns("event_id", "event_type", "aggregate_id", "payload", "traceparent", "tracestate").
		Values(event.EventID, event.EventType(), event.BookingID, string(payload), traceParent, traceState).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Append - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Append - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// FetchPending выбирает неопубликованные события и блокирует их.
// Строки, заблокированные другим экземпляром, пропускаются.
func (r *Repository) FetchPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id", "event_id", "event_type", "aggregate_id", "payload",
		"traceparent", "tracestate", "created_at", "attempts",
	).
		From("outbox_events").
		Where(squirrel.Eq{"published_at": nil}).
		OrderBy("id ASC").
		Limit(uint64(limit)).
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FetchPending - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FetchPending - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	messages := make([]domain.OutboxMessage, 0)
	for rows.Next() {
		var (
			msg         domain.OutboxMessage
			traceParent sql.NullString
			traceState  sql.NullString
		)
		if err := rows.Scan(
			&msg.ID,
			&msg.EventID,
			&msg.EventType,
			&msg.AggregateID,
			&msg.Payload,
			&traceParent,
			&traceState,
			&msg.CreatedAt,
			&msg.Attempts,
		); err != nil {
			return nil, fmt.Errorf("%w: FetchPending - scan row: %v", ErrScanRow, err)
		}
		msg.TraceParent = traceParent.String
		msg.TraceState = traceState.String
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: FetchPending - rows error: %v", ErrScanRow, err)
	}

	return messages, nil
}

// MarkPublished отмечает события опубликованными
func (r *Repository) MarkPublished(ctx context.Context, ids []int64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("outbox_events").
		Set("published_at", at).
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: MarkPublished - build update query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: MarkPublished - execute update: %v", ErrExecQuery, err)
	}

	return nil
}

// MarkFailed увеличивает счётчик попыток и сохраняет последнюю ошибку
func (r *Repository) MarkFailed(ctx context.Context, ids []int64, reason string) error {
	if len(ids) == 0 {
		return nil
	}
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("outbox_events").
		Set("attempts", squirrel.Expr("attempts + 1")).
		Set("last_error", reason).
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: MarkFailed - build update query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: MarkFailed - execute update: %v", ErrExecQuery, err)
	}

	return nil
}
