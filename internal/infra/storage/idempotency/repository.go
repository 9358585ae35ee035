package idempotency

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	"github.com/m04kA/SMC-BeautyBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-BeautyBooking/pkg/psqlbuilder"
)

// Repository хранилище ключей идемпотентности клиентов
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория ключей
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Claim создаёт запись ключа, если её нет, и блокирует её до конца транзакции.
// Конкурентный запрос с тем же ключом ждёт фиксации первого и видит его результат.
func (r *Repository) Claim(ctx context.Context, clientID int64, key, fingerprint string) (*domain.IdempotencyRecord, error) {
	if !dbmetrics.IsInTransaction(ctx) {
		return nil, ErrNotInTransaction
	}
	executor := dbmetrics.GetExecutor(ctx, r.db)

	insertQuery, insertArgs, err := psqlbuilder.Insert("idempotency_keys").
		Columns("client_id", "idempotency_key", "fingerprint").
		Values(clientID, key, fingerprint).
		Suffix("ON CONFLICT (client_id, idempotency_key) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Claim - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		return nil, fmt.Errorf("%w: Claim - execute insert: %v", ErrExecQuery, err)
	}

	selectQuery, selectArgs, err := psqlbuilder.Select("client_id", "idempotency_key", "fingerprint", "booking_id", "created_at").
		From("idempotency_keys").
		Where(squirrel.Eq{"client_id": clientID, "idempotency_key": key}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Claim - build select query: %v", ErrBuildQuery, err)
	}

	var (
		record    domain.IdempotencyRecord
		bookingID uuid.NullUUID
	)
	err = executor.QueryRowContext(ctx, selectQuery, selectArgs...).Scan(
		&record.ClientID,
		&record.Key,
		&record.Fingerprint,
		&bookingID,
		&record.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Claim - scan record: %v", ErrScanRow, err)
	}

	if bookingID.Valid {
		id := bookingID.UUID
		record.BookingID = &id
	}

	return &record, nil
}

// Find читает запись ключа без блокировки
func (r *Repository) Find(ctx context.Context, clientID int64, key string) (*domain.IdempotencyRecord, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("client_id", "idempotency_key", "fingerprint", "booking_id", "created_at").
		From("idempotency_keys").
		Where(squirrel.Eq{"client_id": clientID, "idempotency_key": key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Find - build select query: %v", ErrBuildQuery, err)
	}

	var (
		record    domain.IdempotencyRecord
		bookingID uuid.NullUUID
	)
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&record.ClientID,
		&record.Key,
		&record.Fingerprint,
		&bookingID,
		&record.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Find - scan record: %v", ErrScanRow, err)
	}

	if bookingID.Valid {
		id := bookingID.UUID
		record.BookingID = &id
	}

	return &record, nil
}

// Complete привязывает к ключу созданное бронирование
func (r *Repository) Complete(ctx context.Context, clientID int64, key string, bookingID uuid.UUID) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("idempotency_keys").
		Set("booking_id", bookingID).
		Where(squirrel.Eq{"client_id": clientID, "idempotency_key": key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Complete - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Complete - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Complete - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrKeyNotFound
	}

	return nil
}
