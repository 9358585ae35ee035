package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	"github.com/m04kA/SMC-BeautyBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-BeautyBooking/pkg/psqlbuilder"
)

var bookingColumns = []string{
	"id",
	"provider_id",
	"client_id",
	"service_id",
	"booking_date",
	"start_minute",
	"status",
	"service_name",
	"price_snapshot",
	"duration_snapshot",
	"rescheduled_from",
	"cancellation_reason",
	"cancelled_at",
	"completed_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db  DBExecutor
	loc *time.Location
}

// NewRepository создает новый экземпляр репозитория бронирований.
// loc часовой пояс, в котором интерпретируются календарные даты.
func NewRepository(db DBExecutor, loc *time.Location) *Repository {
	if loc == nil {
		loc = time.UTC
	}
	return &Repository{db: db, loc: loc}
}

// Create сохраняет новое бронирование.
// Активное бронирование на уже занятый слот отклоняется уникальным индексом
// и возвращается как ErrSlotNotAvailable.
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if !booking.Status.IsActive() {
		return nil, fmt.Errorf("%w: Create - status %q", ErrInvalidStatus, booking.Status)
	}

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"id",
			"provider_id",
			"client_id",
			"service_id",
			"booking_date",
			"start_minute",
			"status",
			"service_name",
			"price_snapshot",
			"duration_snapshot",
			"rescheduled_from",
		).
		Values(
			booking.ID,
			booking.ProviderID,
			booking.ClientID,
			booking.ServiceID,
			booking.Date.Format(domain.DateFormat),
			booking.Time,
			booking.Status,
			booking.ServiceName,
			booking.PriceSnapshot,
			booking.DurationSnapshot,
			booking.RescheduledFrom,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&createdAt, &updatedAt)
	if err != nil {
		if isActiveSlotViolation(err) {
			return nil, fmt.Errorf("%w: provider=%d date=%s time=%s", ErrSlotNotAvailable,
				booking.ProviderID, booking.Date.Format(domain.DateFormat), booking.Time)
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return booking, nil
}

// GetByID получает бронирование по ID.
// Внутри транзакции строка блокируется (FOR UPDATE).
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := r.scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %v", ErrScanRow, err)
	}

	return booking, nil
}

// GetByClientID получает список бронирований клиента
// Опционально фильтрует по статусу
func (r *Repository) GetByClientID(ctx context.Context, clientID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"client_id": clientID}).
		OrderBy("booking_date DESC, start_minute DESC")

	if status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *status})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByClientID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByClientID - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// GetByProviderWithFilter получает бронирования провайдера с фильтрацией
// по периоду, статусу и признаку включения терминальных бронирований.
// Для одной даты результат упорядочен по времени начала.
func (r *Repository) GetByProviderWithFilter(ctx context.Context, filter domain.ProviderBookingsFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"provider_id": filter.ProviderID})

	if filter.StartDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"booking_date": filter.StartDate.Format(domain.DateFormat)})
	}
	if filter.EndDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"booking_date": filter.EndDate.Format(domain.DateFormat)})
	}

	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	} else if !filter.IncludeInactive {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": statusStrings(domain.ActiveStatuses)})
	}

	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.Equal(*filter.EndDate) {
		selectBuilder = selectBuilder.OrderBy("start_minute ASC")
	} else {
		selectBuilder = selectBuilder.OrderBy("booking_date DESC, start_minute DESC")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByProviderWithFilter - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByProviderWithFilter - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// ListConfirmedUntil возвращает подтверждённые бронирования с датой не позже until,
// старые первыми. Используется автозавершением.
func (r *Repository) ListConfirmedUntil(ctx context.Context, until time.Time, limit int) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"status": domain.StatusConfirmed}).
		Where(squirrel.LtOrEq{"booking_date": until.Format(domain.DateFormat)}).
		OrderBy("booking_date ASC, start_minute ASC").
		Limit(uint64(limit)).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListConfirmedUntil - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListConfirmedUntil - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// UpdateStatus меняет статус, только если текущий статус равен change.From.
// Если строка не обновлена, возвращает ErrBookingNotFound или ErrStatusConflict.
func (r *Repository) UpdateStatus(ctx context.Context, change domain.StatusChange) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if !change.To.IsValid() {
		return fmt.Errorf("%w: UpdateStatus - status %q", ErrInvalidStatus, change.To)
	}

	updateBuilder := psqlbuilder.Update("bookings").
		Set("status", change.To).
		Set("updated_at", change.At).
		Where(squirrel.Eq{"id": change.BookingID, "status": change.From})

	switch change.To {
	case domain.StatusCancelled:
		updateBuilder = updateBuilder.
			Set("cancellation_reason", change.Reason).
			Set("cancelled_at", change.At)
	case domain.StatusCompleted:
		updateBuilder = updateBuilder.Set("completed_at", change.At)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		if _, err := r.GetByID(ctx, change.BookingID); err != nil {
			return err
		}
		return fmt.Errorf("%w: id=%s expected %s", ErrStatusConflict, change.BookingID, change.From)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *Repository) scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		booking            domain.Booking
		bookingDate        time.Time
		rescheduledFrom    uuid.NullUUID
		cancellationReason sql.NullString
		cancelledAt        sql.NullTime
		completedAt        sql.NullTime
		createdAt          sql.NullTime
		updatedAt          sql.NullTime
	)

	err := row.Scan(
		&booking.ID,
		&booking.ProviderID,
		&booking.ClientID,
		&booking.ServiceID,
		&bookingDate,
		&booking.Time,
		&booking.Status,
		&booking.ServiceName,
		&booking.PriceSnapshot,
		&booking.DurationSnapshot,
		&rescheduledFrom,
		&cancellationReason,
		&cancelledAt,
		&completedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.Date = time.Date(bookingDate.Year(), bookingDate.Month(), bookingDate.Day(), 0, 0, 0, 0, r.loc)
	if rescheduledFrom.Valid {
		id := rescheduledFrom.UUID
		booking.RescheduledFrom = &id
	}
	if cancellationReason.Valid {
		reason := cancellationReason.String
		booking.CancellationReason = &reason
	}
	if cancelledAt.Valid {
		at := cancelledAt.Time
		booking.CancelledAt = &at
	}
	if completedAt.Valid {
		at := completedAt.Time
		booking.CompletedAt = &at
	}
	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return &booking, nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func (r *Repository) scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		booking, err := r.scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}

func isActiveSlotViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == uniqueViolation && pqErr.Constraint == activeSlotIndex
}

func statusStrings(statuses []domain.BookingStatus) []string {
	result := make([]string, len(statuses))
	for i, s := range statuses {
		result[i] = string(s)
	}
	return result
}
