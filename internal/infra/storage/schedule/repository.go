package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	"github.com/m04kA/SMC-BeautyBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-BeautyBooking/pkg/psqlbuilder"
)

// Repository репозиторий расписаний провайдеров
type Repository struct {
	db  dbmetrics.DBExecutor
	loc *time.Location
}

// NewRepository создает новый экземпляр репозитория расписаний
func NewRepository(db dbmetrics.DBExecutor, loc *time.Location) *Repository {
	if loc == nil {
		loc = time.UTC
	}
	return &Repository{db: db, loc: loc}
}

// GetByProviderID получает расписание провайдера
func (r *Repository) GetByProviderID(ctx context.Context, providerID int64) (*domain.ProviderSchedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"provider_id",
		"weekly_hours",
		"holidays",
		"slot_granularity_minutes",
		"created_at",
		"updated_at",
	).
		From("provider_schedules").
		Where(squirrel.Eq{"provider_id": providerID}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByProviderID - build select query: %v", ErrBuildQuery, err)
	}

	var (
		schedule             domain.ProviderSchedule
		weeklyHours          []byte
		holidays             []byte
		createdAt, updatedAt sql.NullTime
	)

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&schedule.ProviderID,
		&weeklyHours,
		&holidays,
		&schedule.SlotGranularityMinutes,
		&createdAt,
		&updatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScheduleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByProviderID - scan schedule: %v", ErrScanRow, err)
	}

	if schedule.WeeklyHours, err = decodeWeeklyHours(weeklyHours); err != nil {
		return nil, err
	}
	if schedule.Holidays, err = decodeHolidays(holidays, r.loc); err != nil {
		return nil, err
	}

	schedule.CreatedAt = createdAt.Time
	schedule.UpdatedAt = updatedAt.Time

	return &schedule, nil
}

// Upsert создаёт или полностью заменяет расписание провайдера
func (r *Repository) Upsert(ctx context.Context, schedule *domain.ProviderSchedule) (*domain.ProviderSchedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	weeklyHours, err := encodeWeeklyHours(schedule.WeeklyHours)
	if err != nil {
		return nil, err
	}
	holidays, err := encodeHolidays(schedule.Holidays)
	if err != nil {
		return nil, err
	}

	query, args, err := psqlbuilder.Insert("provider_schedules").
		Columns("provider_id", "weekly_hours", "holidays", "slot_granularity_minutes").
		Values(schedule.ProviderID, weeklyHours, holidays, schedule.Granularity()).
		Suffix(`ON CONFLICT (provider_id) DO UPDATE SET
			weekly_hours = EXCLUDED.weekly_hours,
			holidays = EXCLUDED.holidays,
			slot_granularity_minutes = EXCLUDED.slot_granularity_minutes,
			updated_at = NOW()
		RETURNING created_at, updated_at`).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Upsert - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("%w: Upsert - execute insert: %v", ErrExecQuery, err)
	}

	schedule.SlotGranularityMinutes = schedule.Granularity()
	schedule.CreatedAt = createdAt.Time
	schedule.UpdatedAt = updatedAt.Time

	return schedule, nil
}

// Delete удаляет расписание провайдера
func (r *Repository) Delete(ctx context.Context, providerID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("provider_schedules").
		Where(squirrel.Eq{"provider_id": providerID}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Delete - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrScheduleNotFound
	}

	return nil
}
