package schedule

import (
	"context"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
)

// ScheduleRepository интерфейс репозитория расписаний провайдеров
type ScheduleRepository interface {
	GetByProviderID(ctx context.Context, providerID int64) (*domain.ProviderSchedule, error)
	Upsert(ctx context.Context, schedule *domain.ProviderSchedule) (*domain.ProviderSchedule, error)
	Delete(ctx context.Context, providerID int64) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
