package reserve_booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	"github.com/m04kA/SMC-BeautyBooking/internal/integrations/catalogservice"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
}

// ScheduleRepository интерфейс репозитория расписаний провайдеров
type ScheduleRepository interface {
	GetByProviderID(ctx context.Context, providerID int64) (*domain.ProviderSchedule, error)
}

// IdempotencyRepository интерфейс хранилища ключей идемпотентности
type IdempotencyRepository interface {
	Find(ctx context.Context, clientID int64, key string) (*domain.IdempotencyRecord, error)
	Claim(ctx context.Context, clientID int64, key, fingerprint string) (*domain.IdempotencyRecord, error)
	Complete(ctx context.Context, clientID int64, key string, bookingID uuid.UUID) error
}

// EventOutbox интерфейс outbox событий жизненного цикла
type EventOutbox interface {
	Append(ctx context.Context, event domain.LifecycleEvent) error
}

// CatalogClient интерфейс клиента каталога услуг
type CatalogClient interface {
	GetService(ctx context.Context, serviceID int64) (*catalogservice.Service, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// MetricsCollector учёт исходов бронирования
type MetricsCollector interface {
	ObserveReservation(outcome string)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
