package reschedule_booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	"github.com/m04kA/SMC-BeautyBooking/internal/service/bookings/models"
	"github.com/m04kA/SMC-BeautyBooking/internal/usecase/reserve_booking"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
}

// IdempotencyRepository интерфейс хранилища ключей идемпотентности
type IdempotencyRepository interface {
	Find(ctx context.Context, clientID int64, key string) (*domain.IdempotencyRecord, error)
	Claim(ctx context.Context, clientID int64, key, fingerprint string) (*domain.IdempotencyRecord, error)
	Complete(ctx context.Context, clientID int64, key string, bookingID uuid.UUID) error
}

// Reserver координатор бронирования: проверка заявки и фиксация в текущей транзакции
type Reserver interface {
	Prepare(ctx context.Context, req *reserve_booking.Request) (*reserve_booking.Plan, error)
	Commit(txCtx context.Context, plan *reserve_booking.Plan) (*domain.Booking, error)
}

// Lifecycle менеджер жизненного цикла: переход в транзакции из контекста
type Lifecycle interface {
	ApplyInTx(txCtx context.Context, req *models.TransitionRequest) (*domain.Booking, domain.BookingStatus, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// MetricsCollector учёт переходов и бронирований
type MetricsCollector interface {
	ObserveTransition(action, from, to string)
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
