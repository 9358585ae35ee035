package reschedule_booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	"github.com/m04kA/SMC-BeautyBooking/pkg/types"
)

// Request модель запроса на перенос бронирования
type Request struct {
	BookingID      uuid.UUID         // Переносимое бронирование
	Date           time.Time         // Новая дата
	Time           types.MinuteOfDay // Новое время
	ServiceID      *int64            // Новая услуга (по умолчанию прежняя)
	IdempotencyKey string            // Ключ идемпотентности инициатора
	Actor          domain.Actor      // Инициатор
}

// Response модель ответа: новое бронирование и отменённое прежнее
type Response struct {
	Booking   *domain.Booking
	Cancelled *domain.Booking
	Replayed  bool
}
