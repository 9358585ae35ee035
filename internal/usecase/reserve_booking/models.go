package reserve_booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	"github.com/m04kA/SMC-BeautyBooking/pkg/types"
)

// Request модель запроса на бронирование слота
type Request struct {
	ProviderID      int64                // ID провайдера
	ClientID        int64                // ID клиента
	ServiceID       int64                // ID услуги
	Date            time.Time            // Дата (без времени, в часовом поясе движка)
	Time            types.MinuteOfDay    // Начало слота
	InitialStatus   domain.BookingStatus // pending или confirmed, определяется сценарием
	IdempotencyKey  string               // Ключ идемпотентности клиента
	RescheduledFrom *uuid.UUID           // Бронирование, которое заменяется (перенос)
	Actor           domain.Actor         // Инициатор
}

// Response модель ответа с созданным бронированием
type Response struct {
	Booking  *domain.Booking
	Replayed bool // true, если вернули результат предыдущего запроса с тем же ключом
}

// Plan проверенная заявка, готовая к фиксации в транзакции
type Plan struct {
	Request     Request
	ServiceName string
	Price       float64
	Duration    int
}
