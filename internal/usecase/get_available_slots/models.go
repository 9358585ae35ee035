package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
)

// Request модель запроса на получение доступности провайдера
type Request struct {
	ProviderID int64     // ID провайдера
	Date       time.Time // Дата (без времени, в часовом поясе движка)
	OnlyFree   bool      // Вернуть только свободные слоты
}

// Response модель ответа с сеткой слотов на дату
type Response struct {
	ProviderID         int64
	Date               time.Time
	GranularityMinutes int
	Slots              []domain.SlotAvailability // Упорядочены по времени начала
}
