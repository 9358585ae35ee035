package availability

import (
	"time"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	"github.com/m04kA/SMC-BeautyBooking/pkg/types"
)

// MarkOccupancy проецирует слоты сетки на занятость.
// Слот занят, если на то же время провайдера и даты есть активное бронирование.
// Проекция только для отображения: решение о фиксации принимает хранилище.
func MarkOccupancy(
	providerID int64,
	date time.Time,
	slots []types.MinuteOfDay,
	bookings []*domain.Booking,
) []domain.SlotAvailability {
	occupied := make(map[types.MinuteOfDay]struct{}, len(bookings))
	dateKey := date.Format(domain.DateFormat)

	for _, b := range bookings {
		if b == nil || !b.IsActive() {
			continue
		}
		if b.ProviderID != providerID || b.Date.Format(domain.DateFormat) != dateKey {
			continue
		}
		occupied[b.Time] = struct{}{}
	}

	result := make([]domain.SlotAvailability, len(slots))
	for i, s := range slots {
		state := domain.SlotFree
		if _, ok := occupied[s]; ok {
			state = domain.SlotOccupied
		}
		result[i] = domain.SlotAvailability{Time: s, Occupancy: state}
	}

	return result
}

// FreeSlots оставляет только свободные слоты
func FreeSlots(slots []domain.SlotAvailability) []types.MinuteOfDay {
	free := make([]types.MinuteOfDay, 0, len(slots))
	for _, s := range slots {
		if s.IsFree() {
			free = append(free, s.Time)
		}
	}
	return free
}
