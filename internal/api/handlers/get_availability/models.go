package get_availability

import (
	"strconv"
	"time"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-BeautyBooking/internal/usecase/get_available_slots"
)

// AvailabilityResponse HTTP response model
type AvailabilityResponse struct {
	ProviderID         int64  `json:"providerId"`
	Date               string `json:"date"`
	GranularityMinutes int    `json:"granularityMinutes"`
	Slots              []Slot `json:"slots"`
}

// Slot слот сетки и его занятость
type Slot struct {
	Time   string `json:"time"`   // "HH:MM"
	Status string `json:"status"` // free | occupied
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailabilityResponse {
	slots := make([]Slot, len(resp.Slots))
	for i, slot := range resp.Slots {
		slots[i] = Slot{
			Time:   slot.Time.String(),
			Status: string(slot.Occupancy),
		}
	}

	return &AvailabilityResponse{
		ProviderID:         resp.ProviderID,
		Date:               resp.Date.Format(domain.DateFormat),
		GranularityMinutes: resp.GranularityMinutes,
		Slots:              slots,
	}
}

// ToUseCaseRequest создает запрос use case из query параметров
func ToUseCaseRequest(providerID int64, dateStr, onlyFreeStr string, loc *time.Location) (*getAvailableSlots.Request, error) {
	date, err := domain.ParseDate(dateStr, loc)
	if err != nil {
		return nil, err
	}

	onlyFree := false
	if onlyFreeStr != "" {
		onlyFree, err = strconv.ParseBool(onlyFreeStr)
		if err != nil {
			return nil, err
		}
	}

	return &getAvailableSlots.Request{
		ProviderID: providerID,
		Date:       date,
		OnlyFree:   onlyFree,
	}, nil
}
