package reschedule_booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	"github.com/m04kA/SMC-BeautyBooking/internal/service/bookings/models"
	rescheduleBooking "github.com/m04kA/SMC-BeautyBooking/internal/usecase/reschedule_booking"
	"github.com/m04kA/SMC-BeautyBooking/pkg/types"
)

var (
	errInvalidDate = errors.New("invalid date")
	errInvalidTime = errors.New("invalid time")
)

// RescheduleRequest HTTP request model
type RescheduleRequest struct {
	Date      string `json:"date"`                // "2026-03-22"
	Time      string `json:"time"`                // "11:30"
	ServiceID *int64 `json:"serviceId,omitempty"` // по умолчанию прежняя услуга
}

// ToUseCaseRequest конвертирует HTTP request в модель use case
func (r *RescheduleRequest) ToUseCaseRequest(bookingID uuid.UUID, actor domain.Actor, key string, loc *time.Location) (*rescheduleBooking.Request, error) {
	date, err := domain.ParseDate(r.Date, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidDate, err)
	}

	at, err := types.ParseMinuteOfDay(r.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidTime, err)
	}

	return &rescheduleBooking.Request{
		BookingID:      bookingID,
		Date:           date,
		Time:           at,
		ServiceID:      r.ServiceID,
		IdempotencyKey: key,
		Actor:          actor,
	}, nil
}

// RescheduleResponse HTTP response model
type RescheduleResponse struct {
	Booking   *models.BookingResponse `json:"booking"`
	Cancelled *models.BookingResponse `json:"cancelled,omitempty"`
	Replayed  bool                    `json:"replayed"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *rescheduleBooking.Response) *RescheduleResponse {
	return &RescheduleResponse{
		Booking:   models.FromDomainBooking(resp.Booking),
		Cancelled: models.FromDomainBooking(resp.Cancelled),
		Replayed:  resp.Replayed,
	}
}
