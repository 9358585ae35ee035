package reserve_booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	"github.com/m04kA/SMC-BeautyBooking/internal/service/bookings/models"
	reserveBooking "github.com/m04kA/SMC-BeautyBooking/internal/usecase/reserve_booking"
	"github.com/m04kA/SMC-BeautyBooking/pkg/types"
)

var (
	errInvalidDate     = errors.New("invalid date")
	errInvalidTime     = errors.New("invalid time")
	errInvalidFlow     = errors.New("invalid flow")
	errMissingClientID = errors.New("clientId is required")
	errNotOwnClient    = errors.New("client may only book for themselves")
	errNotOwnProvider  = errors.New("provider may only book into own calendar")
)

// ReserveBookingRequest HTTP request model
type ReserveBookingRequest struct {
	ProviderID int64  `json:"providerId"`
	ServiceID  int64  `json:"serviceId"`
	ClientID   *int64 `json:"clientId,omitempty"` // обязателен для провайдера и администратора
	Date       string `json:"date"`               // "2026-03-21"
	Time       string `json:"time"`               // "19:00"
	Flow       string `json:"flow,omitempty"`     // self_service | negotiated
}

// ToUseCaseRequest конвертирует HTTP request в модель use case.
// Клиент бронирует только для себя, провайдер только в своё расписание.
func (r *ReserveBookingRequest) ToUseCaseRequest(actor domain.Actor, key string, loc *time.Location) (*reserveBooking.Request, error) {
	date, err := domain.ParseDate(r.Date, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidDate, err)
	}

	at, err := types.ParseMinuteOfDay(r.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidTime, err)
	}

	status, ok := domain.ReservationFlow(r.Flow).InitialStatus()
	if !ok {
		return nil, fmt.Errorf("%w: %q", errInvalidFlow, r.Flow)
	}

	clientID, err := r.clientFor(actor)
	if err != nil {
		return nil, err
	}

	return &reserveBooking.Request{
		ProviderID:     r.ProviderID,
		ClientID:       clientID,
		ServiceID:      r.ServiceID,
		Date:           date,
		Time:           at,
		InitialStatus:  status,
		IdempotencyKey: key,
		Actor:          actor,
	}, nil
}

func (r *ReserveBookingRequest) clientFor(actor domain.Actor) (int64, error) {
	switch actor.Role {
	case domain.RoleClient:
		if r.ClientID != nil && *r.ClientID != actor.UserID {
			return 0, errNotOwnClient
		}
		return actor.UserID, nil
	case domain.RoleProvider:
		if r.ProviderID != actor.UserID {
			return 0, errNotOwnProvider
		}
	}
	if r.ClientID == nil {
		return 0, errMissingClientID
	}
	return *r.ClientID, nil
}

// ReserveBookingResponse HTTP response model
type ReserveBookingResponse struct {
	models.BookingResponse
	Replayed bool `json:"replayed"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *reserveBooking.Response) *ReserveBookingResponse {
	return &ReserveBookingResponse{
		BookingResponse: *models.FromDomainBooking(resp.Booking),
		Replayed:        resp.Replayed,
	}
}
