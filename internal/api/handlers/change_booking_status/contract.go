package change_booking_status

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	"github.com/m04kA/SMC-BeautyBooking/internal/service/bookings/models"
)

type BookingService interface {
	Accept(ctx context.Context, id uuid.UUID, actor domain.Actor) (*models.BookingResponse, error)
	Decline(ctx context.Context, id uuid.UUID, actor domain.Actor, reason *string) (*models.BookingResponse, error)
	Cancel(ctx context.Context, id uuid.UUID, actor domain.Actor, reason *string) (*models.BookingResponse, error)
	Complete(ctx context.Context, id uuid.UUID, actor domain.Actor) (*models.BookingResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
