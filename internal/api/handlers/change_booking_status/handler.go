package change_booking_status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-BeautyBooking/internal/api/handlers"
	"github.com/m04kA/SMC-BeautyBooking/internal/api/middleware"
	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	"github.com/m04kA/SMC-BeautyBooking/internal/service/bookings"
	"github.com/m04kA/SMC-BeautyBooking/internal/service/bookings/models"
)

const (
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgInvalidInput       = "некорректные данные запроса"
)

// Handler выполняет одно действие жизненного цикла: accept, decline, cancel или complete
type Handler struct {
	service BookingService
	action  domain.Action
	logger  Logger
}

func NewHandler(service BookingService, action domain.Action, logger Logger) *Handler {
	return &Handler{
		service: service,
		action:  action,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/bookings/{bookingId}/{accept|decline|cancel|complete}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	route := fmt.Sprintf("PATCH /bookings/{id}/%s", h.action)

	bookingID, err := handlers.PathUUID(r, "bookingId")
	if err != nil {
		h.logger.Warn("%s - Invalid booking ID: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		h.logger.Warn("%s - Missing actor", route)
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req ChangeStatusRequest
	if err := handlers.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("%s - Invalid request body: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	booking, err := h.apply(r.Context(), bookingID, actor, req.Reason)
	if err != nil {
		if errors.Is(err, bookings.ErrInvalidInput) {
			h.logger.Warn("%s - Invalid input: booking_id=%s, error=%v", route, bookingID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)
			return
		}

		status := handlers.RespondEngineError(w, err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("%s - Failed: booking_id=%s, user_id=%d, error=%v", route, bookingID, actor.UserID, err)
		} else {
			h.logger.Warn("%s - Rejected: booking_id=%s, user_id=%d, status=%d, error=%v",
				route, bookingID, actor.UserID, status, err)
		}
		return
	}

	h.logger.Info("%s - Booking updated: booking_id=%s, status=%s, user_id=%d", route, bookingID, booking.Status, actor.UserID)
	handlers.RespondJSON(w, http.StatusOK, booking)
}

func (h *Handler) apply(ctx context.Context, id uuid.UUID, actor domain.Actor, reason *string) (*models.BookingResponse, error) {
	switch h.action {
	case domain.ActionAccept:
		return h.service.Accept(ctx, id, actor)
	case domain.ActionDecline:
		return h.service.Decline(ctx, id, actor, reason)
	case domain.ActionCancel:
		return h.service.Cancel(ctx, id, actor, reason)
	case domain.ActionComplete:
		return h.service.Complete(ctx, id, actor)
	}
	return nil, fmt.Errorf("%w: unknown action %q", bookings.ErrInvalidInput, h.action)
}
