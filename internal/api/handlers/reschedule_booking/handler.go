package reschedule_booking

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-BeautyBooking/internal/api/handlers"
	"github.com/m04kA/SMC-BeautyBooking/internal/api/middleware"
	rescheduleBooking "github.com/m04kA/SMC-BeautyBooking/internal/usecase/reschedule_booking"
	reserveBooking "github.com/m04kA/SMC-BeautyBooking/internal/usecase/reserve_booking"
)

// IdempotencyKeyHeader заголовок с ключом идемпотентности
const IdempotencyKeyHeader = "Idempotency-Key"

const (
	msgInvalidBookingID    = "некорректный ID бронирования"
	msgMissingUserID       = "отсутствует ID пользователя"
	msgMissingKey          = "заголовок Idempotency-Key обязателен"
	msgInvalidRequestBody  = "некорректное тело запроса"
	msgInvalidDate         = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidTime         = "некорректный формат времени, ожидается HH:MM"
	msgInvalidInput        = "некорректные данные переноса"
	msgServiceNotFound     = "услуга не найдена у провайдера"
	msgProviderNotFound    = "расписание провайдера не найдено"
	msgCatalogUnavailable  = "каталог услуг временно недоступен"
	msgIdempotencyMismatch = "ключ идемпотентности уже использован с другими параметрами"
)

type Handler struct {
	useCase  RescheduleBookingUseCase
	location *time.Location
	logger   Logger
}

func NewHandler(useCase RescheduleBookingUseCase, location *time.Location, logger Logger) *Handler {
	return &Handler{
		useCase:  useCase,
		location: location,
		logger:   logger,
	}
}

// Handle POST /api/v1/bookings/{bookingId}/reschedule
// Header: Idempotency-Key (required)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID, err := handlers.PathUUID(r, "bookingId")
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/reschedule - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		h.logger.Warn("POST /bookings/{id}/reschedule - Missing actor")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	key := r.Header.Get(IdempotencyKeyHeader)
	if key == "" {
		h.logger.Warn("POST /bookings/{id}/reschedule - Missing idempotency key: booking_id=%s", bookingID)
		handlers.RespondBadRequest(w, msgMissingKey)
		return
	}

	var req RescheduleRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings/{id}/reschedule - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(bookingID, actor, key, h.location)
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/reschedule - Failed to parse request: %v", err)
		if errors.Is(err, errInvalidTime) {
			handlers.RespondBadRequest(w, msgInvalidTime)
		} else {
			handlers.RespondBadRequest(w, msgInvalidDate)
		}
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, rescheduleBooking.ErrInvalidInput), errors.Is(err, reserveBooking.ErrInvalidInput):
			h.logger.Warn("POST /bookings/{id}/reschedule - Invalid input: booking_id=%s, error=%v", bookingID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, reserveBooking.ErrServiceNotFound):
			h.logger.Warn("POST /bookings/{id}/reschedule - Service not found: booking_id=%s", bookingID)
			handlers.RespondNotFound(w, msgServiceNotFound)

		case errors.Is(err, reserveBooking.ErrProviderNotFound):
			h.logger.Warn("POST /bookings/{id}/reschedule - Provider not found: booking_id=%s", bookingID)
			handlers.RespondNotFound(w, msgProviderNotFound)

		case errors.Is(err, reserveBooking.ErrCatalogUnavailable):
			h.logger.Error("POST /bookings/{id}/reschedule - Catalog unavailable: booking_id=%s, error=%v", bookingID, err)
			handlers.RespondError(w, http.StatusServiceUnavailable, msgCatalogUnavailable)

		case errors.Is(err, reserveBooking.ErrIdempotencyKeyReused):
			h.logger.Warn("POST /bookings/{id}/reschedule - Idempotency key reused: user_id=%d, key=%s", actor.UserID, key)
			handlers.RespondError(w, http.StatusUnprocessableEntity, msgIdempotencyMismatch)

		default:
			status := handlers.RespondEngineError(w, err)
			h.logger.Warn("POST /bookings/{id}/reschedule - Reschedule rejected: booking_id=%s, user_id=%d, status=%d, error=%v",
				bookingID, actor.UserID, status, err)
		}
		return
	}

	h.logger.Info("POST /bookings/{id}/reschedule - Booking rescheduled: from=%s, to=%s, replayed=%t",
		bookingID, result.Booking.ID, result.Replayed)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
