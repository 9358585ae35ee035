package reserve_booking

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-BeautyBooking/internal/api/handlers"
	"github.com/m04kA/SMC-BeautyBooking/internal/api/middleware"
	reserveBooking "github.com/m04kA/SMC-BeautyBooking/internal/usecase/reserve_booking"
)

// IdempotencyKeyHeader заголовок с ключом идемпотентности
const IdempotencyKeyHeader = "Idempotency-Key"

const (
	msgMissingUserID       = "отсутствует ID пользователя"
	msgMissingKey          = "заголовок Idempotency-Key обязателен"
	msgInvalidRequestBody  = "некорректное тело запроса"
	msgInvalidDate         = "некорректный формат даты бронирования, ожидается YYYY-MM-DD"
	msgInvalidTime         = "некорректный формат времени начала, ожидается HH:MM"
	msgInvalidFlow         = "некорректный сценарий бронирования, ожидается self_service или negotiated"
	msgMissingClientID     = "ID клиента обязателен"
	msgForbidden           = "доступ запрещен"
	msgInvalidInput        = "некорректные данные бронирования"
	msgServiceNotFound     = "услуга не найдена у провайдера"
	msgProviderNotFound    = "расписание провайдера не найдено"
	msgCatalogUnavailable  = "каталог услуг временно недоступен"
	msgIdempotencyMismatch = "ключ идемпотентности уже использован с другими параметрами"
)

type Handler struct {
	useCase  ReserveBookingUseCase
	location *time.Location
	logger   Logger
}

func NewHandler(useCase ReserveBookingUseCase, location *time.Location, logger Logger) *Handler {
	return &Handler{
		useCase:  useCase,
		location: location,
		logger:   logger,
	}
}

// Handle POST /api/v1/bookings
// Header: Idempotency-Key (required)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		h.logger.Warn("POST /bookings - Missing actor")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	key := r.Header.Get(IdempotencyKeyHeader)
	if key == "" {
		h.logger.Warn("POST /bookings - Missing idempotency key: user_id=%d", actor.UserID)
		handlers.RespondBadRequest(w, msgMissingKey)
		return
	}

	var req ReserveBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(actor, key, h.location)
	if err != nil {
		h.logger.Warn("POST /bookings - Failed to parse request: user_id=%d, error=%v", actor.UserID, err)
		switch {
		case errors.Is(err, errInvalidDate):
			handlers.RespondBadRequest(w, msgInvalidDate)
		case errors.Is(err, errInvalidTime):
			handlers.RespondBadRequest(w, msgInvalidTime)
		case errors.Is(err, errInvalidFlow):
			handlers.RespondBadRequest(w, msgInvalidFlow)
		case errors.Is(err, errMissingClientID):
			handlers.RespondBadRequest(w, msgMissingClientID)
		default:
			handlers.RespondForbidden(w, msgForbidden)
		}
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, reserveBooking.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Invalid input: user_id=%d, error=%v", actor.UserID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, reserveBooking.ErrServiceNotFound):
			h.logger.Warn("POST /bookings - Service not found: provider_id=%d, service_id=%d", req.ProviderID, req.ServiceID)
			handlers.RespondNotFound(w, msgServiceNotFound)

		case errors.Is(err, reserveBooking.ErrProviderNotFound):
			h.logger.Warn("POST /bookings - Provider not found: provider_id=%d", req.ProviderID)
			handlers.RespondNotFound(w, msgProviderNotFound)

		case errors.Is(err, reserveBooking.ErrCatalogUnavailable):
			h.logger.Error("POST /bookings - Catalog unavailable: service_id=%d, error=%v", req.ServiceID, err)
			handlers.RespondError(w, http.StatusServiceUnavailable, msgCatalogUnavailable)

		case errors.Is(err, reserveBooking.ErrIdempotencyKeyReused):
			h.logger.Warn("POST /bookings - Idempotency key reused: user_id=%d, key=%s", actor.UserID, key)
			handlers.RespondError(w, http.StatusUnprocessableEntity, msgIdempotencyMismatch)

		default:
			status := handlers.RespondEngineError(w, err)
			h.logger.Warn("POST /bookings - Reservation rejected: user_id=%d, provider_id=%d, date=%s, time=%s, status=%d, error=%v",
				actor.UserID, req.ProviderID, req.Date, req.Time, status, err)
		}
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}

	h.logger.Info("POST /bookings - Booking reserved: booking_id=%s, client_id=%d, provider_id=%d, replayed=%t",
		result.Booking.ID, result.Booking.ClientID, result.Booking.ProviderID, result.Replayed)
	handlers.RespondJSON(w, status, FromUseCaseResponse(result))
}
