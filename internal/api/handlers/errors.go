package handlers

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
)

const (
	msgInvalidSlot       = "время не соответствует сетке слотов провайдера"
	msgSlotExpired       = "выбранный слот уже в прошлом"
	msgSlotUnavailable   = "выбранный временной слот уже занят"
	msgForbidden         = "доступ запрещен"
	msgNotYetDue         = "бронирование нельзя завершить до начала услуги"
	msgNotFound          = "бронирование не найдено"
	msgInvalidTransition = "действие недоступно в текущем статусе бронирования"
	msgUnknown           = "результат операции неизвестен, повторите запрос"
)

// StatusTooEarly ответ на попытку завершить бронирование раньше времени
const StatusTooEarly = http.StatusTooEarly

// EngineError HTTP статус и сообщение для ошибки движка бронирования.
// ok=false, если ошибка не относится к таксономии движка.
func EngineError(err error) (status int, message string, ok bool) {
	switch {
	case errors.Is(err, domain.ErrInvalidSlot):
		return http.StatusBadRequest, msgInvalidSlot, true
	case errors.Is(err, domain.ErrSlotExpired):
		return http.StatusConflict, msgSlotExpired, true
	case errors.Is(err, domain.ErrSlotUnavailable):
		return http.StatusConflict, msgSlotUnavailable, true
	case errors.Is(err, domain.ErrInvalidTransition):
		// терминальный статус совпадает и с ErrForbidden, отвечаем 409
		return http.StatusConflict, msgInvalidTransition, true
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, msgForbidden, true
	case errors.Is(err, domain.ErrNotYetDue):
		return StatusTooEarly, msgNotYetDue, true
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, msgNotFound, true
	case errors.Is(err, domain.ErrUnknown):
		return http.StatusServiceUnavailable, msgUnknown, true
	}
	return 0, "", false
}

// RespondEngineError отвечает ошибкой движка или 500, если ошибка неизвестна.
// Возвращает статус ответа для логирования.
func RespondEngineError(w http.ResponseWriter, err error) int {
	if status, message, ok := EngineError(err); ok {
		RespondError(w, status, message)
		return status
	}
	RespondInternalError(w)
	return http.StatusInternalServerError
}
