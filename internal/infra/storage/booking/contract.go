package booking

import (
	"github.com/m04kA/SMC-BeautyBooking/pkg/dbmetrics"
)

// Переиспользуем интерфейсы из dbmetrics для работы с БД
type DBExecutor = dbmetrics.DBExecutor
type TxExecutor = dbmetrics.TxExecutor

// uniqueViolation код ошибки PostgreSQL unique_violation
const uniqueViolation = "23505"

// activeSlotIndex частичный уникальный индекс активных бронирований
const activeSlotIndex = "bookings_active_slot_uidx"
