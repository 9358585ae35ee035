package domain

// Default configuration values
const (
	DefaultSlotGranularityMinutes = 15
	DefaultServiceDurationMinutes = 60
)

// Business validation constants
const (
	MaxWindowsPerDay            = 8
	MaxHolidayOverrides         = 366
	MaxIdempotencyKeyLength     = 128
	MaxCancellationReasonLength = 500
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// Причины отмены, проставляемые движком
const (
	ReasonDeclined    = "declined"
	ReasonRescheduled = "rescheduled"
)

// ActiveStatuses статусы, занимающие слот
var ActiveStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
}

// InactiveStatuses терминальные статусы
var InactiveStatuses = []BookingStatus{
	StatusCancelled,
	StatusCompleted,
}

// ReservationFlow сценарий создания бронирования, определяющий начальный статус
type ReservationFlow string

const (
	FlowSelfService ReservationFlow = "self_service"
	FlowNegotiated  ReservationFlow = "negotiated"
)

// InitialStatus возвращает начальный статус для сценария
func (f ReservationFlow) InitialStatus() (BookingStatus, bool) {
	switch f {
	case FlowSelfService:
		return StatusConfirmed, true
	case FlowNegotiated, "":
		return StatusPending, true
	}
	return "", false
}
