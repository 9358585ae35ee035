package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-BeautyBooking/pkg/types"
)

// LifecycleEvent событие о смене статуса бронирования.
// Создание бронирования описывается переходом из пустого статуса.
type LifecycleEvent struct {
	EventID    uuid.UUID
	BookingID  uuid.UUID
	From       BookingStatus
	To         BookingStatus
	Actor      Actor
	Reason     string
	ProviderID int64
	ClientID   int64
	Date       time.Time
	Time       types.MinuteOfDay
	Timestamp  time.Time
}

// NewLifecycleEvent собирает событие по бронированию после перехода
func NewLifecycleEvent(b *Booking, from BookingStatus, actor Actor, at time.Time) LifecycleEvent {
	return LifecycleEvent{
		EventID:    uuid.New(),
		BookingID:  b.ID,
		From:       from,
		To:         b.Status,
		Actor:      actor,
		ProviderID: b.ProviderID,
		ClientID:   b.ClientID,
		Date:       b.Date,
		Time:       b.Time,
		Timestamp:  at,
	}
}

// EventType имя типа события для потребителей (booking.created, booking.confirmed, ...)
func (e LifecycleEvent) EventType() string {
	if e.From == "" {
		return "booking.created"
	}
	return "booking." + string(e.To)
}

// OutboxMessage событие, ожидающее публикации
type OutboxMessage struct {
	ID          int64
	EventID     uuid.UUID
	EventType   string
	AggregateID uuid.UUID
	Payload     []byte
	TraceParent string
	TraceState  string
	CreatedAt   time.Time
	Attempts    int
}
