package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-BeautyBooking/pkg/types"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// IsValid returns true for one of the four known statuses
func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// IsActive returns true if a booking in this status holds its slot
func (s BookingStatus) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// IsTerminal returns true if no further transition is possible
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Booking represents a client's claim on a provider slot
type Booking struct {
	ID         uuid.UUID
	ProviderID int64
	ClientID   int64
	ServiceID  int64
	Date       time.Time // calendar day, midnight in the engine timezone
	Time       types.MinuteOfDay
	Status     BookingStatus

	// Snapshots of the catalog at reservation time
	ServiceName      string
	PriceSnapshot    float64
	DurationSnapshot int

	RescheduledFrom    *uuid.UUID
	CancellationReason *string
	CancelledAt        *time.Time
	CompletedAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the booking holds its slot
func (b *Booking) IsActive() bool {
	return b.Status.IsActive()
}

// IsTerminal returns true if the booking is cancelled or completed
func (b *Booking) IsTerminal() bool {
	return b.Status.IsTerminal()
}

// StartsAt returns the scheduled start as an absolute instant
func (b *Booking) StartsAt() time.Time {
	return b.Time.On(b.Date)
}

// EndsAt returns the scheduled end using the duration snapshot
func (b *Booking) EndsAt() time.Time {
	return b.StartsAt().Add(time.Duration(b.DurationSnapshot) * time.Minute)
}

// SlotKey возвращает ключ уникальности активного бронирования
func (b *Booking) SlotKey() SlotKey {
	return SlotKey{ProviderID: b.ProviderID, Date: b.Date.Format(DateFormat), Time: b.Time}
}

// SlotKey идентифицирует слот провайдера: (provider, date, time)
type SlotKey struct {
	ProviderID int64
	Date       string
	Time       types.MinuteOfDay
}

// ProviderBookingsFilter фильтр для получения бронирований провайдера
type ProviderBookingsFilter struct {
	ProviderID      int64          // Обязательный параметр
	StartDate       *time.Time     // Начало периода (опционально)
	EndDate         *time.Time     // Конец периода (опционально)
	Status          *BookingStatus // Фильтр по статусу (опционально)
	IncludeInactive bool           // Включать ли отмененные и завершенные
}

// StatusChange compare-and-swap смена статуса: применяется, только если текущий статус равен From
type StatusChange struct {
	BookingID uuid.UUID
	From      BookingStatus
	To        BookingStatus
	Reason    *string
	At        time.Time
}

// Apply переносит смену статуса на бронирование в памяти
func (c StatusChange) Apply(b *Booking) {
	b.Status = c.To
	b.UpdatedAt = c.At
	switch c.To {
	case StatusCancelled:
		at := c.At
		b.CancelledAt = &at
		b.CancellationReason = c.Reason
	case StatusCompleted:
		at := c.At
		b.CompletedAt = &at
	}
}
