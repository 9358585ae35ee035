package domain

import "errors"

// Ошибки движка бронирования. Ошибки слоёв ниже оборачивают их через %w.
var (
	// ErrInvalidSlot время не лежит на сетке слотов рабочего окна
	ErrInvalidSlot = errors.New("invalid slot")
	// ErrSlotExpired начало слота уже в прошлом
	ErrSlotExpired = errors.New("slot expired")
	// ErrSlotUnavailable слот занят активным бронированием
	ErrSlotUnavailable = errors.New("slot unavailable")
	// ErrForbidden актор не вправе выполнить действие
	ErrForbidden = errors.New("forbidden")
	// ErrNotYetDue завершение раньше запланированного начала
	ErrNotYetDue = errors.New("not yet due")
	// ErrNotFound бронирование не существует
	ErrNotFound = errors.New("not found")
	// ErrUnknown сбой хранилища или таймаут, результат операции не гарантирован
	ErrUnknown = errors.New("unknown error")
	// ErrInvalidTransition переход не допускается из текущего статуса
	ErrInvalidTransition = errors.New("invalid transition")
)
