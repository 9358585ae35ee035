package domain

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyRecord запись о ключе идемпотентности клиента
type IdempotencyRecord struct {
	ClientID    int64
	Key         string
	Fingerprint string
	BookingID   *uuid.UUID // nil, пока операция с ключом не завершена
	CreatedAt   time.Time
}

// IsCompleted returns true if the key already produced a booking
func (r *IdempotencyRecord) IsCompleted() bool {
	return r.BookingID != nil
}
