package reschedule_booking

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	"github.com/m04kA/SMC-BeautyBooking/pkg/types"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.BookingID == uuid.Nil {
		return fmt.Errorf("%w: booking id is required", ErrInvalidInput)
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if req.Time < 0 || req.Time >= types.MinutesPerDay {
		return fmt.Errorf("%w: time %d is outside of the day", ErrInvalidInput, int(req.Time))
	}

	if req.ServiceID != nil && *req.ServiceID <= 0 {
		return fmt.Errorf("%w: serviceID must be positive", ErrInvalidInput)
	}

	if req.IdempotencyKey == "" {
		return fmt.Errorf("%w: idempotency key is required", ErrInvalidInput)
	}

	if len(req.IdempotencyKey) > domain.MaxIdempotencyKeyLength {
		return fmt.Errorf("%w: idempotency key longer than %d", ErrInvalidInput, domain.MaxIdempotencyKeyLength)
	}

	if !req.Actor.Role.IsValid() {
		return fmt.Errorf("%w: unknown actor role %q", ErrInvalidInput, req.Actor.Role)
	}

	return nil
}

// fingerprint отпечаток переноса: бронирование, новая услуга и новое время
func fingerprint(req *Request, serviceID int64) string {
	raw := fmt.Sprintf("reschedule|%s|%d|%s|%s",
		req.BookingID,
		serviceID,
		req.Date.Format(domain.DateFormat),
		req.Time,
	)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
