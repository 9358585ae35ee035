package reserve_booking

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	"github.com/m04kA/SMC-BeautyBooking/pkg/types"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.ProviderID <= 0 {
		return fmt.Errorf("%w: providerID must be positive", ErrInvalidInput)
	}

	if req.ClientID <= 0 {
		return fmt.Errorf("%w: clientID must be positive", ErrInvalidInput)
	}

	if req.ServiceID <= 0 {
		return fmt.Errorf("%w: serviceID must be positive", ErrInvalidInput)
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if req.Time < 0 || req.Time >= types.MinutesPerDay {
		return fmt.Errorf("%w: time %d is outside of the day", ErrInvalidInput, int(req.Time))
	}

	if !req.InitialStatus.IsActive() {
		return fmt.Errorf("%w: initial status must be pending or confirmed, got %q", ErrInvalidInput, req.InitialStatus)
	}

	if len(req.IdempotencyKey) > domain.MaxIdempotencyKeyLength {
		return fmt.Errorf("%w: idempotency key longer than %d", ErrInvalidInput, domain.MaxIdempotencyKeyLength)
	}

	if !req.Actor.Role.IsValid() {
		return fmt.Errorf("%w: unknown actor role %q", ErrInvalidInput, req.Actor.Role)
	}

	return nil
}

// Fingerprint отпечаток параметров запроса для сравнения повторов с одним ключом
func Fingerprint(req *Request) string {
	replaces := ""
	if req.RescheduledFrom != nil {
		replaces = req.RescheduledFrom.String()
	}
	raw := fmt.Sprintf("%d|%d|%d|%s|%s|%s|%s",
		req.ProviderID,
		req.ClientID,
		req.ServiceID,
		req.Date.Format(domain.DateFormat),
		req.Time,
		req.InitialStatus,
		replaces,
	)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
