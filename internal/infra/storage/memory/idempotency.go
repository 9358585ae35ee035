package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	idempotencyRepo "github.com/m04kA/SMC-BeautyBooking/internal/infra/storage/idempotency"
)

// IdempotencyRepository ключи идемпотентности в памяти
type IdempotencyRepository struct {
	store *Store
}

func (r *IdempotencyRepository) Claim(ctx context.Context, clientID int64, key, fingerprint string) (*domain.IdempotencyRecord, error) {
	s := r.store
	if !s.inTx(ctx) {
		return nil, idempotencyRepo.ErrNotInTransaction
	}
	tx, release := s.acquire(ctx)
	defer release()

	k := idempotencyKey{clientID: clientID, key: key}
	record, ok := s.keys[k]
	if !ok {
		record = &domain.IdempotencyRecord{
			ClientID:    clientID,
			Key:         key,
			Fingerprint: fingerprint,
			CreatedAt:   s.now(),
		}
		s.keys[k] = record
		tx.onRollback(func() { delete(s.keys, k) })
	}

	c := *record
	return &c, nil
}

func (r *IdempotencyRepository) Find(ctx context.Context, clientID int64, key string) (*domain.IdempotencyRecord, error) {
	s := r.store
	_, release := s.acquire(ctx)
	defer release()

	record, ok := s.keys[idempotencyKey{clientID: clientID, key: key}]
	if !ok {
		return nil, idempotencyRepo.ErrKeyNotFound
	}

	c := *record
	return &c, nil
}

func (r *IdempotencyRepository) Complete(ctx context.Context, clientID int64, key string, bookingID uuid.UUID) error {
	s := r.store
	tx, release := s.acquire(ctx)
	defer release()

	record, ok := s.keys[idempotencyKey{clientID: clientID, key: key}]
	if !ok {
		return idempotencyRepo.ErrKeyNotFound
	}

	previous := record.BookingID
	id := bookingID
	record.BookingID = &id
	tx.onRollback(func() { record.BookingID = previous })

	return nil
}
