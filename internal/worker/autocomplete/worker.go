package autocomplete

import (
	"context"
	"errors"
	"time"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	"github.com/m04kA/SMC-BeautyBooking/internal/service/bookings/models"
)

const (
	defaultInterval  = time.Minute
	defaultBatchSize = 100
)

// Worker завершает подтверждённые бронирования, время которых прошло
type Worker struct {
	bookingRepo  BookingRepository
	lifecycle    Lifecycle
	timeProvider TimeProvider
	logger       Logger
	interval     time.Duration
	batchSize    int
}

// NewWorker создает воркер автозавершения
func NewWorker(
	bookingRepo BookingRepository,
	lifecycle Lifecycle,
	timeProvider TimeProvider,
	logger Logger,
	interval time.Duration,
	batchSize int,
) *Worker {
	if interval <= 0 {
		interval = defaultInterval
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Worker{
		bookingRepo:  bookingRepo,
		lifecycle:    lifecycle,
		timeProvider: timeProvider,
		logger:       logger,
		interval:     interval,
		batchSize:    batchSize,
	}
}

// Run выполняет проходы с заданным интервалом до отмены контекста
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("AutoComplete: started, interval=%s", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("AutoComplete: stopped")
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.Error("AutoComplete: %v", err)
			}
		}
	}
}

// RunOnce завершает бронирования, закончившиеся к текущему моменту, и возвращает их число.
// Бронирование, которое успели отменить или завершить вручную, пропускается.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	now := w.timeProvider.Now()

	candidates, err := w.bookingRepo.ListConfirmedUntil(ctx, now, w.batchSize)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, b := range candidates {
		if b.EndsAt().After(now) {
			continue
		}

		_, err := w.lifecycle.Transition(ctx, &models.TransitionRequest{
			BookingID: b.ID,
			Action:    domain.ActionComplete,
			Actor:     domain.SystemActor,
		})
		switch {
		case err == nil:
			completed++
		case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrNotFound):
			w.logger.Info("AutoComplete: booking id=%s skipped: %v", b.ID, err)
		default:
			w.logger.Error("AutoComplete: failed to complete booking id=%s: %v", b.ID, err)
		}

		if ctx.Err() != nil {
			return completed, ctx.Err()
		}
	}

	if completed > 0 {
		w.logger.Info("AutoComplete: completed %d bookings", completed)
	}
	return completed, nil
}
