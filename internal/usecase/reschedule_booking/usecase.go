package reschedule_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	bookingRepo "github.com/m04kA/SMC-BeautyBooking/internal/infra/storage/booking"
	idempotencyStorage "github.com/m04kA/SMC-BeautyBooking/internal/infra/storage/idempotency"
	"github.com/m04kA/SMC-BeautyBooking/internal/service/bookings/models"
	"github.com/m04kA/SMC-BeautyBooking/internal/usecase/reserve_booking"
	"github.com/m04kA/SMC-BeautyBooking/pkg/ptr"
	"github.com/m04kA/SMC-BeautyBooking/pkg/tracing"
)

// UseCase перенос бронирования: отмена прежнего и бронирование нового слота
// выполняются одной транзакцией. Если новый слот занять не удалось,
// прежнее бронирование остаётся в исходном статусе.
type UseCase struct {
	bookingRepo     BookingRepository
	idempotencyRepo IdempotencyRepository
	reserver        Reserver
	lifecycle       Lifecycle
	txManager       TransactionManager
	timeProvider    TimeProvider
	metrics         MetricsCollector
	logger          Logger
	timeout         time.Duration
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	idempotencyRepo IdempotencyRepository,
	reserver Reserver,
	lifecycle Lifecycle,
	txManager TransactionManager,
	timeProvider TimeProvider,
	metrics MetricsCollector,
	logger Logger,
	timeout time.Duration,
) *UseCase {
	return &UseCase{
		bookingRepo:     bookingRepo,
		idempotencyRepo: idempotencyRepo,
		reserver:        reserver,
		lifecycle:       lifecycle,
		txManager:       txManager,
		timeProvider:    timeProvider,
		metrics:         metrics,
		logger:          logger,
		timeout:         timeout,
	}
}

// Execute переносит бронирование на новую дату и время.
// Новое бронирование получает статус прежнего и ссылку на него.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	ctx, span := tracing.Start(ctx, "reschedule_booking.Execute",
		attribute.String("booking_id", req.BookingID.String()),
		attribute.String("date", req.Date.Format(domain.DateFormat)),
		attribute.String("time", req.Time.String()),
	)
	defer span.End()

	uc.logger.Info("RescheduleBooking: booking id=%s to %s %s by %s=%d",
		req.BookingID, req.Date.Format(domain.DateFormat), req.Time, req.Actor.Role, req.Actor.UserID)

	if err := validateRequest(req); err != nil {
		uc.logger.Warn("RescheduleBooking: validation failed: %v", err)
		return nil, err
	}

	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	resp, from, err := uc.execute(ctx, req)
	if err != nil {
		if !errors.Is(err, ErrInvalidInput) {
			err = reserve_booking.Classify(ctx, err)
		}
		if errors.Is(err, domain.ErrUnknown) {
			uc.logger.Error("RescheduleBooking: booking id=%s failed: %v", req.BookingID, err)
		} else {
			uc.logger.Warn("RescheduleBooking: booking id=%s rejected: %v", req.BookingID, err)
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if resp.Replayed {
		uc.metrics.ObserveReservation("replay")
		return resp, nil
	}

	uc.metrics.ObserveTransition(string(domain.ActionCancel), string(from), string(domain.StatusCancelled))
	uc.metrics.ObserveReservation("success")
	uc.logger.Info("RescheduleBooking: booking id=%s replaced by id=%s", resp.Cancelled.ID, resp.Booking.ID)

	return resp, nil
}

func (uc *UseCase) execute(ctx context.Context, req *Request) (*Response, domain.BookingStatus, error) {
	current, err := uc.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, "", fmt.Errorf("%w: booking id=%s", domain.ErrNotFound, req.BookingID)
		}
		return nil, "", fmt.Errorf("failed to get booking: %w", err)
	}

	serviceID := current.ServiceID
	if req.ServiceID != nil {
		serviceID = *req.ServiceID
	}
	keyOwner := req.Actor.UserID
	fp := fingerprint(req, serviceID)

	// Завершённый перенос отдаётся до проверок: прежнее бронирование уже отменено
	replayed, err := uc.findReplay(ctx, keyOwner, req.IdempotencyKey, fp)
	if err != nil {
		return nil, "", err
	}
	if replayed != nil {
		return replayed, "", nil
	}

	// Ранний отказ без захвата ключа: тот же набор проверок повторится под блокировкой
	if _, err := domain.Authorize(req.Actor, current, domain.ActionCancel, uc.timeProvider.Now()); err != nil {
		return nil, "", err
	}

	plan, err := uc.reserver.Prepare(ctx, &reserve_booking.Request{
		ProviderID:      current.ProviderID,
		ClientID:        current.ClientID,
		ServiceID:       serviceID,
		Date:            req.Date,
		Time:            req.Time,
		InitialStatus:   current.Status,
		IdempotencyKey:  req.IdempotencyKey,
		RescheduledFrom: &current.ID,
		Actor:           req.Actor,
	})
	if err != nil {
		return nil, "", err
	}

	var (
		resp *Response
		from domain.BookingStatus
	)

	err = uc.txManager.Do(ctx, func(txCtx context.Context) error {
		record, err := uc.idempotencyRepo.Claim(txCtx, keyOwner, req.IdempotencyKey, fp)
		if err != nil {
			return fmt.Errorf("failed to claim idempotency key: %w", err)
		}
		if record.Fingerprint != fp {
			return reserve_booking.ErrIdempotencyKeyReused
		}
		if record.IsCompleted() {
			resp, err = uc.replay(txCtx, *record)
			return err
		}

		cancelled, previous, err := uc.lifecycle.ApplyInTx(txCtx, &models.TransitionRequest{
			BookingID: current.ID,
			Action:    domain.ActionCancel,
			Actor:     req.Actor,
			Reason:    ptr.Ptr(domain.ReasonRescheduled),
		})
		if err != nil {
			return err
		}

		// Статус мог измениться между чтением и блокировкой
		plan.Request.InitialStatus = previous

		created, err := uc.reserver.Commit(txCtx, plan)
		if err != nil {
			return err
		}

		if err := uc.idempotencyRepo.Complete(txCtx, keyOwner, req.IdempotencyKey, created.ID); err != nil {
			return fmt.Errorf("failed to complete idempotency key: %w", err)
		}

		from = previous
		resp = &Response{Booking: created, Cancelled: cancelled}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	return resp, from, nil
}

// findReplay возвращает результат переноса, уже выполненного по ключу с теми же параметрами
func (uc *UseCase) findReplay(ctx context.Context, keyOwner int64, key, fp string) (*Response, error) {
	record, err := uc.idempotencyRepo.Find(ctx, keyOwner, key)
	if err != nil {
		if errors.Is(err, idempotencyStorage.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find idempotency key: %w", err)
	}

	if record.Fingerprint != fp {
		return nil, reserve_booking.ErrIdempotencyKeyReused
	}
	if !record.IsCompleted() {
		return nil, nil
	}

	return uc.replay(ctx, *record)
}

func (uc *UseCase) replay(ctx context.Context, record domain.IdempotencyRecord) (*Response, error) {
	created, err := uc.bookingRepo.GetByID(ctx, *record.BookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load replayed booking: %w", err)
	}

	resp := &Response{Booking: created, Replayed: true}
	if created.RescheduledFrom != nil {
		if resp.Cancelled, err = uc.bookingRepo.GetByID(ctx, *created.RescheduledFrom); err != nil {
			return nil, fmt.Errorf("failed to load replaced booking: %w", err)
		}
	}
	return resp, nil
}
