package reserve_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/m04kA/SMC-BeautyBooking/internal/calendar"
	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	bookingRepo "github.com/m04kA/SMC-BeautyBooking/internal/infra/storage/booking"
	idempotencyStorage "github.com/m04kA/SMC-BeautyBooking/internal/infra/storage/idempotency"
	scheduleRepo "github.com/m04kA/SMC-BeautyBooking/internal/infra/storage/schedule"
	"github.com/m04kA/SMC-BeautyBooking/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-BeautyBooking/pkg/tracing"
)

// Исходы бронирования для метрик
const (
	outcomeSuccess     = "success"
	outcomeReplay      = "replay"
	outcomeUnavailable = "slot_unavailable"
	outcomeInvalidSlot = "invalid_slot"
	outcomeExpired     = "slot_expired"
	outcomeRejected    = "rejected"
	outcomeUnknown     = "unknown"
)

// UseCase координатор бронирования слотов.
// Уникальность активного бронирования на слот гарантирует хранилище,
// предварительное чтение занятости здесь не используется.
type UseCase struct {
	bookingRepo     BookingRepository
	scheduleRepo    ScheduleRepository
	idempotencyRepo IdempotencyRepository
	outbox          EventOutbox
	catalog         CatalogClient
	txManager       TransactionManager
	timeProvider    TimeProvider
	metrics         MetricsCollector
	logger          Logger
	timeout         time.Duration
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	scheduleRepo ScheduleRepository,
	idempotencyRepo IdempotencyRepository,
	outbox EventOutbox,
	catalog CatalogClient,
	txManager TransactionManager,
	timeProvider TimeProvider,
	metrics MetricsCollector,
	logger Logger,
	timeout time.Duration,
) *UseCase {
	return &UseCase{
		bookingRepo:     bookingRepo,
		scheduleRepo:    scheduleRepo,
		idempotencyRepo: idempotencyRepo,
		outbox:          outbox,
		catalog:         catalog,
		txManager:       txManager,
		timeProvider:    timeProvider,
		metrics:         metrics,
		logger:          logger,
		timeout:         timeout,
	}
}

// Execute бронирует слот.
// Повтор с тем же ключом идемпотентности и теми же параметрами возвращает исходное бронирование.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	ctx, span := tracing.Start(ctx, "reserve_booking.Execute",
		attribute.Int64("provider_id", req.ProviderID),
		attribute.String("date", req.Date.Format(domain.DateFormat)),
		attribute.String("time", req.Time.String()),
	)
	defer span.End()

	uc.logger.Info("ReserveBooking: client=%d, provider=%d, service=%d, date=%s, time=%s, status=%s",
		req.ClientID, req.ProviderID, req.ServiceID, req.Date.Format(domain.DateFormat), req.Time, req.InitialStatus)

	if req.IdempotencyKey == "" {
		return nil, fmt.Errorf("%w: idempotency key is required", ErrInvalidInput)
	}

	ctx, cancel := uc.withTimeout(ctx)
	defer cancel()

	resp, err := uc.execute(ctx, req)
	if err != nil {
		err = classify(ctx, err)
		uc.metrics.ObserveReservation(outcomeOf(err))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if resp.Replayed {
		uc.metrics.ObserveReservation(outcomeReplay)
		uc.logger.Info("ReserveBooking: replayed booking id=%s for key=%s", resp.Booking.ID, req.IdempotencyKey)
	} else {
		uc.metrics.ObserveReservation(outcomeSuccess)
		uc.logger.Info("ReserveBooking: created booking id=%s", resp.Booking.ID)
	}
	span.SetAttributes(attribute.String("booking_id", resp.Booking.ID.String()))

	return resp, nil
}

func (uc *UseCase) execute(ctx context.Context, req *Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("ReserveBooking: validation failed: %v", err)
		return nil, err
	}

	fingerprint := Fingerprint(req)

	// Повтор отвечает сохранённым бронированием до проверок слота и каталога
	original, err := uc.findReplay(ctx, req.ClientID, req.IdempotencyKey, fingerprint)
	if err != nil {
		return nil, err
	}
	if original != nil {
		return &Response{Booking: original, Replayed: true}, nil
	}

	plan, err := uc.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	var resp *Response

	err = uc.txManager.Do(ctx, func(txCtx context.Context) error {
		record, err := uc.idempotencyRepo.Claim(txCtx, req.ClientID, req.IdempotencyKey, fingerprint)
		if err != nil {
			return fmt.Errorf("failed to claim idempotency key: %w", err)
		}

		if record.Fingerprint != fingerprint {
			uc.logger.Warn("ReserveBooking: key=%s reused by client=%d with different parameters",
				req.IdempotencyKey, req.ClientID)
			return ErrIdempotencyKeyReused
		}

		if record.IsCompleted() {
			original, err := uc.bookingRepo.GetByID(txCtx, *record.BookingID)
			if err != nil {
				return fmt.Errorf("failed to load replayed booking: %w", err)
			}
			resp = &Response{Booking: original, Replayed: true}
			return nil
		}

		created, err := uc.Commit(txCtx, plan)
		if err != nil {
			return err
		}

		if err := uc.idempotencyRepo.Complete(txCtx, req.ClientID, req.IdempotencyKey, created.ID); err != nil {
			return fmt.Errorf("failed to complete idempotency key: %w", err)
		}

		resp = &Response{Booking: created}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// findReplay возвращает бронирование, уже созданное по ключу с теми же параметрами.
// nil без ошибки, если ключ ещё не отработал.
func (uc *UseCase) findReplay(ctx context.Context, clientID int64, key, fingerprint string) (*domain.Booking, error) {
	record, err := uc.idempotencyRepo.Find(ctx, clientID, key)
	if err != nil {
		if errors.Is(err, idempotencyStorage.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find idempotency key: %w", err)
	}

	if record.Fingerprint != fingerprint {
		uc.logger.Warn("ReserveBooking: key=%s reused by client=%d with different parameters", key, clientID)
		return nil, ErrIdempotencyKeyReused
	}
	if !record.IsCompleted() {
		return nil, nil
	}

	original, err := uc.bookingRepo.GetByID(ctx, *record.BookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load replayed booking: %w", err)
	}
	return original, nil
}

// Prepare проверяет заявку вне транзакции: входные данные, услугу в каталоге,
// попадание времени в сетку (InvalidSlot) и то, что слот не в прошлом (SlotExpired).
func (uc *UseCase) Prepare(ctx context.Context, req *Request) (*Plan, error) {
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("ReserveBooking: validation failed: %v", err)
		return nil, err
	}

	service, err := uc.catalog.GetService(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalogservice.ErrServiceNotFound) {
			uc.logger.Warn("ReserveBooking: service id=%d not found", req.ServiceID)
			return nil, ErrServiceNotFound
		}
		uc.logger.Error("ReserveBooking: failed to get service id=%d: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	if service.ProviderID != req.ProviderID {
		uc.logger.Warn("ReserveBooking: service id=%d belongs to provider=%d, not %d",
			req.ServiceID, service.ProviderID, req.ProviderID)
		return nil, ErrServiceNotFound
	}

	schedule, err := uc.scheduleRepo.GetByProviderID(ctx, req.ProviderID)
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrScheduleNotFound) {
			uc.logger.Warn("ReserveBooking: provider=%d has no schedule", req.ProviderID)
			return nil, ErrProviderNotFound
		}
		uc.logger.Error("ReserveBooking: failed to get schedule for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	if !calendar.IsBookableSlot(schedule, req.Date, req.Time) {
		uc.logger.Warn("ReserveBooking: %s %s is outside of provider=%d windows",
			req.Date.Format(domain.DateFormat), req.Time, req.ProviderID)
		return nil, fmt.Errorf("%w: %s %s", domain.ErrInvalidSlot, req.Date.Format(domain.DateFormat), req.Time)
	}

	if calendar.IsExpired(req.Date, req.Time, uc.timeProvider.Now()) {
		uc.logger.Warn("ReserveBooking: %s %s is in the past", req.Date.Format(domain.DateFormat), req.Time)
		return nil, fmt.Errorf("%w: %s %s", domain.ErrSlotExpired, req.Date.Format(domain.DateFormat), req.Time)
	}

	return &Plan{
		Request:     *req,
		ServiceName: service.Name,
		Price:       service.Price,
		Duration:    service.DurationMinutes,
	}, nil
}

// Commit вставляет бронирование и событие создания в текущей транзакции.
// Занятый слот возвращается как domain.ErrSlotUnavailable без повторных попыток.
func (uc *UseCase) Commit(txCtx context.Context, plan *Plan) (*domain.Booking, error) {
	req := plan.Request
	now := uc.timeProvider.Now()

	booking := &domain.Booking{
		ID:               uuid.New(),
		ProviderID:       req.ProviderID,
		ClientID:         req.ClientID,
		ServiceID:        req.ServiceID,
		Date:             req.Date,
		Time:             req.Time,
		Status:           req.InitialStatus,
		ServiceName:      plan.ServiceName,
		PriceSnapshot:    plan.Price,
		DurationSnapshot: plan.Duration,
		RescheduledFrom:  req.RescheduledFrom,
	}

	created, err := uc.bookingRepo.Create(txCtx, booking)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrSlotNotAvailable) {
			uc.logger.Warn("ReserveBooking: slot provider=%d %s %s already taken",
				req.ProviderID, req.Date.Format(domain.DateFormat), req.Time)
			return nil, fmt.Errorf("%w: %v", domain.ErrSlotUnavailable, err)
		}
		uc.logger.Error("ReserveBooking: failed to create booking: %v", err)
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	event := domain.NewLifecycleEvent(created, "", req.Actor, now)
	if req.RescheduledFrom != nil {
		event.Reason = domain.ReasonRescheduled
	}
	if err := uc.outbox.Append(txCtx, event); err != nil {
		uc.logger.Error("ReserveBooking: failed to append event: %v", err)
		return nil, fmt.Errorf("failed to append lifecycle event: %w", err)
	}

	return created, nil
}

func (uc *UseCase) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if uc.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, uc.timeout)
}

// classify оставляет ошибки, понятные вызывающему, а сбои хранилища и таймауты
// превращает в domain.ErrUnknown: исход операции для клиента не определён.
func classify(ctx context.Context, err error) error {
	if isCallerError(err) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v: %v", domain.ErrUnknown, ctxErr, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrUnknown, err)
}

func isCallerError(err error) bool {
	for _, target := range []error{
		ErrInvalidInput,
		ErrServiceNotFound,
		ErrProviderNotFound,
		ErrCatalogUnavailable,
		ErrIdempotencyKeyReused,
		domain.ErrInvalidSlot,
		domain.ErrSlotExpired,
		domain.ErrSlotUnavailable,
		domain.ErrForbidden,
		domain.ErrNotFound,
		domain.ErrInvalidTransition,
		domain.ErrUnknown,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrSlotUnavailable):
		return outcomeUnavailable
	case errors.Is(err, domain.ErrInvalidSlot):
		return outcomeInvalidSlot
	case errors.Is(err, domain.ErrSlotExpired):
		return outcomeExpired
	case errors.Is(err, domain.ErrUnknown):
		return outcomeUnknown
	default:
		return outcomeRejected
	}
}

// Classify приводит ошибку бронирования к таксономии движка.
// Используется сценариями, которые вызывают Prepare и Commit напрямую.
func Classify(ctx context.Context, err error) error {
	return classify(ctx, err)
}
