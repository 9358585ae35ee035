package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	bookingRepo "github.com/m04kA/SMC-BeautyBooking/internal/infra/storage/booking"
	"github.com/m04kA/SMC-BeautyBooking/internal/service/bookings/models"
	"github.com/m04kA/SMC-BeautyBooking/pkg/ptr"
	"github.com/m04kA/SMC-BeautyBooking/pkg/tracing"
)

// Service менеджер жизненного цикла бронирований
type Service struct {
	bookingRepo  BookingRepository
	outbox       EventOutbox
	txManager    TransactionManager
	timeProvider TimeProvider
	metrics      MetricsCollector
	logger       Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	outbox EventOutbox,
	txManager TransactionManager,
	timeProvider TimeProvider,
	metrics MetricsCollector,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		outbox:       outbox,
		txManager:    txManager,
		timeProvider: timeProvider,
		metrics:      metrics,
		logger:       logger,
	}
}

// GetByID получает бронирование по ID.
// Видеть бронирование могут клиент, провайдер и администратор.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID, actor domain.Actor) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%s for %s=%d", id, actor.Role, actor.UserID)

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByID: booking id=%s not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByID: repository error for booking id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", domain.ErrUnknown, err)
	}

	if !actor.CanView(booking) {
		s.logger.Warn("GetByID: access denied for %s=%d to booking id=%s", actor.Role, actor.UserID, id)
		return nil, ErrAccessDenied
	}

	return models.FromDomainBooking(booking), nil
}

// GetUserBookings получает историю бронирований клиента.
// Опционально фильтрует по статусу.
func (s *Service) GetUserBookings(ctx context.Context, req *models.GetUserBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetUserBookings: fetching bookings for user=%d, status=%v", req.UserID, req.Status)

	if !req.Actor.IsPrivileged() && !(req.Actor.Role == domain.RoleClient && req.Actor.UserID == req.UserID) {
		s.logger.Warn("GetUserBookings: access denied for %s=%d to user=%d", req.Actor.Role, req.Actor.UserID, req.UserID)
		return nil, ErrAccessDenied
	}

	var status *domain.BookingStatus
	if req.Status != nil {
		parsed, err := models.ToDomainBookingStatus(*req.Status)
		if err != nil {
			s.logger.Warn("GetUserBookings: invalid status=%s for user=%d", *req.Status, req.UserID)
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		status = &parsed
	}

	bookings, err := s.bookingRepo.GetByClientID(ctx, req.UserID, status)
	if err != nil {
		s.logger.Error("GetUserBookings: repository error for user=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: GetUserBookings - repository error: %v", domain.ErrUnknown, err)
	}

	s.logger.Info("GetUserBookings: successfully fetched %d bookings for user=%d", len(bookings), req.UserID)
	return models.FromDomainBookingList(bookings), nil
}

// GetProviderBookings получает бронирования провайдера с фильтрацией по периоду и статусу.
// Доступно самому провайдеру и администратору.
func (s *Service) GetProviderBookings(ctx context.Context, req *models.GetProviderBookingsRequest) (*models.BookingListResponse, error) {
	logMsg := fmt.Sprintf("GetProviderBookings: fetching bookings for provider=%d", req.ProviderID)
	if req.StartDate != nil && req.EndDate != nil {
		logMsg += fmt.Sprintf(", period=%s to %s", req.StartDate.Format(domain.DateFormat), req.EndDate.Format(domain.DateFormat))
	}
	if req.Status != nil {
		logMsg += fmt.Sprintf(", status=%s", *req.Status)
	}
	if req.IncludeInactive {
		logMsg += ", includeInactive=true"
	}
	s.logger.Info(logMsg)

	if !req.Actor.IsPrivileged() && !(req.Actor.Role == domain.RoleProvider && req.Actor.UserID == req.ProviderID) {
		s.logger.Warn("GetProviderBookings: access denied for %s=%d to provider=%d", req.Actor.Role, req.Actor.UserID, req.ProviderID)
		return nil, ErrAccessDenied
	}

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("GetProviderBookings: invalid filter for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	bookings, err := s.bookingRepo.GetByProviderWithFilter(ctx, filter)
	if err != nil {
		s.logger.Error("GetProviderBookings: repository error for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: GetProviderBookings - repository error: %v", domain.ErrUnknown, err)
	}

	s.logger.Info("GetProviderBookings: successfully fetched %d bookings for provider=%d", len(bookings), req.ProviderID)
	return models.FromDomainBookingList(bookings), nil
}

// Accept подтверждает бронирование в статусе pending
func (s *Service) Accept(ctx context.Context, id uuid.UUID, actor domain.Actor) (*models.BookingResponse, error) {
	return s.respond(s.Transition(ctx, &models.TransitionRequest{BookingID: id, Action: domain.ActionAccept, Actor: actor}))
}

// Decline отклоняет бронирование в статусе pending
func (s *Service) Decline(ctx context.Context, id uuid.UUID, actor domain.Actor, reason *string) (*models.BookingResponse, error) {
	return s.respond(s.Transition(ctx, &models.TransitionRequest{BookingID: id, Action: domain.ActionDecline, Actor: actor, Reason: reason}))
}

// Cancel отменяет активное бронирование
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actor domain.Actor, reason *string) (*models.BookingResponse, error) {
	return s.respond(s.Transition(ctx, &models.TransitionRequest{BookingID: id, Action: domain.ActionCancel, Actor: actor, Reason: reason}))
}

// Complete завершает подтверждённое бронирование не раньше его начала
func (s *Service) Complete(ctx context.Context, id uuid.UUID, actor domain.Actor) (*models.BookingResponse, error) {
	return s.respond(s.Transition(ctx, &models.TransitionRequest{BookingID: id, Action: domain.ActionComplete, Actor: actor}))
}

// Transition применяет действие к бронированию в собственной транзакции.
// Вызов внутри внешней транзакции присоединяется к ней.
func (s *Service) Transition(ctx context.Context, req *models.TransitionRequest) (*domain.Booking, error) {
	ctx, span := tracing.Start(ctx, "bookings.Transition",
		attribute.String("booking_id", req.BookingID.String()),
		attribute.String("action", string(req.Action)),
	)
	defer span.End()

	s.logger.Info("Transition: %s booking id=%s by %s=%d", req.Action, req.BookingID, req.Actor.Role, req.Actor.UserID)

	var (
		updated *domain.Booking
		from    domain.BookingStatus
	)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		updated, from, err = s.ApplyInTx(txCtx, req)
		return err
	})
	if err != nil {
		if !isKnown(err) {
			err = fmt.Errorf("%w: %v", domain.ErrUnknown, err)
		}
		if errors.Is(err, domain.ErrUnknown) {
			s.logger.Error("Transition: %s booking id=%s failed: %v", req.Action, req.BookingID, err)
		} else {
			s.logger.Warn("Transition: %s booking id=%s rejected: %v", req.Action, req.BookingID, err)
		}
		return nil, err
	}

	s.metrics.ObserveTransition(string(req.Action), string(from), string(updated.Status))
	s.logger.Info("Transition: booking id=%s %s -> %s", updated.ID, from, updated.Status)

	return updated, nil
}

// ApplyInTx выполняет переход в транзакции из контекста и возвращает бронирование
// после перехода вместе с прежним статусом.
// Статус меняется сравнением с прочитанным значением, событие пишется в outbox той же транзакцией.
func (s *Service) ApplyInTx(txCtx context.Context, req *models.TransitionRequest) (*domain.Booking, domain.BookingStatus, error) {
	if err := validateTransition(req); err != nil {
		return nil, "", err
	}

	booking, err := s.bookingRepo.GetByID(txCtx, req.BookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, "", ErrBookingNotFound
		}
		return nil, "", fmt.Errorf("%w: ApplyInTx - get booking: %v", domain.ErrUnknown, err)
	}

	now := s.timeProvider.Now()
	to, err := domain.Authorize(req.Actor, booking, req.Action, now)
	if err != nil {
		return nil, "", err
	}

	change := domain.StatusChange{
		BookingID: booking.ID,
		From:      booking.Status,
		To:        to,
		Reason:    reasonFor(req),
		At:        now,
	}

	if err := s.bookingRepo.UpdateStatus(txCtx, change); err != nil {
		switch {
		case errors.Is(err, bookingRepo.ErrStatusConflict):
			return nil, "", fmt.Errorf("%w: booking id=%s changed concurrently", domain.ErrInvalidTransition, booking.ID)
		case errors.Is(err, bookingRepo.ErrBookingNotFound):
			return nil, "", ErrBookingNotFound
		}
		return nil, "", fmt.Errorf("%w: ApplyInTx - update status: %v", domain.ErrUnknown, err)
	}

	from := booking.Status
	change.Apply(booking)

	event := domain.NewLifecycleEvent(booking, from, req.Actor, now)
	if change.Reason != nil {
		event.Reason = *change.Reason
	}
	if err := s.outbox.Append(txCtx, event); err != nil {
		return nil, "", fmt.Errorf("%w: ApplyInTx - append event: %v", domain.ErrUnknown, err)
	}

	return booking, from, nil
}

func (s *Service) respond(b *domain.Booking, err error) (*models.BookingResponse, error) {
	if err != nil {
		return nil, err
	}
	return models.FromDomainBooking(b), nil
}

// reasonFor возвращает причину отмены. Отклонение без причины помечается как declined.
func reasonFor(req *models.TransitionRequest) *string {
	if req.Reason != nil && *req.Reason != "" {
		return ptr.Ptr(*req.Reason)
	}
	if req.Action == domain.ActionDecline {
		return ptr.Ptr(domain.ReasonDeclined)
	}
	return nil
}

func validateTransition(req *models.TransitionRequest) error {
	if req.BookingID == uuid.Nil {
		return fmt.Errorf("%w: booking id is required", ErrInvalidInput)
	}
	if !req.Action.IsValid() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidInput, req.Action)
	}
	if !req.Actor.Role.IsValid() {
		return fmt.Errorf("%w: unknown actor role %q", ErrInvalidInput, req.Actor.Role)
	}
	if req.Reason != nil && len(*req.Reason) > domain.MaxCancellationReasonLength {
		return fmt.Errorf("%w: reason longer than %d", ErrInvalidInput, domain.MaxCancellationReasonLength)
	}
	return nil
}

func isKnown(err error) bool {
	for _, target := range []error{
		ErrInvalidInput,
		domain.ErrNotFound,
		domain.ErrForbidden,
		domain.ErrNotYetDue,
		domain.ErrInvalidTransition,
		domain.ErrUnknown,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
