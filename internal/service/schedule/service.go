package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-BeautyBooking/internal/calendar"
	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	scheduleRepo "github.com/m04kA/SMC-BeautyBooking/internal/infra/storage/schedule"
	"github.com/m04kA/SMC-BeautyBooking/internal/service/schedule/models"
)

// Service сервис для работы с расписаниями провайдеров
type Service struct {
	scheduleRepo ScheduleRepository
	location     *time.Location
	logger       Logger
}

// NewService создает новый экземпляр сервиса расписаний
func NewService(scheduleRepo ScheduleRepository, location *time.Location, logger Logger) *Service {
	if location == nil {
		location = time.UTC
	}
	return &Service{
		scheduleRepo: scheduleRepo,
		location:     location,
		logger:       logger,
	}
}

// Get возвращает расписание провайдера. Доступно всем.
func (s *Service) Get(ctx context.Context, providerID int64) (*models.ScheduleResponse, error) {
	s.logger.Info("Get: fetching schedule for provider=%d", providerID)

	schedule, err := s.scheduleRepo.GetByProviderID(ctx, providerID)
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrScheduleNotFound) {
			s.logger.Warn("Get: schedule for provider=%d not found", providerID)
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("Get: repository error for provider=%d: %v", providerID, err)
		return nil, fmt.Errorf("%w: Get - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainSchedule(schedule), nil
}

// Update заменяет расписание провайдера целиком.
// Доступно владельцу расписания и администратору.
func (s *Service) Update(ctx context.Context, req *models.UpdateScheduleRequest) (*models.ScheduleResponse, error) {
	s.logger.Info("Update: updating schedule for provider=%d by %s=%d", req.ProviderID, req.Actor.Role, req.Actor.UserID)

	if err := s.checkOwner(req.ProviderID, req.Actor); err != nil {
		s.logger.Warn("Update: %s=%d cannot change schedule of provider=%d", req.Actor.Role, req.Actor.UserID, req.ProviderID)
		return nil, err
	}

	schedule, err := req.ToDomain(s.location)
	if err != nil {
		s.logger.Warn("Update: invalid schedule for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := validateSchedule(schedule); err != nil {
		s.logger.Warn("Update: validation failed for provider=%d: %v", req.ProviderID, err)
		return nil, err
	}

	saved, err := s.scheduleRepo.Upsert(ctx, schedule)
	if err != nil {
		s.logger.Error("Update: repository error for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: Update - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Update: schedule for provider=%d saved", req.ProviderID)
	return models.FromDomainSchedule(saved), nil
}

// Delete удаляет расписание провайдера. Существующие бронирования не затрагиваются.
func (s *Service) Delete(ctx context.Context, providerID int64, actor domain.Actor) error {
	s.logger.Info("Delete: deleting schedule for provider=%d by %s=%d", providerID, actor.Role, actor.UserID)

	if err := s.checkOwner(providerID, actor); err != nil {
		s.logger.Warn("Delete: %s=%d cannot delete schedule of provider=%d", actor.Role, actor.UserID, providerID)
		return err
	}

	if err := s.scheduleRepo.Delete(ctx, providerID); err != nil {
		if errors.Is(err, scheduleRepo.ErrScheduleNotFound) {
			return ErrScheduleNotFound
		}
		s.logger.Error("Delete: repository error for provider=%d: %v", providerID, err)
		return fmt.Errorf("%w: Delete - repository error: %v", ErrInternal, err)
	}

	return nil
}

// checkOwner проверяет, что актор владеет расписанием или является администратором
func (s *Service) checkOwner(providerID int64, actor domain.Actor) error {
	if actor.Role == domain.RoleAdmin {
		return nil
	}
	if actor.Role == domain.RoleProvider && actor.UserID == providerID {
		return nil
	}
	return ErrAccessDenied
}

func validateSchedule(schedule *domain.ProviderSchedule) error {
	if schedule.ProviderID <= 0 {
		return fmt.Errorf("%w: providerID must be positive", ErrInvalidInput)
	}

	g := schedule.SlotGranularityMinutes
	if g < 0 || g > 24*60 || (g > 0 && (24*60)%g != 0) {
		return fmt.Errorf("%w: slot granularity must divide the day, got %d", ErrInvalidInput, g)
	}

	if len(schedule.Holidays) > domain.MaxHolidayOverrides {
		return fmt.Errorf("%w: more than %d holiday overrides", ErrInvalidInput, domain.MaxHolidayOverrides)
	}

	seen := make(map[string]struct{}, len(schedule.Holidays))
	for _, h := range schedule.Holidays {
		key := h.Date.Format(domain.DateFormat)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate holiday %s", ErrInvalidInput, key)
		}
		seen[key] = struct{}{}
	}

	if err := calendar.ValidateSchedule(schedule); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return nil
}
