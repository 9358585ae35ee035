package delete_provider_schedule

import (
	"context"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
)

type ScheduleService interface {
	Delete(ctx context.Context, providerID int64, actor domain.Actor) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
