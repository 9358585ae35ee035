package schedule

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
)

var (
	// ErrScheduleNotFound возвращается, когда у провайдера нет расписания
	ErrScheduleNotFound = fmt.Errorf("%w: schedule", domain.ErrNotFound)

	// ErrAccessDenied возвращается, когда расписание меняет не владелец и не администратор
	ErrAccessDenied = fmt.Errorf("%w: access denied", domain.ErrForbidden)

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
