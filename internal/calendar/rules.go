package calendar

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
)

var (
	// ErrInvalidWindow окно пустое, перевёрнутое или выходит за сутки
	ErrInvalidWindow = errors.New("calendar: invalid time window")

	// ErrOverlappingWindows окна одного дня пересекаются
	ErrOverlappingWindows = errors.New("calendar: overlapping time windows")

	// ErrTooManyWindows слишком много окон в одном дне
	ErrTooManyWindows = errors.New("calendar: too many windows per day")
)

// ResolveWindows возвращает рабочие окна провайдера на дату, упорядоченные по началу.
// Исключение на дату полностью заменяет недельное расписание.
// Некорректные окна (в том числе ночные, где Close <= Open) отбрасываются.
func ResolveWindows(schedule *domain.ProviderSchedule, date time.Time) []domain.TimeWindow {
	if schedule == nil {
		return nil
	}

	source := schedule.WeeklyHours[date.Weekday()]
	if holiday, ok := schedule.HolidayFor(date); ok {
		source = holiday.Windows
	}

	windows := make([]domain.TimeWindow, 0, len(source))
	for _, w := range source {
		if w.IsValid() {
			windows = append(windows, w)
		}
	}

	sort.Slice(windows, func(i, j int) bool {
		return windows[i].Open < windows[j].Open
	})

	return windows
}

// ValidateWindows проверяет окна одного дня перед сохранением расписания
func ValidateWindows(windows []domain.TimeWindow) error {
	if len(windows) > domain.MaxWindowsPerDay {
		return fmt.Errorf("%w: %d > %d", ErrTooManyWindows, len(windows), domain.MaxWindowsPerDay)
	}

	sorted := make([]domain.TimeWindow, len(windows))
	copy(sorted, windows)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Open < sorted[j].Open
	})

	for i, w := range sorted {
		if !w.IsValid() {
			return fmt.Errorf("%w: %s-%s", ErrInvalidWindow, w.Open, w.Close)
		}
		if i > 0 && sorted[i-1].Overlaps(w) {
			return fmt.Errorf("%w: %s-%s and %s-%s", ErrOverlappingWindows,
				sorted[i-1].Open, sorted[i-1].Close, w.Open, w.Close)
		}
	}

	return nil
}

// ValidateSchedule проверяет всё расписание провайдера
func ValidateSchedule(schedule *domain.ProviderSchedule) error {
	for day, windows := range schedule.WeeklyHours {
		if day < time.Sunday || day > time.Saturday {
			return fmt.Errorf("%w: unknown weekday %d", ErrInvalidWindow, day)
		}
		if err := ValidateWindows(windows); err != nil {
			return fmt.Errorf("%s: %w", day, err)
		}
	}

	for _, h := range schedule.Holidays {
		if err := ValidateWindows(h.Windows); err != nil {
			return fmt.Errorf("%s: %w", h.Date.Format(domain.DateFormat), err)
		}
	}

	return nil
}
