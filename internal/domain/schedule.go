package domain

import (
	"time"

	"github.com/m04kA/SMC-BeautyBooking/pkg/types"
)

// TimeWindow рабочее окно [Open, Close) внутри дня
type TimeWindow struct {
	Open  types.MinuteOfDay
	Close types.MinuteOfDay
}

// IsValid returns true if the window is non-empty and lies inside one day
func (w TimeWindow) IsValid() bool {
	return w.Open >= 0 && w.Close <= types.MinutesPerDay && w.Open < w.Close
}

// Overlaps returns true if the two windows share at least one minute
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.Open < other.Close && other.Open < w.Close
}

// HolidayOverride заменяет недельное расписание на конкретную дату.
// Пустой Windows означает выходной.
type HolidayOverride struct {
	Date    time.Time
	Windows []TimeWindow
}

// ProviderSchedule политика рабочих часов провайдера
type ProviderSchedule struct {
	ProviderID             int64
	WeeklyHours            map[time.Weekday][]TimeWindow
	Holidays               []HolidayOverride
	SlotGranularityMinutes int
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Granularity возвращает шаг сетки, подставляя значение по умолчанию
func (s *ProviderSchedule) Granularity() int {
	if s.SlotGranularityMinutes <= 0 {
		return DefaultSlotGranularityMinutes
	}
	return s.SlotGranularityMinutes
}

// HolidayFor возвращает исключение на дату, если оно задано
func (s *ProviderSchedule) HolidayFor(date time.Time) (HolidayOverride, bool) {
	key := date.Format(DateFormat)
	for _, h := range s.Holidays {
		if h.Date.Format(DateFormat) == key {
			return h, true
		}
	}
	return HolidayOverride{}, false
}
