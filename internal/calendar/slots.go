package calendar

import (
	"time"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	"github.com/m04kA/SMC-BeautyBooking/pkg/types"
)

// GenerateSlots возвращает упорядоченные начала слотов на дату.
// Окно проходится с шагом гранулярности, хвост короче шага отбрасывается.
// Для прошедших дней результат пуст, для сегодняшнего дня отбрасываются
// слоты с началом не позже текущей минуты.
func GenerateSlots(schedule *domain.ProviderSchedule, date time.Time, now time.Time) []types.MinuteOfDay {
	slots := make([]types.MinuteOfDay, 0)
	if schedule == nil || isDateInPast(date, now) {
		return slots
	}

	step := schedule.Granularity()
	today := isSameDay(date, now)
	nowMinute := types.MinuteOfDayFromTime(now)

	for _, w := range ResolveWindows(schedule, date) {
		for start := w.Open; start+types.MinuteOfDay(step) <= w.Close; start += types.MinuteOfDay(step) {
			if today && start <= nowMinute {
				continue
			}
			slots = append(slots, start)
		}
	}

	return slots
}

// IsBookableSlot проверяет, что t лежит на сетке одного из окон даты
func IsBookableSlot(schedule *domain.ProviderSchedule, date time.Time, t types.MinuteOfDay) bool {
	step := types.MinuteOfDay(schedule.Granularity())
	for _, w := range ResolveWindows(schedule, date) {
		if t >= w.Open && t+step <= w.Close && (t-w.Open)%step == 0 {
			return true
		}
	}
	return false
}

// IsExpired проверяет, что начало слота не позже текущего момента
func IsExpired(date time.Time, t types.MinuteOfDay, now time.Time) bool {
	if isDateInPast(date, now) {
		return true
	}
	return isSameDay(date, now) && t <= types.MinuteOfDayFromTime(now)
}

// isSameDay проверяет, что две даты относятся к одному и тому же дню
func isSameDay(date1, date2 time.Time) bool {
	y1, m1, d1 := date1.Date()
	y2, m2, d2 := date2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// isDateInPast проверяет, что дата раньше сегодняшнего дня
func isDateInPast(date, now time.Time) bool {
	dateOnly := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	nowOnly := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return dateOnly.Before(nowOnly)
}
